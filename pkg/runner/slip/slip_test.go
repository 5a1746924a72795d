package slip

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/clock"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/printers"
	"tableflip.dev/habitdash/pkg/store"
)

func newService(t *testing.T) *app.Service {
	t.Helper()
	svc := app.New(store.NewMemory(), store.StaticConfig{},
		app.WithLogger(zaptest.NewLogger(t)),
		app.WithClock(clock.NewFake(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))))
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestSlip(t *testing.T) {
	ctx := context.Background()
	color.NoColor = true
	svc := newService(t)

	var buf bytes.Buffer
	pp := printers.PrettyPrint{Out: &buf}
	for i := 0; i < 2; i++ {
		buf.Reset()
		if err := (&Slip{Service: svc, Printer: pp}).Do(ctx); err != nil {
			t.Fatalf("slip: %v", err)
		}
	}
	if got, want := buf.String(), "score -2  habits 0  focus 0  slips 2\n"; got != want {
		t.Fatalf("unexpected output %q, want %q", got, want)
	}

	buf.Reset()
	if err := (&Slip{Service: svc, Printer: pp, Undo: true, JSON: true}).Do(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	var got entry.DailyLogEntry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	want := entry.DailyLogEntry{Date: "2025-01-06", PenalizedUnitCount: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected entry (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), `"penalizedUnitCount": 1`) {
		t.Fatalf("expected indented JSON, got %q", buf.String())
	}
}

func TestSlipNeedsService(t *testing.T) {
	if err := (&Slip{}).Do(context.Background()); err == nil {
		t.Fatalf("expected an error without a service")
	}
}
