// Package key provides CLI helpers to display the habit icon legend.
package key

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/score"
)

// Key prints the icon legend and the scoring rules.
type Key struct {
	// Out defaults to color.Output.
	Out io.Writer
}

// Do renders the icon and scoring keys.
func (k *Key) Do(ctx context.Context) error {
	w := k.Out
	if w == nil {
		w = color.Output
	}
	_, _ = fmt.Fprintln(w, "")
	k.Icons(ctx, w, entry.Icons())
	_, _ = fmt.Fprintln(w, "")
	k.Scoring(ctx, w)
	_, _ = fmt.Fprintln(w, "")
	return nil
}

// Icons renders an icon table.
func (k *Key) Icons(_ context.Context, w io.Writer, icons []entry.Icon) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Icon"), bold.Sprint("Name"), bold.Sprint("Meaning"))
	for _, i := range icons {
		tbl.AddRow(i.Symbol(), string(i), i.Meaning())
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(w, tbl)
}

// Scoring renders how a day's score is computed.
func (k *Key) Scoring(_ context.Context, w io.Writer) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Points"), bold.Sprint("For"))
	tbl.AddRow("+2", "each completed habit")
	tbl.AddRow("+1", "each completed focus session")
	tbl.AddRow("-1", "each slip")
	tbl.AddRow(fmt.Sprintf("%d+", score.QualifyingScore), "keeps the streak going")
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(w, tbl)
}
