package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"
)

const rootNamespace = "_"

// Load creates a Store backed by diskv using the provided config.
func Load(cfg Config) (*Disk, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}

	return &Disk{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		// Writes land in a sibling directory first and are renamed into place.
		TempDir: filepath.Clean(basePath) + ".tmp",
		// Other processes write the same files, so reads always go to disk.
		CacheSizeMax: 0,
	}), basePath: basePath, log: zap.NewNop()}, nil
}

// Disk is a Store persisted as one file per key below a base directory.
type Disk struct {
	d        *diskv.Diskv
	basePath string
	log      *zap.Logger
}

var _ Store = (*Disk)(nil)
var _ Watcher = (*Disk)(nil)

// SetLogger routes watcher diagnostics to l.
func (p *Disk) SetLogger(l *zap.Logger) {
	if l != nil {
		p.log = l
	}
}

// BasePath reports the directory holding the store.
func (p *Disk) BasePath() string {
	return p.basePath
}

func (p *Disk) Get(_ context.Context, key string, v any) error {
	val, err := p.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("store: read %q: %w: %w", key, ErrUnavailable, err)
	}
	if len(val) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(val, v); err != nil {
		return fmt.Errorf("store: decode %q: %w: %w", key, ErrMalformed, err)
	}
	return nil
}

func (p *Disk) Set(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	if err := p.d.Write(key, data); err != nil {
		return fmt.Errorf("store: write %q: %w: %w", key, ErrUnavailable, err)
	}
	return nil
}

func (p *Disk) Remove(_ context.Context, key string) error {
	if !p.d.Has(key) {
		return nil
	}
	if err := p.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: erase %q: %w: %w", key, ErrUnavailable, err)
	}
	return nil
}

func (p *Disk) Clear(ctx context.Context) error {
	keys, err := p.Keys(ctx, "")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := p.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (p *Disk) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	for key := range p.d.Keys(ctx.Done()) {
		if key != "" && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// keyToPathTransform files `ns.rest` as `<ns>/<base64(rest)>` so keys may
// carry spaces and slashes, as locale formatted dates do.
func keyToPathTransform(key string) *diskv.PathKey {
	ns, rest, ok := strings.Cut(key, ".")
	if !ok {
		ns, rest = rootNamespace, key
	}
	return &diskv.PathKey{
		Path:     []string{ns},
		FileName: base64.RawURLEncoding.EncodeToString([]byte(rest)),
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	rest, err := base64.RawURLEncoding.DecodeString(pathKey.FileName)
	if err != nil {
		return ""
	}
	if len(pathKey.Path) == 0 || pathKey.Path[0] == rootNamespace {
		return string(rest)
	}
	return fmt.Sprintf("%s.%s", strings.Join(pathKey.Path, "."), rest)
}
