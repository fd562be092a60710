package pongo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-crudgen/pkg/render/template"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir string
	sources []fs.FS
	globals pongo2.Context
}

// WithBaseDir searches a directory on disk before any fs.FS source.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS adds a template source. Sources are searched in the order they are
// added.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.sources = append(cfg.sources, files)
		}
	}
}

// WithGlobals makes values available to every template. Functions become
// callable from templates; a function may return a second error value to
// abort the render.
func WithGlobals(globals map[string]any) Option {
	return func(cfg *config) {
		for key, value := range globals {
			if key = strings.TrimSpace(key); key != "" {
				cfg.globals[key] = value
			}
		}
	}
}

// Engine renders Django syntax templates with pongo2, searching its sources
// in order.
type Engine struct {
	mu      sync.RWMutex
	set     *pongo2.TemplateSet
	cache   map[string]*pongo2.Template
	sources []fs.FS
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an engine. At least one source is required.
func New(opts ...Option) (*Engine, error) {
	cfg := &config{globals: pongo2.Context{}}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.baseDir == "" && len(cfg.sources) == 0 {
		return nil, errors.New("pongo: need a base dir or at least one fs.FS")
	}

	var (
		loaders []pongo2.TemplateLoader
		sources []fs.FS
	)
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: base dir %q: %w", cfg.baseDir, err)
		}
		loaders = append(loaders, loader)
		sources = append(sources, os.DirFS(cfg.baseDir))
	}
	for _, files := range cfg.sources {
		loaders = append(loaders, pongo2.NewFSLoader(files))
		sources = append(sources, files)
	}

	set := pongo2.NewSet("crudgen", loaders...)
	set.Globals.Update(cfg.globals)
	return &Engine{
		set:     set,
		cache:   make(map[string]*pongo2.Template),
		sources: sources,
	}, nil
}

// RenderTemplate executes the named template with data.
func (e *Engine) RenderTemplate(name string, data map[string]any) (string, error) {
	name = clean(name)
	tmpl, err := e.load(name)
	if err != nil {
		return "", err
	}

	ctx := pongo2.Context{}
	for key, value := range data {
		if key = strings.TrimSpace(key); key != "" {
			ctx[key] = value
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("pongo: execute %q: %w", name, err)
	}
	return buf.String(), nil
}

// Exists reports whether any source holds the named template.
func (e *Engine) Exists(name string) bool {
	name = clean(name)

	e.mu.RLock()
	_, cached := e.cache[name]
	e.mu.RUnlock()
	if cached {
		return true
	}

	for _, source := range e.sources {
		if info, err := fs.Stat(source, name); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

func (e *Engine) load(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("pongo: load %q: %w", name, err)
	}
	e.cache[name] = tmpl
	return tmpl, nil
}

func clean(name string) string {
	return path.Clean(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}
