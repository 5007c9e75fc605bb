// Package content holds the site's step catalogs, example snippets and
// documentation pages. They are embedded in the binary and can be replaced by
// a directory with the same layout while editing.
package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/manuschillerdev/doklab-site/internal/scrolly"
)

//go:embed catalogs/*.yaml snippets docs static
var embedded embed.FS

// Paths inside a content tree.
const (
	ComposeCatalogPath  = "catalogs/compose.yaml"
	ConfigCatalogPath   = "catalogs/config.yaml"
	ExampleComposePath  = "snippets/compose.yaml"
	ExampleTerminalPath = "snippets/terminal.sh"
	DocsDir             = "docs"
	StaticDir           = "static"
)

// Embedded returns the content tree compiled into the binary.
func Embedded() fs.FS {
	return embedded
}

// Open returns the content tree rooted at dir, or the embedded tree when dir
// is empty.
func Open(dir string) (fs.FS, error) {
	if dir == "" {
		return embedded, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content dir %s: not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// Bundle is one consistent snapshot of the content tree.
type Bundle struct {
	Compose         *scrolly.Catalog
	Config          *scrolly.Catalog
	ExampleCompose  string
	ExampleTerminal string
	Docs            fs.FS
	// Static holds images served from the site root.
	Static fs.FS
	// Dangling joins every ErrDanglingRef found in step descriptions.
	// Selecting such a reference on the page does nothing.
	Dangling error
}

// Load reads every catalog and snippet from fsys. Cross-references that name
// missing tabs do not fail the load; they are reported in Bundle.Dangling.
func Load(fsys fs.FS) (*Bundle, error) {
	compose, err := scrolly.LoadCatalog(fsys, ComposeCatalogPath)
	if err != nil {
		return nil, err
	}
	config, err := scrolly.LoadCatalog(fsys, ConfigCatalogPath)
	if err != nil {
		return nil, err
	}
	dangling := errors.Join(scrolly.CheckRefs(compose), scrolly.CheckRefs(config))

	example, err := fs.ReadFile(fsys, ExampleComposePath)
	if err != nil {
		return nil, err
	}
	terminal, err := fs.ReadFile(fsys, ExampleTerminalPath)
	if err != nil {
		return nil, err
	}

	docs, err := fs.Sub(fsys, DocsDir)
	if err != nil {
		return nil, err
	}

	static, err := fs.Sub(fsys, StaticDir)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Compose:         compose,
		Config:          config,
		ExampleCompose:  string(example),
		ExampleTerminal: string(terminal),
		Docs:            docs,
		Static:          static,
		Dangling:        dangling,
	}, nil
}

// Store holds the current bundle. Readers always see a complete bundle; a
// reload swaps it atomically.
type Store struct {
	fsys    fs.FS
	current atomic.Pointer[Bundle]
}

// NewStore loads fsys and returns a store holding the result.
func NewStore(fsys fs.FS) (*Store, error) {
	b, err := Load(fsys)
	if err != nil {
		return nil, err
	}
	s := &Store{fsys: fsys}
	s.current.Store(b)
	return s, nil
}

// Current returns the latest bundle.
func (s *Store) Current() *Bundle {
	return s.current.Load()
}

// Reload loads the content tree again. On error the previous bundle stays
// current.
func (s *Store) Reload() (*Bundle, error) {
	b, err := Load(s.fsys)
	if err != nil {
		return nil, err
	}
	s.current.Store(b)
	return b, nil
}

// Restore makes b current again, undoing a Reload whose dependents failed.
func (s *Store) Restore(b *Bundle) {
	if b != nil {
		s.current.Store(b)
	}
}
