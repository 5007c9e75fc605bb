package content

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuschillerdev/doklab-site/internal/scrolly"
)

func TestLoad_Embedded(t *testing.T) {
	b, err := Load(Embedded())
	require.NoError(t, err)

	assert.Equal(t, "compose", b.Compose.Name())
	assert.Equal(t, 11, b.Compose.Len())
	assert.Equal(t, "config", b.Config.Name())
	assert.Equal(t, 8, b.Config.Len())

	secrets, ok := b.Compose.Step(2)
	require.True(t, ok)
	assert.Equal(t, []string{"compose.yaml", ".env"}, secrets.TabNames())
	assert.Equal(t, []string{".env"}, scrolly.Refs(secrets.Description))

	for i := 0; i < b.Config.Len(); i++ {
		step, _ := b.Config.Step(i)
		assert.Equal(t, []string{"config.yaml"}, step.TabNames(), "config step %d", i)
	}

	assert.Contains(t, b.ExampleCompose, "doklab.route.host")
	assert.Contains(t, b.ExampleTerminal, "is live")

	_, err = fs.Stat(b.Docs, "index.md")
	assert.NoError(t, err)
	_, err = fs.Stat(b.Static, "icon.svg")
	assert.NoError(t, err)
}

func TestLoad_DanglingRef(t *testing.T) {
	fsys := fstest.MapFS{
		ComposeCatalogPath: {Data: []byte(`name: compose
steps:
  - title: One
    description: see [[missing.env]]
    tabs:
      - name: compose.yaml
        code: "services: {}"
`)},
		ConfigCatalogPath: {Data: []byte(`name: config
steps:
  - title: One
    tabs:
      - name: config.yaml
        code: "domain: x"
`)},
		ExampleComposePath:  {Data: []byte("services: {}")},
		ExampleTerminalPath: {Data: []byte("$ doklab")},
		"docs/index.md":     {Data: []byte("# Docs")},
	}

	b, err := Load(fsys)
	require.NoError(t, err)
	require.ErrorIs(t, b.Dangling, scrolly.ErrDanglingRef)
	assert.Contains(t, b.Dangling.Error(), `"missing.env"`)
	assert.Equal(t, 1, b.Compose.Len())
}

func TestLoad_MissingSnippet(t *testing.T) {
	fsys := fstest.MapFS{}
	for _, p := range []string{ComposeCatalogPath, ConfigCatalogPath} {
		data, err := fs.ReadFile(Embedded(), p)
		require.NoError(t, err)
		fsys[p] = &fstest.MapFile{Data: data}
	}

	_, err := Load(fsys)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpen(t *testing.T) {
	fsys, err := Open("")
	require.NoError(t, err)
	_, err = fs.Stat(fsys, ComposeCatalogPath)
	assert.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "catalogs"), 0o755))
	fsys, err = Open(dir)
	require.NoError(t, err)
	entries, err := fs.ReadDir(fsys, "catalogs")
	require.NoError(t, err)
	assert.Empty(t, entries)

	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = Open(file)
	assert.Error(t, err)

	_, err = Open(filepath.Join(dir, "nope"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStore_Reload(t *testing.T) {
	fsys := fstest.MapFS{}
	require.NoError(t, fs.WalkDir(Embedded(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(Embedded(), p)
		if err != nil {
			return err
		}
		fsys[p] = &fstest.MapFile{Data: data}
		return nil
	}))

	store, err := NewStore(fsys)
	require.NoError(t, err)
	first := store.Current()
	assert.Equal(t, 11, first.Compose.Len())

	fsys[ExampleTerminalPath] = &fstest.MapFile{Data: []byte("$ doklab up")}
	b, err := store.Reload()
	require.NoError(t, err)
	assert.Same(t, b, store.Current())
	assert.Equal(t, "$ doklab up", store.Current().ExampleTerminal)

	delete(fsys, ConfigCatalogPath)
	_, err = store.Reload()
	require.Error(t, err)
	assert.Same(t, b, store.Current(), "a failed reload keeps the last good bundle")
}
