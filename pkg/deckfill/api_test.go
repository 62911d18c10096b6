package deckfill

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTempDeck writes a single-slide deck to a temp file and returns its path.
func writeTempDeck(t *testing.T, runTexts ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "template.pptx")
	err := os.WriteFile(path, createSimpleDeckBytes(runTexts...), 0o644)
	require.NoError(t, err, "failed to write temp deck")
	return path
}

func TestEnginePrepareFileCachesTemplates(t *testing.T) {
	engine := NewWithOptions(WithCache(5, time.Minute))
	defer engine.Close()

	path := writeTempDeck(t, "Hello {{name}}!")

	first, err := engine.PrepareFile(path)
	require.NoError(t, err)

	second, err := engine.PrepareFile(path)
	require.NoError(t, err)

	assert.Same(t, first, second, "second PrepareFile should return the cached template")
	assert.Equal(t, 1, engine.CacheSize())
}

func TestEnginePrepareFileCacheDisabled(t *testing.T) {
	engine := NewWithOptions(WithCache(0, 0))
	defer engine.Close()

	path := writeTempDeck(t, "Hello {{name}}!")

	first, err := engine.PrepareFile(path)
	require.NoError(t, err)
	defer first.Close()

	second, err := engine.PrepareFile(path)
	require.NoError(t, err)
	defer second.Close()

	assert.NotSame(t, first, second, "a disabled cache must prepare fresh templates")
	assert.Equal(t, 0, engine.CacheSize())
}

func TestEnginePrepareFileMissingFile(t *testing.T) {
	engine := New()
	defer engine.Close()

	_, err := engine.PrepareFile(filepath.Join(t.TempDir(), "no-such-deck.pptx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open template file")
}

func TestEngineClearCache(t *testing.T) {
	engine := NewWithOptions(WithCache(5, time.Minute))
	defer engine.Close()

	path := writeTempDeck(t, "Hello {{name}}!")

	_, err := engine.PrepareFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, engine.CacheSize())

	engine.ClearCache()
	assert.Equal(t, 0, engine.CacheSize())
}

func TestEngineCloseClosesCachedTemplates(t *testing.T) {
	engine := NewWithOptions(WithCache(5, time.Minute))

	path := writeTempDeck(t, "Hello {{name}}!")

	tmpl, err := engine.PrepareFile(path)
	require.NoError(t, err)

	require.NoError(t, engine.Close())

	_, err = tmpl.Render(Context{"name": "Alice"})
	assert.ErrorIs(t, err, ErrNilTemplate, "cached templates are closed with the engine")
}

func TestEngineConfig(t *testing.T) {
	config := &Config{
		OutputDir:    "renders",
		LogLevel:     "debug",
		CacheMaxSize: 3,
		CacheTTL:     time.Minute,
	}

	engine := NewWithConfig(config)
	defer engine.Close()

	assert.Equal(t, config, engine.Config())
}

func TestNewWithConfigNilFallsBackToDefaults(t *testing.T) {
	engine := NewWithConfig(nil)
	defer engine.Close()

	require.NotNil(t, engine.Config())
	assert.Equal(t, "output", engine.Config().OutputDir)
}

func TestNewWithOptions(t *testing.T) {
	logger, err := NewLogger("error")
	require.NoError(t, err)

	config := DefaultConfig()
	config.CacheMaxSize = 2

	engine := NewWithOptions(WithConfig(config), WithLogger(logger))
	defer engine.Close()

	assert.Equal(t, 2, engine.Config().CacheMaxSize)
	assert.Same(t, logger, engine.logger)
}

func TestEnginePrepareAndRender(t *testing.T) {
	engine := New()
	defer engine.Close()

	tmpl, err := engine.Prepare(bytes.NewReader(createSimpleDeckBytes("Hello {{name}}!")))
	require.NoError(t, err)
	defer tmpl.Close()

	output, err := tmpl.Render(Context{"name": "Alice"})
	require.NoError(t, err)

	var rendered bytes.Buffer
	_, err = rendered.ReadFrom(output)
	require.NoError(t, err)

	slide := readDeckPart(t, rendered.Bytes(), "ppt/slides/slide1.xml")
	assert.Contains(t, string(slide), "Hello Alice!")
}

func TestModuleLevelConvenienceFunctions(t *testing.T) {
	path := writeTempDeck(t, "Hello {{name}}!")

	tmpl, err := PrepareFile(path)
	require.NoError(t, err)
	require.NotNil(t, tmpl)

	fresh, err := Prepare(bytes.NewReader(createSimpleDeckBytes("{{greeting}}")))
	require.NoError(t, err)
	defer fresh.Close()

	ClearCache()
	assert.Equal(t, 0, DefaultEngine.CacheSize())
}
