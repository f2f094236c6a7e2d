package runner

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShotWriterNamesAndCounts(t *testing.T) {
	dir := t.TempDir()
	w := newShotWriter(dir, nil)

	p1, err := w.save("dashboard", pngBytes(64, 48))
	require.NoError(t, err)
	p2, err := w.save("daily-costs", pngBytes(64, 48))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "shot-001-dashboard.png"), p1)
	assert.Equal(t, filepath.Join(dir, "shot-002-daily-costs.png"), p2)
	require.FileExists(t, p1)
	require.FileExists(t, p2)
}

func TestShotWriterShrinksWideFrames(t *testing.T) {
	dir := t.TempDir()
	w := newShotWriter(dir, nil)
	w.maxWidth = 100

	path, err := w.save("wide", pngBytes(400, 200))
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestShotWriterKeepsUndecodableBytes(t *testing.T) {
	dir := t.TempDir()
	w := newShotWriter(dir, nil)

	raw := []byte("not a png")
	path, err := w.save("broken", raw)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}
