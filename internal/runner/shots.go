package runner

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/nfnt/resize"
)

// shotWriter names and persists screenshots: a monotonic counter plus the
// originating target id, so files sort in capture order and still say where
// they came from.
type shotWriter struct {
	dir      string
	log      *log.Logger
	maxWidth uint
	counter  int
}

func newShotWriter(dir string, logger *log.Logger) *shotWriter {
	return &shotWriter{dir: dir, log: logger, maxWidth: 1280}
}

// save writes one PNG capture, downscaling wide frames to keep run
// artifacts small. Bytes that do not decode are written untouched: corrupt
// evidence still beats no evidence.
func (w *shotWriter) save(targetID string, data []byte) (string, error) {
	w.counter++
	name := fmt.Sprintf("shot-%03d-%s.png", w.counter, targetID)
	path := filepath.Join(w.dir, name)

	if shrunk, err := w.shrink(data); err == nil {
		data = shrunk
	} else if w.log != nil {
		w.log.Debug("screenshot kept at full size", "error", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

func (w *shotWriter) shrink(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if uint(bounds.Dx()) <= w.maxWidth {
		return data, nil
	}

	// Scale down preserving aspect ratio.
	aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
	outputHeight := uint(float64(w.maxWidth) * aspectRatio)
	resized := resize.Resize(w.maxWidth, outputHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
