package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNGFile writes every presented frame to a PNG file. The file is replaced
// atomically so readers never see a half written image.
type PNGFile struct {
	path string
}

func NewPNGFile(path string) *PNGFile {
	return &PNGFile{path: path}
}

func (p *PNGFile) Bounds() image.Rectangle {
	return image.Rect(0, 0, 320, 240)
}

func (p *PNGFile) Present(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close frame file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("replace %s: %w", p.path, err)
	}
	return nil
}
