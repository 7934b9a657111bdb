//go:build !linux

package display

import (
	"errors"
	"image"
)

type Framebuffer struct{}

func OpenFramebuffer(string) (*Framebuffer, error) {
	return nil, errors.New("framebuffer display is only supported on linux")
}

func (*Framebuffer) Bounds() image.Rectangle   { return image.Rectangle{} }
func (*Framebuffer) Present(image.Image) error { return errors.New("framebuffer not open") }
func (*Framebuffer) Close() error              { return nil }
