//go:build linux

package display

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Framebuffer presents frames on a memory-mapped /dev/fbN device.
type Framebuffer struct {
	f       *os.File
	mem     []byte
	scratch []byte
	geo     fbGeometry
}

func OpenFramebuffer(dev string) (*Framebuffer, error) {
	geo, err := readFBGeometry(filepath.Join("/sys/class/graphics", filepath.Base(dev)))
	if err != nil {
		return nil, fmt.Errorf("framebuffer %s geometry: %w", dev, err)
	}

	f, err := os.OpenFile(dev, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, geo.size(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap framebuffer: %w", err)
	}

	return &Framebuffer{f: f, mem: mem, scratch: make([]byte, len(mem)), geo: geo}, nil
}

func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.geo.width, fb.geo.height)
}

// Present encodes off-screen and copies the finished frame into video memory.
func (fb *Framebuffer) Present(img image.Image) error {
	encodeFrame(fb.scratch, img, fb.geo)
	copy(fb.mem, fb.scratch)
	return nil
}

func (fb *Framebuffer) Close() error {
	if err := unix.Munmap(fb.mem); err != nil {
		_ = fb.f.Close()
		return fmt.Errorf("munmap framebuffer: %w", err)
	}
	return fb.f.Close()
}
