package display

import (
	"encoding/binary"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// fbGeometry describes a Linux framebuffer as exported in sysfs.
type fbGeometry struct {
	width, height int
	stride        int
	bpp           int
}

func (g fbGeometry) size() int { return g.stride * g.height }

// readFBGeometry reads /sys/class/graphics/<fbN>/{virtual_size,bits_per_pixel,stride}.
func readFBGeometry(sysfsDir string) (fbGeometry, error) {
	var g fbGeometry

	vs, err := readSysfs(filepath.Join(sysfsDir, "virtual_size"))
	if err != nil {
		return g, err
	}
	w, h, ok := strings.Cut(vs, ",")
	if !ok {
		return g, fmt.Errorf("virtual_size %q: want WIDTH,HEIGHT", vs)
	}
	if g.width, err = strconv.Atoi(w); err != nil {
		return g, fmt.Errorf("virtual_size width %q: %w", w, err)
	}
	if g.height, err = strconv.Atoi(h); err != nil {
		return g, fmt.Errorf("virtual_size height %q: %w", h, err)
	}

	bpp, err := readSysfs(filepath.Join(sysfsDir, "bits_per_pixel"))
	if err != nil {
		return g, err
	}
	if g.bpp, err = strconv.Atoi(bpp); err != nil {
		return g, fmt.Errorf("bits_per_pixel %q: %w", bpp, err)
	}
	if g.bpp != 16 && g.bpp != 32 {
		return g, fmt.Errorf("unsupported framebuffer depth %d bpp", g.bpp)
	}

	stride, err := readSysfs(filepath.Join(sysfsDir, "stride"))
	if err != nil {
		// Older kernels lack the stride attribute.
		g.stride = g.width * g.bpp / 8
	} else if g.stride, err = strconv.Atoi(stride); err != nil {
		return g, fmt.Errorf("stride %q: %w", stride, err)
	}
	return g, nil
}

func readSysfs(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// encodeFrame converts img into the framebuffer pixel layout. Pixels outside
// the framebuffer are dropped.
func encodeFrame(dst []byte, img image.Image, g fbGeometry) {
	b := img.Bounds()
	w := min(b.Dx(), g.width)
	h := min(b.Dy(), g.height)
	for y := 0; y < h; y++ {
		row := dst[y*g.stride:]
		for x := 0; x < w; x++ {
			r, gr, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			switch g.bpp {
			case 16:
				px := uint16(r>>11)<<11 | uint16(gr>>10)<<5 | uint16(bl>>11)
				binary.LittleEndian.PutUint16(row[x*2:], px)
			case 32:
				o := x * 4
				row[o] = byte(bl >> 8)
				row[o+1] = byte(gr >> 8)
				row[o+2] = byte(r >> 8)
				row[o+3] = 0xFF
			}
		}
	}
}
