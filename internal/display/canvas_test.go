package display

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"cloudpico-handheld/internal/panel"
)

// recordingSink keeps a private copy of every presented image.
type recordingSink struct {
	frames []*image.RGBA
	seen   []image.Image
	err    error
}

func (s *recordingSink) Bounds() image.Rectangle {
	return image.Rect(0, 0, panel.ScreenWidth, panel.ScreenHeight)
}

func (s *recordingSink) Present(img image.Image) error {
	if s.err != nil {
		return s.err
	}
	cp := image.NewRGBA(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			cp.Set(x, y, img.At(x, y))
		}
	}
	s.frames = append(s.frames, cp)
	s.seen = append(s.seen, img)
	return nil
}

func countColor(img *image.RGBA, c color.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestCanvas_PresentsOncePerDraw(t *testing.T) {
	sink := &recordingSink{}
	c := NewCanvas(sink)

	frames := []panel.Frame{
		panel.ShutdownFrame(),
		panel.FatalFrame("Failed to add ENV4!"),
		panel.ReadyFrame(),
	}
	for _, f := range frames {
		if err := c.Draw(f); err != nil {
			t.Fatalf("Draw() error: %v", err)
		}
	}
	if len(sink.frames) != len(frames) {
		t.Fatalf("Present called %d times, want %d", len(sink.frames), len(frames))
	}
	// Consecutive presents must come from different buffers.
	for i := 1; i < len(sink.seen); i++ {
		if sink.seen[i] == sink.seen[i-1] {
			t.Errorf("present %d reused the buffer just shown", i)
		}
	}
}

func TestCanvas_FrameFullyPainted(t *testing.T) {
	sink := &recordingSink{}
	c := NewCanvas(sink)

	if err := c.Draw(panel.FatalFrame("x")); err != nil {
		t.Fatal(err)
	}
	if err := c.Draw(panel.ShutdownFrame()); err != nil {
		t.Fatal(err)
	}
	if err := c.Draw(panel.ReadyFrame()); err != nil {
		t.Fatal(err)
	}
	// The third frame reuses the first buffer; no red from the fatal screen
	// may survive underneath it.
	if n := countColor(sink.frames[2], panel.Red); n != 0 {
		t.Errorf("ready frame still has %d red pixels from an older frame", n)
	}
}

func TestCanvas_PresentError(t *testing.T) {
	sink := &recordingSink{err: errors.New("bus gone")}
	c := NewCanvas(sink)
	if err := c.Draw(panel.ReadyFrame()); err == nil {
		t.Fatal("Draw() error = nil, want present failure")
	}
}

func TestRasterize_Deterministic(t *testing.T) {
	f := panel.Render(panel.Scene{
		Mode:    panel.SensorDashboard,
		Reading: panel.SensorReading{Humidity: 55.3, Temperature: 21.7, Pressure: 1013.2},
		TimeOK:  true,
		Time:    panel.TimeSnapshot{Year: 2024, Month: 1, Day: 15, Hour: 9, Minute: 5, Second: 3},
	})
	r := image.Rect(0, 0, panel.ScreenWidth, panel.ScreenHeight)
	a, b := image.NewRGBA(r), image.NewRGBA(r)
	Rasterize(a, f)
	Rasterize(b, panel.ShutdownFrame())
	Rasterize(b, f)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("same frame rasterised to different pixels")
	}
	if countColor(a, panel.Cyan) == 0 {
		t.Error("humidity text left no cyan pixels")
	}
}

func TestRasterize_LargeTextScales(t *testing.T) {
	r := image.Rect(0, 0, panel.ScreenWidth, panel.ScreenHeight)
	small, big := image.NewRGBA(r), image.NewRGBA(r)
	Rasterize(small, panel.Frame{Background: panel.Black, Texts: []panel.Text{{X: 10, Y: 10, Size: 1, Color: panel.White, Body: "Power Off..."}}})
	Rasterize(big, panel.Frame{Background: panel.Black, Texts: []panel.Text{{X: 10, Y: 10, Size: 3, Color: panel.White, Body: "Power Off..."}}})

	s, b := countColor(small, panel.White), countColor(big, panel.White)
	if s == 0 || b != s*9 {
		t.Errorf("white pixels: size 1 = %d, size 3 = %d, want 9x", s, b)
	}
}

func TestRasterize_LineClipped(t *testing.T) {
	r := image.Rect(0, 0, 20, 20)
	img := image.NewRGBA(r)
	Rasterize(img, panel.Frame{
		Background: panel.Black,
		Lines:      []panel.Line{{X0: -5, Y0: 10, X1: 40, Y1: 10, Color: panel.Blue}},
	})
	if n := countColor(img, panel.Blue); n != 20 {
		t.Errorf("clipped line painted %d pixels, want 20", n)
	}
}

func TestEncodeFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{B: 255, A: 255})

	t.Run("rgb565", func(t *testing.T) {
		g := fbGeometry{width: 2, height: 1, stride: 8, bpp: 16}
		buf := make([]byte, g.size())
		encodeFrame(buf, img, g)
		want := []byte{0x00, 0xF8, 0x1F, 0x00, 0, 0, 0, 0}
		if !bytes.Equal(buf, want) {
			t.Errorf("rgb565 = % x, want % x", buf, want)
		}
	})

	t.Run("xrgb8888", func(t *testing.T) {
		g := fbGeometry{width: 1, height: 1, stride: 4, bpp: 32}
		buf := make([]byte, g.size())
		encodeFrame(buf, img, g)
		want := []byte{0x00, 0x00, 0xFF, 0xFF}
		if !bytes.Equal(buf, want) {
			t.Errorf("xrgb8888 = % x, want % x", buf, want)
		}
	})
}

func TestReadFBGeometry(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("virtual_size", "320,240\n")
	write("bits_per_pixel", "16\n")

	g, err := readFBGeometry(dir)
	if err != nil {
		t.Fatalf("readFBGeometry() error: %v", err)
	}
	if g != (fbGeometry{width: 320, height: 240, stride: 640, bpp: 16}) {
		t.Errorf("geometry = %+v", g)
	}

	write("bits_per_pixel", "8\n")
	if _, err := readFBGeometry(dir); err == nil {
		t.Error("8 bpp accepted")
	}
}

func TestPNGFile_Present(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.png")
	c := NewCanvas(NewPNGFile(path))
	if err := c.Draw(panel.ReadyFrame()); err != nil {
		t.Fatalf("Draw() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(panel.ScreenWidth, panel.ScreenHeight) {
		t.Errorf("png size = %v", got)
	}
	if r, g, b, _ := img.At(0, 0).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Errorf("background = %d,%d,%d, want black", r>>8, g>>8, b>>8)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, temp file left behind", len(entries))
	}
}
