package display

import (
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// OLED presents frames on an SSD1306 panel. Frames are scaled down to the
// panel and thresholded to one bit per pixel.
type OLED struct {
	bus  i2c.BusCloser
	dev  *ssd1306.Dev
	gray *image.Gray
	mono *image1bit.VerticalLSB
}

func OpenOLED(busName string) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("ssd1306: %w", err)
	}
	r := dev.Bounds()
	return &OLED{
		bus:  bus,
		dev:  dev,
		gray: image.NewGray(r),
		mono: image1bit.NewVerticalLSB(r),
	}, nil
}

func (o *OLED) Bounds() image.Rectangle { return o.dev.Bounds() }

func (o *OLED) Present(img image.Image) error {
	xdraw.ApproxBiLinear.Scale(o.gray, o.gray.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	draw.Draw(o.mono, o.mono.Bounds(), o.gray, image.Point{}, draw.Src)
	if err := o.dev.Draw(o.mono.Bounds(), o.mono, image.Point{}); err != nil {
		return fmt.Errorf("ssd1306 draw: %w", err)
	}
	return nil
}

func (o *OLED) Close() error {
	if err := o.dev.Halt(); err != nil {
		_ = o.bus.Close()
		return err
	}
	return o.bus.Close()
}
