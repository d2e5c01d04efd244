// Package placeholder renders the frame shown in place of the live feed while
// the camera is idle.
package placeholder

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	Width  = 640
	Height = 480

	// Caption is drawn centred on the frame.
	Caption = "Camera feed will appear here"
)

var (
	once    sync.Once
	cached  []byte
	encErr  error
	bgColor = color.RGBA{R: 33, G: 37, B: 41, A: 255}
	fgColor = color.RGBA{R: 173, G: 181, B: 189, A: 255}
)

// JPEG returns the encoded placeholder. The frame is rendered once per
// process.
func JPEG() ([]byte, error) {
	once.Do(func() {
		cached, encErr = Render(Width, Height, Caption)
	})
	return cached, encErr
}

// Render draws caption centred on a dark width x height frame.
func Render(width, height int, caption string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bgColor}, image.Point{}, draw.Src)

	// Frame border
	for x := range width {
		img.Set(x, 0, fgColor)
		img.Set(x, height-1, fgColor)
	}
	for y := range height {
		img.Set(0, y, fgColor)
		img.Set(width-1, y, fgColor)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fgColor),
		Face: face,
	}
	textWidth := d.MeasureString(caption)
	x := (fixed.I(width) - textWidth) / 2
	y := fixed.I(height/2) + fixed.I(face.Ascent)/2
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(caption)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
