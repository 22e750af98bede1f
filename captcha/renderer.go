package captcha

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	// MIMEType is the only format the renderer produces.
	MIMEType = "image/png"

	padding     = 10
	minFontSize = 10
	maxTilt     = 3

	noiseMin = 100
	noiseMax = 200
)

// Image is a rendered challenge. It is never persisted.
type Image struct {
	MIME  string
	Bytes []byte
}

// DataURI encodes the image as data:image/png;base64,....
func (img *Image) DataURI() string {
	return "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes)
}

// Layout describes where the text lands on the canvas.
type Layout struct {
	FontSize int
	Angle    float64 // degrees
	// Width and Height are the ink box of the unrotated text.
	Width, Height float64
	// Ascent is the distance from the baseline to the top of the ink box.
	Ascent float64
	// Left is the ink box's offset from the drawing origin.
	Left float64
	// X and Baseline are the drawing origin.
	X, Baseline float64
}

// Renderer draws challenge text into noisy PNG images.
type Renderer struct {
	fonts *FontLoader
	src   Source
}

// NewRenderer returns a Renderer drawing randomness from crypto/rand.
func NewRenderer(fonts *FontLoader) *Renderer {
	return NewRendererWithSource(fonts, CryptoSource)
}

// NewRendererWithSource uses src for noise and tilt.
func NewRendererWithSource(fonts *FontLoader, src Source) *Renderer {
	if fonts == nil {
		fonts = NewFontLoader(nil)
	}
	return &Renderer{fonts: fonts, src: src}
}

// Render rasterizes display using opts' canvas, font and noise settings.
func (r *Renderer) Render(display string, opts Options) (*Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas must be positive, got %dx%d", ErrRender, opts.Width, opts.Height)
	}
	if opts.FontSize <= 0 {
		return nil, fmt.Errorf("%w: font_size must be positive, got %d", ErrConfig, opts.FontSize)
	}
	ttf, err := r.fonts.Load(opts.Font)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if err := r.noise(dc, opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	tilt, err := between(r.src, -maxTilt, maxTilt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	face, layout := fit(ttf, display, opts, float64(tilt))
	defer face.Close()

	dc.Push()
	dc.SetFontFace(face)
	dc.SetRGB(0, 0, 0)
	dc.RotateAbout(gg.Radians(layout.Angle), float64(opts.Width)/2, float64(opts.Height)/2)
	dc.DrawString(display, layout.X, layout.Baseline)
	dc.Pop()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRender, err)
	}
	return &Image{MIME: MIMEType, Bytes: buf.Bytes()}, nil
}

func (r *Renderer) noise(dc *gg.Context, opts Options) error {
	w, h := opts.Width, opts.Height
	dc.SetLineWidth(1)
	for i := 0; i < opts.Lines; i++ {
		if err := r.noiseColor(dc); err != nil {
			return err
		}
		var p [4]int
		for j := range p {
			limit := w
			if j%2 == 1 {
				limit = h
			}
			v, err := between(r.src, 0, limit)
			if err != nil {
				return err
			}
			p[j] = v
		}
		dc.DrawLine(float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3]))
		dc.Stroke()
	}
	for i := 0; i < opts.Dots; i++ {
		if err := r.noiseColor(dc); err != nil {
			return err
		}
		x, err := between(r.src, 0, w-1)
		if err != nil {
			return err
		}
		y, err := between(r.src, 0, h-1)
		if err != nil {
			return err
		}
		dc.SetPixel(x, y)
	}
	return nil
}

func (r *Renderer) noiseColor(dc *gg.Context) error {
	var c [3]int
	for i := range c {
		v, err := between(r.src, noiseMin, noiseMax)
		if err != nil {
			return err
		}
		c[i] = v
	}
	dc.SetRGB255(c[0], c[1], c[2])
	return nil
}

// fit starts at opts.FontSize and shrinks one point at a time until the
// tilted text fits the padded canvas or the floor is reached. At the
// floor, or when the configured size is already below it, it renders
// anyway. The caller owns the returned face.
func fit(ttf *truetype.Font, text string, opts Options, angle float64) (font.Face, Layout) {
	size := opts.FontSize
	maxW := float64(opts.Width - 2*padding)
	maxH := float64(opts.Height - padding)
	for {
		face := truetype.NewFace(ttf, &truetype.Options{Size: float64(size), DPI: 72})
		l := measure(face, text, angle)
		w, h := rotatedBox(l.Width, l.Height, angle)
		if (w <= maxW && h <= maxH) || size <= minFontSize {
			l.FontSize = size
			return face, place(l, opts.Width, opts.Height)
		}
		face.Close()
		size--
	}
}

func measure(face font.Face, text string, angle float64) Layout {
	b, _ := font.BoundString(face, text)
	return Layout{
		Angle:  angle,
		Width:  fixedToFloat(b.Max.X - b.Min.X),
		Height: fixedToFloat(b.Max.Y - b.Min.Y),
		Ascent: -fixedToFloat(b.Min.Y),
		Left:   fixedToFloat(b.Min.X),
	}
}

// place centers the ink box: x = (W - w)/2 and
// baseline = (H - h)/2 + ascent. Rotation happens about the canvas
// center so the tilted box stays centered too.
func place(l Layout, width, height int) Layout {
	l.X = (float64(width)-l.Width)/2 - l.Left
	l.Baseline = (float64(height)-l.Height)/2 + l.Ascent
	return l
}

// rotatedBox is the axis-aligned bounding box of a w×h rectangle
// rotated by deg degrees.
func rotatedBox(w, h, deg float64) (float64, float64) {
	rad := gg.Radians(deg)
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	return w*cos + h*sin, w*sin + h*cos
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
