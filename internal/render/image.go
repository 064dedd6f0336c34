package render

import (
	"bytes"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/xfmoulet/qoi"

	"github.com/inkframe/eink-renderer/internal/canonical"
)

// Format selects the encoding of a rendered image. Clients declare what they
// accept; PNG is the general-purpose default, QOI the compact alternative.
type Format int

const (
	FormatPNG Format = iota
	FormatQOI
)

// ContentType is the MIME type of the encoding.
func (f Format) ContentType() string {
	if f == FormatQOI {
		return "image/qoi"
	}
	return "image/png"
}

func (f Format) String() string {
	if f == FormatQOI {
		return "qoi"
	}
	return "png"
}

// Image is a decoded in-memory bitmap. Transforms return new values and
// leave the receiver untouched.
type Image struct {
	inner image.Image
}

// FromPNG decodes raw capture bytes.
func FromPNG(data []byte) (*Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, canonical.Wrap(canonical.InternalRender,
			"The captured screenshot could not be decoded.", err)
	}
	return &Image{inner: img}, nil
}

// FromImage wraps an already decoded bitmap, used by tests.
func FromImage(img image.Image) *Image {
	return &Image{inner: img}
}

// Bounds is the pixel extent of the bitmap.
func (i *Image) Bounds() image.Rectangle {
	return i.inner.Bounds()
}

// Grayscale converts to single-channel brightness. E-ink panels are
// monochrome; color survives the capture but not the display.
func (i *Image) Grayscale() *Image {
	return &Image{inner: imaging.Grayscale(i.inner)}
}

// Sharpen applies a light unsharp mask so text stays legible after the panel
// quantizes the image.
func (i *Image) Sharpen() *Image {
	return &Image{inner: imaging.Sharpen(i.inner, 1.5)}
}

// Encode serializes the bitmap in the requested format.
func (i *Image) Encode(w io.Writer, format Format) error {
	var err error
	switch format {
	case FormatQOI:
		err = qoi.Encode(w, i.inner)
	default:
		err = png.Encode(w, i.inner)
	}
	if err != nil {
		return canonical.Wrap(canonical.InternalRender,
			"The rendered image could not be encoded.", err)
	}
	return nil
}

// Decode reads back an encoded image, the inverse of Encode.
func Decode(r io.Reader, format Format) (*Image, error) {
	var (
		img image.Image
		err error
	)
	switch format {
	case FormatQOI:
		img, err = qoi.Decode(r)
	default:
		img, err = png.Decode(r)
	}
	if err != nil {
		return nil, canonical.Wrap(canonical.InternalRender,
			"The image bytes could not be decoded.", err)
	}
	return &Image{inner: img}, nil
}
