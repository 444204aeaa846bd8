package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/chewxy/math32"
	"github.com/mrjoshuak/go-openexr/exr"
)

// Gamma used for converting 8/16-bit sRGB images to linear space.
const decodeGamma float32 = 2.2

// A float RGBA texture in linear color space.
type Texture struct {
	Width  uint32
	Height uint32

	// 4 float32 per texel in row-major order.
	Data []float32
}

// Get a 1x1 texture with a constant sky color.
func Default() *Texture {
	return &Texture{
		Width:  1,
		Height: 1,
		Data:   []float32{0.6, 0.7, 0.9, 1.0},
	}
}

// Load a texture from a local file or an http/https URL. OpenEXR images are
// loaded as-is; PNG and JPEG images are converted to linear space.
func Load(pathToTexture string) (*Texture, error) {
	res, err := asset.NewResource(pathToTexture)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return New(res)
}

// Create a new texture from a Resource.
func New(res *asset.Resource) (*Texture, error) {
	data, err := res.ReadAll()
	if err != nil {
		return nil, err
	}

	switch res.Ext() {
	case ".exr":
		img, err := exr.Decode(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("texture: could not decode %s: %w", res.Path(), err)
		}
		return fromEXR(img), nil
	case ".png", ".jpg", ".jpeg":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("texture: could not decode %s: %w", res.Path(), err)
		}
		return fromImage(img), nil
	}

	return nil, fmt.Errorf("texture: unsupported format %q for %s", res.Ext(), res.Path())
}

func fromEXR(img *exr.RGBAImage) *Texture {
	bounds := img.Bounds()
	tex := &Texture{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Data:   make([]float32, bounds.Dx()*bounds.Dy()*4),
	}

	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.RGBA(x, y)
			tex.Data[offset], tex.Data[offset+1], tex.Data[offset+2], tex.Data[offset+3] = r, g, b, a
			offset += 4
		}
	}
	return tex
}

func fromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	tex := &Texture{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Data:   make([]float32, bounds.Dx()*bounds.Dy()*4),
	}

	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			tex.Data[offset] = linearize(r)
			tex.Data[offset+1] = linearize(g)
			tex.Data[offset+2] = linearize(b)
			tex.Data[offset+3] = float32(a) / 0xffff
			offset += 4
		}
	}
	return tex
}

func linearize(c uint32) float32 {
	return math32.Pow(float32(c)/0xffff, decodeGamma)
}
