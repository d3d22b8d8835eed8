package resource

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types.
const (
	TGATypeUncompressed = 2
	TGATypeRLE          = 10
)

var errTGATruncated = errors.New("tga: pixel data truncated")

// DecodeTGA decodes an uncompressed or RLE compressed true-color TGA.
// TGA stores straight alpha, so the result is NRGBA.
func DecodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("tga: header too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("tga: color-mapped images not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("tga: empty image %dx%d", width, height)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}
	d := &tgaDecoder{
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		data:        data[offset:],
		bpp:         bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == TGATypeUncompressed {
		err = d.raw(width * height)
	} else {
		err = d.rle(width * height)
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.NRGBA
	data        []byte
	pos         int
	pixel       int
	bpp         int
	topToBottom bool
}

func (d *tgaDecoder) read() (color.NRGBA, error) {
	if d.pos+d.bpp > len(d.data) {
		return color.NRGBA{}, errTGATruncated
	}
	p := d.data[d.pos:]
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	d.pos += d.bpp
	return c, nil
}

func (d *tgaDecoder) put(c color.NRGBA) {
	w, h := d.img.Rect.Dx(), d.img.Rect.Dy()
	x, y := d.pixel%w, d.pixel/w
	if !d.topToBottom {
		y = h - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
	d.pixel++
}

func (d *tgaDecoder) raw(count int) error {
	for d.pixel < count {
		c, err := d.read()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) rle(count int) error {
	for d.pixel < count {
		if d.pos >= len(d.data) {
			return errTGATruncated
		}
		packet := d.data[d.pos]
		d.pos++
		n := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, err := d.read()
			if err != nil {
				return err
			}
			for i := 0; i < n && d.pixel < count; i++ {
				d.put(c)
			}
			continue
		}
		for i := 0; i < n && d.pixel < count; i++ {
			c, err := d.read()
			if err != nil {
				return err
			}
			d.put(c)
		}
	}
	return nil
}
