package employee

import (
	"bytes"
	"errors"
	"image"
	stddraw "image/draw"
	_ "image/jpeg"
	"image/png"
	"net/http"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const PhotoSize = 256

// ProcessPhoto decodes a jpeg, png or webp upload, center-crops it to a square
// and scales it to size×size. The result is PNG encoded.
func ProcessPhoto(raw []byte, size int) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidPhoto(errors.New("photo file is empty"))
	}
	switch http.DetectContentType(raw) {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return nil, ErrInvalidPhoto(errors.New("unsupported image type"))
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, webpErr := webp.Decode(bytes.NewReader(raw))
		if webpErr != nil {
			return nil, ErrInvalidPhoto(err)
		}
		img = decoded
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidPhoto(errors.New("invalid image dimensions"))
	}

	side := min(width, height)
	crop := image.Rect(0, 0, side, side)
	square := image.NewRGBA(crop)
	origin := image.Point{X: bounds.Min.X + (width-side)/2, Y: bounds.Min.Y + (height-side)/2}
	stddraw.Draw(square, crop, img, origin, stddraw.Src)

	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), square, square.Bounds(), xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, resized); err != nil {
		return nil, ErrInvalidPhoto(err)
	}
	return out.Bytes(), nil
}
