package zone

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

// ScaleFactor is applied to both dimensions of a captured frame.
const ScaleFactor = 0.5

const dataURLPrefix = "data:image/png;base64,"

var ErrBadImage = errors.New("zone: unreadable image")

// scaler owns the downsampling surface so repeated captures reuse one allocation.
type scaler struct {
	dst *image.RGBA
	buf bytes.Buffer
	enc png.Encoder
}

// still decodes a JPEG or PNG frame, halves it and returns the PNG bytes and size.
func (s *scaler) still(frame []byte) ([]byte, image.Point, error) {
	src, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	b := src.Bounds()
	size := image.Pt(max(1, int(float64(b.Dx())*ScaleFactor)), max(1, int(float64(b.Dy())*ScaleFactor)))
	if s.dst == nil || s.dst.Bounds().Size() != size {
		s.dst = image.NewRGBA(image.Rectangle{Max: size})
	}
	draw.ApproxBiLinear.Scale(s.dst, s.dst.Bounds(), src, b, draw.Src, nil)

	s.buf.Reset()
	if err := s.enc.Encode(&s.buf, s.dst); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode still: %w", err)
	}
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out, size, nil
}

func toDataURL(pngBytes []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(pngBytes)
}

// fromDataURL accepts any base64 image data URL and returns its bytes and size.
func fromDataURL(u string) ([]byte, image.Point, error) {
	meta, payload, ok := strings.Cut(u, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, image.Point{}, fmt.Errorf("%w: not a base64 image data URL", ErrBadImage)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return raw, image.Pt(cfg.Width, cfg.Height), nil
}
