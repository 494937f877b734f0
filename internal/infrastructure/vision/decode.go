package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bep/imagemeta"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
)

// Decoder декодирует загруженные изображения и применяет EXIF-ориентацию.
type Decoder struct{}

// NewDecoder создаёт декодер изображений.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode превращает байты PNG/JPEG/WebP/GIF в RawImage.
// Число каналов сохраняется (серые 1, цветные 3, с прозрачностью 4).
func (d *Decoder) Decode(data []byte) (*entity.RawImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", entity.ErrUndecodable)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUndecodable, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", entity.ErrUndecodable)
	}

	channels := entity.ChannelsOf(img)
	if o := readOrientation(data, format); o > 1 {
		img = applyOrientation(img, o)
	}

	return entity.ConvertImage(img, channels), nil
}

// readOrientation возвращает EXIF Orientation (1..8) или 0, если тега нет.
// Ошибки метаданных игнорируются.
func readOrientation(data []byte, format string) int {
	var imageFormat imagemeta.ImageFormat
	switch format {
	case "jpeg":
		imageFormat = imagemeta.JPEG
	case "png":
		imageFormat = imagemeta.PNG
	case "webp":
		imageFormat = imagemeta.WebP
	default:
		return 0
	}

	orientation := 0
	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: imageFormat,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "Orientation"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			orientation = tagInt(ti.Value)
			return nil
		},
	})
	if err != nil {
		return 0
	}
	if orientation < 1 || orientation > 8 {
		return 0
	}
	return orientation
}

func tagInt(v any) int {
	switch n := v.(type) {
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint8:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case []uint16:
		if len(n) > 0 {
			return int(n[0])
		}
	}
	return 0
}

// applyOrientation поворачивает изображение так же, как это делает загрузчик OpenCV.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

var _ port.ImageDecoder = (*Decoder)(nil)
