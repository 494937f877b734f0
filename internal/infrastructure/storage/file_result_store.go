package storage

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
)

const resultPrefix = "result_"

// FileResultStore сохраняет аннотированные изображения в каталог загрузок.
type FileResultStore struct {
	dir       string
	urlPrefix string
}

// NewFileResultStore создаёт каталог, если его нет.
func NewFileResultStore(dir, urlPrefix string) (*FileResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create upload dir: %v", entity.ErrIOFailure, err)
	}
	return &FileResultStore{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

// Save записывает изображение как result_<имя> и возвращает публичный путь.
// Запись атомарная: временный файл переименовывается только после успешного кодирования.
func (s *FileResultStore) Save(ctx context.Context, filename string, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := ResultName(filename)
	target := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", entity.ErrIOFailure, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := encode(tmp, name, img); err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", entity.ErrIOFailure, name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %v", entity.ErrIOFailure, name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("%w: rename %s: %v", entity.ErrIOFailure, name, err)
	}
	committed = true

	return path.Join(s.urlPrefix, name), nil
}

// ResultName возвращает имя файла результата. PNG и JPEG сохраняют расширение,
// остальные форматы пишутся в PNG и получают расширение .png.
func ResultName(filename string) string {
	name := SanitizeFilename(filename)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
	default:
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	}
	return resultPrefix + name
}

func encode(f *os.File, name string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		return png.Encode(f, img)
	}
}

// SanitizeFilename оставляет от имени файла только безопасные ASCII-символы.
// Каталоги отбрасываются, пробелы заменяются на "_", ведущие точки удаляются.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-'):
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "upload"
	}
	return out
}

var _ port.ResultStore = (*FileResultStore)(nil)
