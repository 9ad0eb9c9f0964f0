package lines

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Кодеки по расширению файла.
const (
	Gzip = "gzip"
	Zstd = "zstd"
	XZ   = "xz"
)

var codecByExt = map[string]string{
	".gz":   Gzip,
	".gzip": Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".xz":   XZ,
}

// Compressed отдаёт распакованное содержимое Src. Каждый Open создаёт новый
// декодер поверх нового дескриптора Src.
type Compressed struct {
	Src   Source
	Codec string
}

func (c Compressed) Name() string { return c.Src.Name() }

func (c Compressed) Open() (io.ReadCloser, error) {
	rc, err := c.Src.Open()
	if err != nil {
		return nil, err
	}
	var dec io.Reader
	var closeDec func()
	switch c.Codec {
	case Gzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("gzip %s: %w", c.Src.Name(), err)
		}
		dec, closeDec = zr, func() { _ = zr.Close() }
	case Zstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("zstd %s: %w", c.Src.Name(), err)
		}
		dec, closeDec = zr, zr.Close
	case XZ:
		zr, err := xz.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("xz %s: %w", c.Src.Name(), err)
		}
		dec, closeDec = zr, func() {}
	default:
		rc.Close()
		return nil, fmt.Errorf("unknown codec %q", c.Codec)
	}
	return &decompressor{Reader: dec, closeDec: closeDec, src: rc}, nil
}

type decompressor struct {
	io.Reader
	closeDec func()
	src      io.Closer
}

func (d *decompressor) Close() error {
	d.closeDec()
	return d.src.Close()
}

// Decompress оборачивает src, если у filename расширение сжатия, и
// возвращает имя без него: "prices.csv.gz" читается как "prices.csv".
func Decompress(src Source, filename string) (Source, string) {
	codec, base := splitCodec(filename)
	if codec == "" {
		return src, filename
	}
	return Compressed{Src: src, Codec: codec}, base
}

// BaseName убирает из filename расширение сжатия.
func BaseName(filename string) string {
	_, base := splitCodec(filename)
	return base
}

func splitCodec(filename string) (codec, base string) {
	ext := filepath.Ext(filename)
	codec, ok := codecByExt[strings.ToLower(ext)]
	if !ok {
		return "", filename
	}
	return codec, strings.TrimSuffix(filename, ext)
}
