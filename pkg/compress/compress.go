//nolint:revive // exported
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

type CompressType = int8

const (
	CompressTypeNone   CompressType = 0
	CompressTypeGzip   CompressType = 1
	CompressTypeZstd   CompressType = 2
	CompressTypeBrotli CompressType = 3
)

var ErrUnsupportedCompressType = fmt.Errorf("compress: unsupported compress type")

func Compress(data []byte, compressType CompressType) ([]byte, error) {
	switch compressType {
	case CompressTypeNone:
		return data, nil
	case CompressTypeGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressTypeZstd:
		w, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer w.Close()
		return w.EncodeAll(data, nil), nil
	case CompressTypeBrotli:
		var buf bytes.Buffer
		w := brotli.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompressType, compressType)
	}
}

func Decompress(data []byte, compressType CompressType) ([]byte, error) {
	switch compressType {
	case CompressTypeNone:
		return data, nil
	case CompressTypeGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressTypeZstd:
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r.IOReadCloser())
	case CompressTypeBrotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompressType, compressType)
	}
}

// DecompressWithContentEncodeStr maps an HTTP Content-Encoding token to the
// matching decompressor. Unknown encodings pass the body through unchanged.
func DecompressWithContentEncodeStr(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "gzip":
		return Decompress(data, CompressTypeGzip)
	case "zstd":
		return Decompress(data, CompressTypeZstd)
	case "br":
		return Decompress(data, CompressTypeBrotli)
	default:
		return data, nil
	}
}
