package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Compression methods reported in Result.Method.
const (
	MethodNone = "none"
	MethodGzip = "gzip"
)

// DefaultThreshold is the serialized size below which compression is not
// attempted.
const DefaultThreshold = 1024

var (
	// ErrMarshalFailed is returned when the payload cannot be serialized.
	ErrMarshalFailed = errors.New("payload: failed to marshal payload")

	// ErrUnknownMethod is returned by Decompress for unrecognized methods.
	ErrUnknownMethod = errors.New("payload: unknown compression method")

	// ErrCorruptData is returned when compressed data cannot be restored.
	ErrCorruptData = errors.New("payload: corrupt compressed data")
)

// Result describes one compression pass. Data always holds the bytes to
// store or transmit; Method says how to get the original back.
type Result struct {
	Method         string
	OriginalSize   int
	CompressedSize int
	Ratio          float64
	Data           []byte
}

// Compressor is safe for concurrent use.
type Compressor struct {
	threshold int
	level     int
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithThreshold overrides the minimum serialized size eligible for
// compression. Values below 1 keep the default.
func WithThreshold(n int) Option {
	return func(c *Compressor) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithLevel sets the gzip compression level.
func WithLevel(level int) Option {
	return func(c *Compressor) { c.level = level }
}

func New(opts ...Option) *Compressor {
	c := &Compressor{
		threshold: DefaultThreshold,
		level:     gzip.DefaultCompression,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compress serializes v as JSON and compresses the result when it is large
// enough to benefit.
func (c *Compressor) Compress(v any) (Result, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMarshalFailed, err)
	}
	return c.CompressBytes(raw), nil
}

// CompressBytes compresses pre-serialized bytes under the same threshold
// policy as Compress.
func (c *Compressor) CompressBytes(raw []byte) Result {
	if len(raw) < c.threshold {
		return passthrough(raw)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		zw = gzip.NewWriter(&buf)
	}
	if _, err := zw.Write(raw); err != nil {
		return passthrough(raw)
	}
	if err := zw.Close(); err != nil {
		return passthrough(raw)
	}

	// Incompressible input can grow under gzip; keep the original then.
	if buf.Len() >= len(raw) {
		return passthrough(raw)
	}

	return Result{
		Method:         MethodGzip,
		OriginalSize:   len(raw),
		CompressedSize: buf.Len(),
		Ratio:          float64(buf.Len()) / float64(len(raw)),
		Data:           buf.Bytes(),
	}
}

// Decompress restores the original serialized bytes from a Result.
func Decompress(res Result) ([]byte, error) {
	return DecompressBytes(res.Method, res.Data)
}

// DecompressBytes restores original bytes given a method tag and data.
func DecompressBytes(method string, data []byte) ([]byte, error) {
	switch method {
	case MethodNone, "":
		return data, nil
	case MethodGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		defer func() { _ = zr.Close() }()

		raw, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func passthrough(raw []byte) Result {
	return Result{
		Method:         MethodNone,
		OriginalSize:   len(raw),
		CompressedSize: len(raw),
		Ratio:          1.0,
		Data:           raw,
	}
}
