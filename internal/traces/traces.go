// Package traces encodes trace and counter arrays stored as container
// blobs. Arrays are little-endian and optionally zstd compressed.
package traces

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Codec names the compression applied to a blob.
type Codec string

const (
	// Raw blobs are stored uncompressed.
	Raw Codec = "raw"
	// Zstd blobs are zstd frames.
	Zstd Codec = "zstd"
)

// ParseCodec accepts the codec names stored in container metadata.
// An empty name means Raw.
func ParseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case "", Raw:
		return Raw, nil
	case Zstd:
		return Zstd, nil
	default:
		return "", fmt.Errorf("unknown trace codec %q", name)
	}
}

// Sample is an element type that can be stored in a blob.
type Sample interface {
	~int16 | ~uint16 | ~uint32
}

// Matrix is a row-major 2D array, one row per channel.
type Matrix[T Sample] struct {
	Rows int
	Cols int
	Data []T
}

// NewMatrix validates the shape against the data length.
func NewMatrix[T Sample](rows, cols int, data []T) (Matrix[T], error) {
	if rows < 0 || cols < 0 || rows*cols != len(data) {
		return Matrix[T]{}, fmt.Errorf("shape %dx%d does not match %d samples", rows, cols, len(data))
	}
	return Matrix[T]{Rows: rows, Cols: cols, Data: data}, nil
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}
		return encoder
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

// Encode serializes samples and applies codec. The result is never nil so
// that an empty array is stored as an empty blob rather than NULL.
func Encode[T Sample](samples []T, codec Codec) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, binary.Size(samples)))
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("encode samples: %w", err)
	}
	raw := buf.Bytes()
	switch codec {
	case Raw, "":
		return raw, nil
	case Zstd:
		encoder := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(encoder)
		return encoder.EncodeAll(raw, nil), nil
	default:
		return nil, fmt.Errorf("unknown trace codec %q", codec)
	}
}

// Decode reverses Encode.
func Decode[T Sample](blob []byte, codec Codec) ([]T, error) {
	raw := blob
	switch codec {
	case Raw, "":
	case Zstd:
		if len(blob) == 0 {
			return []T{}, nil
		}
		decoder := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(decoder)
		var err error
		raw, err = decoder.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompression failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown trace codec %q", codec)
	}

	var zero T
	size := binary.Size(zero)
	if len(raw)%size != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of %d", len(raw), size)
	}
	out := make([]T, len(raw)/size)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	return out, nil
}

// EncodeMatrix encodes the matrix data. The shape is stored separately.
func EncodeMatrix[T Sample](m Matrix[T], codec Codec) ([]byte, error) {
	return Encode(m.Data, codec)
}

// DecodeMatrix decodes a blob into a matrix of the given shape.
func DecodeMatrix[T Sample](blob []byte, rows, cols int, codec Codec) (Matrix[T], error) {
	data, err := Decode[T](blob, codec)
	if err != nil {
		return Matrix[T]{}, err
	}
	return NewMatrix(rows, cols, data)
}
