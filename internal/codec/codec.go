package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnsupportedDtype = errors.New("unsupported dtype")
	ErrSizeMismatch     = errors.New("payload size mismatch")
)

// elemSizes is the closed registry of element types the codec accepts.
// The robot only ever sends uint8 camera frames; the rest mirror the
// typed arrays the rest of the pipeline knows how to decode.
var elemSizes = map[string]int{
	"uint8":   1,
	"uint16":  2,
	"uint32":  4,
	"float32": 4,
}

// Header is the self-describing metadata preceding every binary payload,
// e.g. {"dtype":"uint8","shape":[60,80,3]}.
type Header struct {
	Dtype string `json:"dtype"`
	Shape []int  `json:"shape"`
}

// Frame is one decoded array payload. Data is the raw little-endian
// bytes; the frame is replaced wholesale on each decode, never mutated.
type Frame struct {
	Dtype string
	Shape []int
	Data  []byte
}

// ElemSize returns the element size in bytes for a registry dtype.
func ElemSize(dtype string) (int, bool) {
	size, ok := elemSizes[dtype]
	return size, ok
}

func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return Header{}, fmt.Errorf("parse array header: %w", err)
	}
	return h, nil
}

// payloadLength is the exact byte length a shape and element size
// imply. Shapes whose product would overflow int are rejected: a
// wire-supplied header must never wrap around to a small (or zero)
// length and pass the size check.
func payloadLength(shape []int, elemSize int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("%w: empty shape", ErrSizeMismatch)
	}
	count := 1
	for _, dim := range shape {
		if dim <= 0 {
			return 0, fmt.Errorf("%w: shape entry %d", ErrSizeMismatch, dim)
		}
		if count > math.MaxInt/dim {
			return 0, fmt.Errorf("%w: shape %v overflows", ErrSizeMismatch, shape)
		}
		count *= dim
	}
	if count > math.MaxInt/elemSize {
		return 0, fmt.Errorf("%w: shape %v overflows", ErrSizeMismatch, shape)
	}
	return count * elemSize, nil
}

// Decode validates payload against the header and returns the frame.
// The payload length must match product(shape)*elemSize exactly; there
// is no implicit reshaping, truncation or padding.
func Decode(h Header, payload []byte) (*Frame, error) {
	elemSize, ok := elemSizes[h.Dtype]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDtype, h.Dtype)
	}
	want, err := payloadLength(h.Shape, elemSize)
	if err != nil {
		return nil, err
	}
	if len(payload) != want {
		return nil, fmt.Errorf("%w: got %d bytes, shape %v (%s) needs %d",
			ErrSizeMismatch, len(payload), h.Shape, h.Dtype, want)
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	return &Frame{
		Dtype: h.Dtype,
		Shape: append([]int(nil), h.Shape...),
		Data:  data,
	}, nil
}

// Encode is the inverse of Decode: header JSON plus the raw payload.
// Used by the debug endpoint and for round-trip checks.
func Encode(f *Frame) ([]byte, []byte, error) {
	elemSize, ok := elemSizes[f.Dtype]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedDtype, f.Dtype)
	}
	want, err := payloadLength(f.Shape, elemSize)
	if err != nil {
		return nil, nil, err
	}
	if len(f.Data) != want {
		return nil, nil, fmt.Errorf("%w: got %d bytes, shape %v (%s) needs %d",
			ErrSizeMismatch, len(f.Data), f.Shape, f.Dtype, want)
	}
	header, err := json.Marshal(Header{Dtype: f.Dtype, Shape: f.Shape})
	if err != nil {
		return nil, nil, err
	}
	return header, f.Data, nil
}

// Height, Width and Channels read an image-shaped (H, W, C) frame.
// They return 0 for frames of other ranks.

func (f *Frame) Height() int {
	if len(f.Shape) != 3 {
		return 0
	}
	return f.Shape[0]
}

func (f *Frame) Width() int {
	if len(f.Shape) != 3 {
		return 0
	}
	return f.Shape[1]
}

func (f *Frame) Channels() int {
	if len(f.Shape) != 3 {
		return 0
	}
	return f.Shape[2]
}
