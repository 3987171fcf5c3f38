// Package codec implements the binary delta format used to persist
// document versions. A delta carries a base tag (how many versions back
// the base sits), followed by a copy/add op stream computed by block
// matching against the base, optionally zstd-compressed.
package codec

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/viant/bintly"
)

var (
	// ErrDecode indicates a structurally invalid delta.
	ErrDecode = errors.New("codec: malformed delta")
)

const (
	frameVersion   = uint8(1)
	flagCompressed = uint8(1 << 0)
)

var (
	writers = bintly.NewWriters()
	readers = bintly.NewReaders()
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
}

// Codec encodes and decodes version deltas. The zero value is not
// usable; use New.
type Codec struct {
	blockSize int
}

// Option customizes a Codec.
type Option func(*Codec)

// WithBlockSize overrides the base block size used for matching.
func WithBlockSize(size int) Option {
	return func(c *Codec) {
		if size > 0 {
			c.blockSize = size
		}
	}
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{blockSize: defaultBlockSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode produces a delta transforming base into target. The tag is
// embedded in the delta header; compress enables zstd on the op stream
// when it actually shrinks the payload.
func (c *Codec) Encode(tag int, base, target []byte, compress bool) ([]byte, error) {
	if tag < 0 {
		return nil, fmt.Errorf("codec: negative tag %d", tag)
	}
	payload, err := encodeOps(buildOps(base, target, c.blockSize))
	if err != nil {
		return nil, err
	}
	flags := uint8(0)
	if compress {
		if compressed := zstdEncoder.EncodeAll(payload, nil); len(compressed) < len(payload) {
			payload = compressed
			flags |= flagCompressed
		}
	}
	writer := writers.Get()
	defer writers.Put(writer)
	writer.Uint8(frameVersion)
	writer.Int(tag)
	writer.Uint8(flags)
	writer.Uint8s(payload)
	b := writer.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Decode applies a delta to base and returns the target content.
func (c *Codec) Decode(base, delta []byte) (out []byte, err error) {
	// bintly readers panic on truncated input.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()
	if len(delta) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrDecode)
	}
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(delta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var version, flags uint8
	var tag int
	var payload []byte
	reader.Uint8(&version)
	if version != frameVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrDecode, version)
	}
	reader.Int(&tag)
	reader.Uint8(&flags)
	reader.Uint8s(&payload)
	if tag < 0 {
		return nil, fmt.Errorf("%w: negative tag", ErrDecode)
	}
	if flags&flagCompressed != 0 {
		payload, err = zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}
	ops, err := decodeOps(payload)
	if err != nil {
		return nil, err
	}
	return applyOps(base, ops)
}

// Tag extracts the base tag from a delta header. It returns 0 when the
// delta is absent or unparseable.
func (c *Codec) Tag(delta []byte) (tag int) {
	defer func() {
		if recover() != nil {
			tag = 0
		}
	}()
	if len(delta) == 0 {
		return 0
	}
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(delta); err != nil {
		return 0
	}
	var version uint8
	reader.Uint8(&version)
	if version != frameVersion {
		return 0
	}
	reader.Int(&tag)
	if tag < 0 {
		return 0
	}
	return tag
}
