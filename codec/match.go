package codec

import (
	"bytes"
	"fmt"
)

const defaultBlockSize = 64

const (
	opCopy = uint8(0)
	opAdd  = uint8(1)
)

type op struct {
	kind   uint8
	offset int
	length int
	data   []byte
}

// buildOps computes a copy/add op stream transforming base into target.
// Base is indexed in fixed-size blocks by hash; matches extend forward
// byte by byte, unmatched target bytes accumulate into add ops.
func buildOps(base, target []byte, blockSize int) []op {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	if len(target) == 0 {
		return nil
	}
	if len(base) < blockSize {
		return []op{{kind: opAdd, data: target}}
	}
	index := make(map[uint64][]int, len(base)/blockSize)
	for i := 0; i+blockSize <= len(base); i += blockSize {
		h := blockHash(base[i : i+blockSize])
		index[h] = append(index[h], i)
	}
	var ops []op
	var literal []byte
	i := 0
	for i < len(target) {
		if i+blockSize <= len(target) {
			if offset, ok := findMatch(index, base, target[i:i+blockSize]); ok {
				n := blockSize
				for offset+n < len(base) && i+n < len(target) && base[offset+n] == target[i+n] {
					n++
				}
				if len(literal) > 0 {
					ops = append(ops, op{kind: opAdd, data: append([]byte(nil), literal...)})
					literal = literal[:0]
				}
				ops = append(ops, op{kind: opCopy, offset: offset, length: n})
				i += n
				continue
			}
		}
		literal = append(literal, target[i])
		i++
	}
	if len(literal) > 0 {
		ops = append(ops, op{kind: opAdd, data: append([]byte(nil), literal...)})
	}
	return ops
}

func findMatch(index map[uint64][]int, base, block []byte) (int, bool) {
	for _, offset := range index[blockHash(block)] {
		if bytes.Equal(base[offset:offset+len(block)], block) {
			return offset, true
		}
	}
	return 0, false
}

func encodeOps(ops []op) ([]byte, error) {
	writer := writers.Get()
	defer writers.Put(writer)
	writer.Int(len(ops))
	for _, o := range ops {
		writer.Uint8(o.kind)
		switch o.kind {
		case opCopy:
			writer.Int(o.offset)
			writer.Int(o.length)
		case opAdd:
			writer.Uint8s(o.data)
		default:
			return nil, fmt.Errorf("codec: unsupported op %d", o.kind)
		}
	}
	b := writer.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func decodeOps(payload []byte) ([]op, error) {
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var count int
	reader.Int(&count)
	if count < 0 {
		return nil, fmt.Errorf("%w: negative op count", ErrDecode)
	}
	ops := make([]op, 0, count)
	for i := 0; i < count; i++ {
		var o op
		reader.Uint8(&o.kind)
		switch o.kind {
		case opCopy:
			reader.Int(&o.offset)
			reader.Int(&o.length)
		case opAdd:
			reader.Uint8s(&o.data)
		default:
			return nil, fmt.Errorf("%w: unsupported op %d", ErrDecode, o.kind)
		}
		ops = append(ops, o)
	}
	return ops, nil
}

func applyOps(base []byte, ops []op) ([]byte, error) {
	var out []byte
	for _, o := range ops {
		switch o.kind {
		case opCopy:
			if o.offset < 0 || o.length <= 0 || o.offset+o.length > len(base) {
				return nil, fmt.Errorf("%w: copy [%d:%d) out of base range %d", ErrDecode, o.offset, o.offset+o.length, len(base))
			}
			out = append(out, base[o.offset:o.offset+o.length]...)
		case opAdd:
			out = append(out, o.data...)
		}
	}
	return out, nil
}
