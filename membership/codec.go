package membership

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
)

// ErrCorruptedFilter indicates serialized filter data is invalid.
var ErrCorruptedFilter = errors.New("membership: corrupted filter data")

const (
	kindEmpty byte = iota + 1
	kindNone
	kindStandard
	kindBlocked
)

// blockedHeaderSize is k (4) + numBlocks (8) + count (8).
const blockedHeaderSize = 20

// Marshal encodes a filter created by this package.
func Marshal(f Filter) ([]byte, error) {
	switch v := f.(type) {
	case emptyFilter:
		return []byte{kindEmpty}, nil
	case noneFilter:
		return []byte{kindNone}, nil
	case *standardFilter:
		var buf bytes.Buffer
		buf.WriteByte(kindStandard)
		if _, err := v.bf.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("membership: encode standard filter: %w", err)
		}
		return buf.Bytes(), nil
	case *blockedFilter:
		out := make([]byte, 1+blockedHeaderSize+len(v.words)*8)
		out[0] = kindBlocked
		binary.LittleEndian.PutUint32(out[1:5], v.k)
		binary.LittleEndian.PutUint64(out[5:13], v.numBlocks)
		binary.LittleEndian.PutUint64(out[13:21], v.count)
		p := out[1+blockedHeaderSize:]
		for i, w := range v.words {
			binary.LittleEndian.PutUint64(p[i*8:], w)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("membership: cannot encode filter of type %T", f)
	}
}

// Unmarshal decodes a filter produced by Marshal. The singletons decode to
// Empty and None themselves.
func Unmarshal(data []byte) (Filter, error) {
	if len(data) == 0 {
		return nil, ErrCorruptedFilter
	}
	switch data[0] {
	case kindEmpty:
		return Empty, nil
	case kindNone:
		return None, nil
	case kindStandard:
		bf := &bloom.BloomFilter{}
		if _, err := bf.ReadFrom(bytes.NewReader(data[1:])); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptedFilter, err)
		}
		return &standardFilter{bf: bf}, nil
	case kindBlocked:
		return unmarshalBlocked(data[1:])
	default:
		return nil, ErrCorruptedFilter
	}
}

func unmarshalBlocked(p []byte) (Filter, error) {
	if len(p) < blockedHeaderSize {
		return nil, ErrCorruptedFilter
	}
	k := binary.LittleEndian.Uint32(p[0:4])
	numBlocks := binary.LittleEndian.Uint64(p[4:12])
	count := binary.LittleEndian.Uint64(p[12:20])
	if _, ok := blockPartitions[k]; !ok || numBlocks == 0 {
		return nil, ErrCorruptedFilter
	}
	body := p[blockedHeaderSize:]
	if numBlocks > uint64(len(body))/(blockWords*8) || uint64(len(body)) != numBlocks*blockWords*8 {
		return nil, ErrCorruptedFilter
	}
	f := newBlockedWithParams(numBlocks, k)
	for i := range f.words {
		f.words[i] = binary.LittleEndian.Uint64(body[i*8:])
	}
	f.count = count
	return f, nil
}
