// Package order encodes per-node ordering seeds into byte codes whose
// lexicographic comparison matches the comparison of the original values.
// Codes concatenate across ancestor chains into an Ordering, one code per
// tree level, giving a depth-first total order over a forest.
package order

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Kind declares how a seed value is interpreted before encoding. Every
// ordering field carries a Kind; the codec coerces the stored value to it,
// so mixed representations of the same field (int64 from a database, float64
// from JSON) encode identically.
type Kind string

// Supported seed kinds.
const (
	KindInt   Kind = "int"
	KindFloat Kind = "float"
	KindText  Kind = "text"
	KindTime  Kind = "time"
)

// Codec errors.
var (
	ErrKindUnknown  = errors.New("unknown ordering kind")
	ErrKindMismatch = errors.New("value does not match ordering kind")
)

// validKinds is the set of recognized Kind values.
var validKinds = map[Kind]bool{
	KindInt:   true,
	KindFloat: true,
	KindText:  true,
	KindTime:  true,
}

// ValidKind reports whether k is a recognized Kind.
func ValidKind(k Kind) bool {
	return validKinds[k]
}

// Ordering is the cumulative ordering key of one node: one code per level
// of its path, root first. Orderings compare element by element; when one
// is a prefix of the other the shorter sorts first, which places every
// ancestor immediately before its descendants.
type Ordering [][]byte

// Encode produces the ordering code for one tree level from the seed values
// of that node's ordering fields. Field encodings are concatenated; each is
// either fixed-width or self-terminating, so the concatenation compares
// lexicographically field by field. A nil value sorts before every non-nil
// value of the same field.
func Encode(kinds []Kind, seed []any) ([]byte, error) {
	if len(kinds) != len(seed) {
		return nil, fmt.Errorf("%w: %d kinds for %d values", ErrKindMismatch, len(kinds), len(seed))
	}
	var buf bytes.Buffer
	for i, k := range kinds {
		if err := encodeValue(&buf, k, seed[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// IdentityCode encodes a node identity as its ordering code. Used when no
// ordering fields are configured, so siblings fall back to identity order.
func IdentityCode(id string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(presentByte)
	writeText(&buf, id)
	return buf.Bytes()
}

// Append returns parent extended with one more level code. The parent
// ordering is copied, never aliased, so sibling orderings built from the
// same parent do not share backing storage.
func Append(parent Ordering, code []byte) Ordering {
	out := make(Ordering, len(parent)+1)
	copy(out, parent)
	out[len(parent)] = code
	return out
}

// Compare orders two Orderings element by element. A strict prefix sorts
// before its extensions, yielding depth-first preorder across a forest.
func Compare(a, b Ordering) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := bytes.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// CompareBreadth orders two nodes by (depth, ordering), which visits each
// level of the forest completely before the next one.
func CompareBreadth(aDepth int, a Ordering, bDepth int, b Ordering) int {
	switch {
	case aDepth < bDepth:
		return -1
	case aDepth > bDepth:
		return 1
	default:
		return Compare(a, b)
	}
}

// Presence prefix of every encoded field. Nil sorts first.
const (
	nilByte     = 0x00
	presentByte = 0x01
)

// Text encoding control bytes. Text is terminated rather than fixed-width;
// embedded terminators are escaped so the terminator still ends the field
// for comparison purposes.
const (
	textTerm   = 0x00
	textEscape = 0xFF
)

// encodeValue appends the presence byte and payload for one field.
func encodeValue(buf *bytes.Buffer, k Kind, v any) error {
	if v == nil {
		buf.WriteByte(nilByte)
		return nil
	}
	buf.WriteByte(presentByte)
	switch k {
	case KindInt:
		n, err := coerceInt(v)
		if err != nil {
			return err
		}
		writeInt(buf, n)
	case KindFloat:
		f, err := coerceFloat(v)
		if err != nil {
			return err
		}
		writeFloat(buf, f)
	case KindText:
		s, err := coerceText(v)
		if err != nil {
			return err
		}
		writeText(buf, s)
	case KindTime:
		t, err := coerceTime(v)
		if err != nil {
			return err
		}
		writeInt(buf, t.UnixNano())
	default:
		return fmt.Errorf("%w: %q", ErrKindUnknown, k)
	}
	return nil
}

// writeInt encodes a signed integer as big-endian bytes with the sign bit
// flipped, so unsigned byte comparison matches signed integer comparison.
func writeInt(buf *bytes.Buffer, n int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n)^(1<<63))
	buf.Write(b[:])
}

// writeFloat encodes an IEEE 754 double so byte comparison matches numeric
// comparison: negative values have all bits flipped, non-negative values
// have the sign bit set.
func writeFloat(buf *bytes.Buffer, f float64) {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	buf.Write(b[:])
}

// writeText encodes a string with a trailing terminator. Embedded
// terminator bytes are escaped as (term, escape) so they sort above a
// genuine end of field.
func writeText(buf *bytes.Buffer, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		buf.WriteByte(c)
		if c == textTerm {
			buf.WriteByte(textEscape)
		}
	}
	buf.WriteByte(textTerm)
}

func coerceInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float32:
		// JSON numbers decode as floats; accept integral values.
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrKindMismatch, v)
	}
}

func coerceFloat(v any) (float64, error) {
	switch f := v.(type) {
	case float32:
		return float64(f), nil
	case float64:
		return f, nil
	case int:
		return float64(f), nil
	case int32:
		return float64(f), nil
	case int64:
		return float64(f), nil
	default:
		return 0, fmt.Errorf("%w: %T is not a float", ErrKindMismatch, v)
	}
}

func coerceText(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("%w: %T is not text", ErrKindMismatch, v)
	}
}

func coerceTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q is not an RFC 3339 timestamp", ErrKindMismatch, t)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %T is not a timestamp", ErrKindMismatch, v)
	}
}
