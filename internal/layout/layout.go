package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrMalformedRecord indicates a buffer whose length does not match the
	// schema's fixed span, or a decoded field that cannot be interpreted.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrValueOutOfRange indicates an integer that does not fit its field width.
	ErrValueOutOfRange = errors.New("value out of range")
)

// FieldType enumerates the fixed-width field kinds supported by the codec.
type FieldType uint8

const (
	TypeU8 FieldType = iota
	TypeU32
	TypeU64
	TypePublicKey
)

func (t FieldType) span() int {
	switch t {
	case TypeU8:
		return 1
	case TypeU32:
		return 4
	case TypeU64:
		return 8
	case TypePublicKey:
		return solana.PublicKeyLength
	default:
		return 0
	}
}

// Field is one named fixed-width slot in a schema.
type Field struct {
	Name string
	Type FieldType
}

func U8(name string) Field        { return Field{Name: name, Type: TypeU8} }
func U32(name string) Field       { return Field{Name: name, Type: TypeU32} }
func U64(name string) Field       { return Field{Name: name, Type: TypeU64} }
func PublicKey(name string) Field { return Field{Name: name, Type: TypePublicKey} }

// Schema is an ordered list of named fixed-width fields. The zero value is an
// empty schema with span 0.
type Schema struct {
	fields []Field
	span   int
}

func NewSchema(fields ...Field) Schema {
	span := 0
	for _, f := range fields {
		span += f.Type.span()
	}
	return Schema{fields: fields, span: span}
}

// Span returns the exact byte length of every record this schema describes.
func (s Schema) Span() int { return s.span }

// Values holds decoded field values keyed by field name. U8 fields are uint8,
// U32 fields uint32, U64 fields *big.Int, and PublicKey fields solana.PublicKey.
type Values map[string]interface{}

func (v Values) U8(name string) (uint8, bool) {
	x, ok := v[name].(uint8)
	return x, ok
}

func (v Values) U32(name string) (uint32, bool) {
	x, ok := v[name].(uint32)
	return x, ok
}

func (v Values) U64(name string) (*big.Int, bool) {
	x, ok := v[name].(*big.Int)
	return x, ok
}

func (v Values) PublicKey(name string) (solana.PublicKey, bool) {
	x, ok := v[name].(solana.PublicKey)
	return x, ok
}

// Encode serializes values into a buffer of exactly Span() bytes. Every field
// named by the schema must be present with the matching Go type.
func (s Schema) Encode(values Values) ([]byte, error) {
	out := make([]byte, 0, s.span)

	for _, f := range s.fields {
		raw, ok := values[f.Name]
		if !ok {
			return nil, fmt.Errorf("encode %s: missing value", f.Name)
		}

		switch f.Type {
		case TypeU8:
			v, ok := raw.(uint8)
			if !ok {
				return nil, fmt.Errorf("encode %s: expected uint8, got %T", f.Name, raw)
			}
			out = append(out, v)

		case TypeU32:
			v, ok := raw.(uint32)
			if !ok {
				return nil, fmt.Errorf("encode %s: expected uint32, got %T", f.Name, raw)
			}
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], v)
			out = append(out, buf[:]...)

		case TypeU64:
			v, ok := raw.(*big.Int)
			if !ok {
				return nil, fmt.Errorf("encode %s: expected *big.Int, got %T", f.Name, raw)
			}
			buf, err := EncodeU64(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", f.Name, err)
			}
			out = append(out, buf[:]...)

		case TypePublicKey:
			v, ok := raw.(solana.PublicKey)
			if !ok {
				return nil, fmt.Errorf("encode %s: expected solana.PublicKey, got %T", f.Name, raw)
			}
			out = append(out, v.Bytes()...)
		}
	}

	return out, nil
}

// Decode parses a buffer of exactly Span() bytes into field values.
func (s Schema) Decode(data []byte) (Values, error) {
	if len(data) != s.span {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedRecord, s.span, len(data))
	}

	values := make(Values, len(s.fields))
	off := 0

	for _, f := range s.fields {
		switch f.Type {
		case TypeU8:
			values[f.Name] = data[off]
		case TypeU32:
			values[f.Name] = binary.LittleEndian.Uint32(data[off : off+4])
		case TypeU64:
			values[f.Name] = DecodeU64(data[off : off+8])
		case TypePublicKey:
			values[f.Name] = solana.PublicKeyFromBytes(data[off : off+solana.PublicKeyLength])
		}
		off += f.Type.span()
	}

	return values, nil
}

// EncodeU64 serializes a non-negative arbitrary-precision integer as 8
// little-endian bytes, zero-padded. Integers needing more than 8 bytes fail
// with ErrValueOutOfRange.
func EncodeU64(v *big.Int) ([8]byte, error) {
	var out [8]byte
	if v == nil || v.Sign() < 0 {
		return out, fmt.Errorf("%w: negative or nil", ErrValueOutOfRange)
	}

	raw := v.Bytes() // big-endian, no leading zeros
	if len(raw) > 8 {
		return out, fmt.Errorf("%w: needs %d bytes", ErrValueOutOfRange, len(raw))
	}

	for i, b := range raw {
		out[len(raw)-1-i] = b
	}
	return out, nil
}

// DecodeU64 parses 8 little-endian bytes into a non-negative integer.
func DecodeU64(data []byte) *big.Int {
	return new(big.Int).SetUint64(binary.LittleEndian.Uint64(data))
}
