// Package rlp implements the Recursive Length Prefix serialization format.
//
// RLP encodes a datum that is either a byte string or an ordered list of
// data. The encoding is canonical: a given value has exactly one encoding,
// and every consensus structure in the engine (accounts, transactions,
// headers, trie nodes) passes through it.
package rlp

import (
	"io"
	"math/big"
	"reflect"
)

// Encode writes the RLP encoding of val to w.
// Supported types: bool, uint8/16/32/64/uint, *big.Int, []byte, string,
// byte arrays, slices/arrays of supported types, and structs (exported
// fields only, in declaration order).
func Encode(w io.Writer, val interface{}) error {
	b, err := EncodeToBytes(val)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// EncodeToBytes returns the RLP encoding of val.
func EncodeToBytes(val interface{}) ([]byte, error) {
	return encodeValue(reflect.ValueOf(val))
}

var bigIntType = reflect.TypeOf(big.Int{})

func encodeValue(v reflect.Value) ([]byte, error) {
	// Unwrap interfaces and pointers. A nil pointer encodes as the empty
	// string, which is how optional fields (e.g. a creation transaction's
	// missing recipient) are represented on the wire.
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return []byte{0x80}, nil
		}
		v = v.Elem()
	}

	if v.Type() == bigIntType {
		return encodeBigInt(v.Addr().Interface().(*big.Int)), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return []byte{0x01}, nil
		}
		return []byte{0x80}, nil

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return encodeUint(v.Uint()), nil

	case reflect.String:
		return encodeString([]byte(v.String())), nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return encodeString(v.Bytes()), nil
		}
		return encodeList(v)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return encodeString(b), nil
		}
		return encodeList(v)

	case reflect.Struct:
		return encodeStruct(v)

	case reflect.Invalid:
		return []byte{0x80}, nil

	default:
		return nil, ErrUnsupportedType
	}
}

// encodeUint serializes an unsigned integer as the shortest big-endian byte
// string with no leading zeros; zero becomes the empty string.
func encodeUint(u uint64) []byte {
	switch {
	case u == 0:
		return []byte{0x80}
	case u < 0x80:
		return []byte{byte(u)}
	default:
		return encodeString(putUintBE(u))
	}
}

func encodeBigInt(i *big.Int) []byte {
	if i.Sign() == 0 {
		return []byte{0x80}
	}
	return encodeString(i.Bytes())
}

// encodeString prepends the string header to data.
func encodeString(data []byte) []byte {
	n := len(data)
	if n == 1 && data[0] <= 0x7f {
		// Single bytes below 0x80 are their own encoding.
		return []byte{data[0]}
	}
	if n <= 55 {
		out := make([]byte, 0, 1+n)
		out = append(out, 0x80+byte(n))
		return append(out, data...)
	}
	size := putUintBE(uint64(n))
	out := make([]byte, 0, 1+len(size)+n)
	out = append(out, 0xb7+byte(len(size)))
	out = append(out, size...)
	return append(out, data...)
}

func encodeList(v reflect.Value) ([]byte, error) {
	var payload []byte
	for i := 0; i < v.Len(); i++ {
		enc, err := encodeValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return wrapList(payload), nil
}

func encodeStruct(v reflect.Value) ([]byte, error) {
	var payload []byte
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		enc, err := encodeValue(v.Field(i))
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return wrapList(payload), nil
}

// WrapList wraps an already-encoded sequence of items in a list header.
func WrapList(payload []byte) []byte {
	return wrapList(payload)
}

func wrapList(payload []byte) []byte {
	n := len(payload)
	if n <= 55 {
		out := make([]byte, 0, 1+n)
		out = append(out, 0xc0+byte(n))
		return append(out, payload...)
	}
	size := putUintBE(uint64(n))
	out := make([]byte, 0, 1+len(size)+n)
	out = append(out, 0xf7+byte(len(size)))
	out = append(out, size...)
	return append(out, payload...)
}

// putUintBE encodes u as big-endian with no leading zeros.
func putUintBE(u uint64) []byte {
	var buf [8]byte
	n := 0
	for i := 7; i >= 0; i-- {
		buf[i] = byte(u)
		u >>= 8
		if buf[i] != 0 {
			n = 8 - i
		}
	}
	return buf[8-n:]
}
