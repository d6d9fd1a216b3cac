package rlp

import (
	"io"
	"math/big"
	"reflect"
)

// Kind is the type tag of an RLP item.
type Kind int

const (
	// Byte is a single byte in [0x00, 0x7f].
	Byte Kind = iota
	// String is an RLP byte string (including the empty string).
	String
	// List is an RLP list.
	List
)

// Decode reads an RLP-encoded value from r into the value pointed to by val.
func Decode(r io.Reader, val interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return DecodeBytes(data, val)
}

// DecodeBytes decodes b into the value pointed to by val. The whole input
// must be consumed by a single top-level item.
func DecodeBytes(b []byte, val interface{}) error {
	item, rest, err := splitItem(b)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return ErrCanonSize
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ErrUnsupportedType
	}
	return decodeItem(item, rv.Elem())
}

// item is one parsed RLP value: its kind and raw payload. For lists the
// payload is the concatenation of the encoded elements.
type item struct {
	kind    Kind
	payload []byte
}

// splitItem parses one item from the front of data and returns it together
// with the remaining bytes. Non-canonical encodings are rejected so that
// decode(encode(x)) == x implies byte equality of re-encodings.
func splitItem(data []byte) (item, []byte, error) {
	if len(data) == 0 {
		return item{}, nil, ErrTruncated
	}
	prefix := data[0]
	switch {
	case prefix <= 0x7f:
		return item{Byte, data[:1]}, data[1:], nil

	case prefix <= 0xb7:
		size := int(prefix - 0x80)
		if 1+size > len(data) {
			return item{}, nil, ErrTruncated
		}
		if size == 1 && data[1] <= 0x7f {
			return item{}, nil, ErrCanonSize
		}
		return item{String, data[1 : 1+size]}, data[1+size:], nil

	case prefix <= 0xbf:
		size, content, rest, err := splitLong(data, prefix-0xb7)
		if err != nil {
			return item{}, nil, err
		}
		if size <= 55 {
			return item{}, nil, ErrCanonSize
		}
		return item{String, content}, rest, nil

	case prefix <= 0xf7:
		size := int(prefix - 0xc0)
		if 1+size > len(data) {
			return item{}, nil, ErrTruncated
		}
		return item{List, data[1 : 1+size]}, data[1+size:], nil

	default:
		size, content, rest, err := splitLong(data, prefix-0xf7)
		if err != nil {
			return item{}, nil, err
		}
		if size <= 55 {
			return item{}, nil, ErrCanonSize
		}
		return item{List, content}, rest, nil
	}
}

// splitLong handles the "length of length" form shared by long strings and
// long lists.
func splitLong(data []byte, lenOfLen byte) (int, []byte, []byte, error) {
	n := int(lenOfLen)
	if 1+n > len(data) {
		return 0, nil, nil, ErrTruncated
	}
	sizeBytes := data[1 : 1+n]
	if sizeBytes[0] == 0 {
		return 0, nil, nil, ErrCanonSize
	}
	var size uint64
	for _, b := range sizeBytes {
		size = size<<8 | uint64(b)
	}
	if size > uint64(len(data)) {
		return 0, nil, nil, ErrTruncated
	}
	end := 1 + n + int(size)
	if end > len(data) {
		return 0, nil, nil, ErrTruncated
	}
	return int(size), data[1+n : end], data[end:], nil
}

// splitList splits a list payload into its top-level items.
func splitList(payload []byte) ([]item, error) {
	var items []item
	for len(payload) > 0 {
		it, rest, err := splitItem(payload)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		payload = rest
	}
	return items, nil
}

func decodeItem(it item, v reflect.Value) error {
	// Pointers are allocated on demand. A pointer to a byte array decodes
	// the empty string as nil (optional field).
	if v.Kind() == reflect.Ptr {
		if v.Type().Elem() == bigIntType {
			if v.IsNil() {
				v.Set(reflect.New(bigIntType))
			}
			return decodeBigInt(it, v.Interface().(*big.Int))
		}
		if it.kind != List && len(it.payload) == 0 {
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return decodeItem(it, v.Elem())
	}

	if v.Type() == bigIntType {
		return decodeBigInt(it, v.Addr().Interface().(*big.Int))
	}

	switch v.Kind() {
	case reflect.Bool:
		if it.kind == List {
			return ErrExpectedString
		}
		switch {
		case len(it.payload) == 0:
			v.SetBool(false)
		case len(it.payload) == 1 && it.payload[0] == 1:
			v.SetBool(true)
		default:
			return ErrCanonInt
		}
		return nil

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		u, err := decodeUint(it)
		if err != nil {
			return err
		}
		if v.OverflowUint(u) {
			return ErrUintOverflow
		}
		v.SetUint(u)
		return nil

	case reflect.String:
		if it.kind == List {
			return ErrExpectedString
		}
		v.SetString(string(it.payload))
		return nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if it.kind == List {
				return ErrExpectedString
			}
			b := make([]byte, len(it.payload))
			copy(b, it.payload)
			v.SetBytes(b)
			return nil
		}
		return decodeSlice(it, v)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return decodeByteArray(it, v)
		}
		return decodeFixedList(it, v)

	case reflect.Struct:
		return decodeStruct(it, v)

	default:
		return ErrUnsupportedType
	}
}

func decodeUint(it item) (uint64, error) {
	if it.kind == List {
		return 0, ErrExpectedString
	}
	p := it.payload
	switch {
	case len(p) == 0:
		return 0, nil
	case p[0] == 0:
		return 0, ErrCanonInt
	case len(p) > 8:
		return 0, ErrUintOverflow
	}
	var u uint64
	for _, b := range p {
		u = u<<8 | uint64(b)
	}
	return u, nil
}

func decodeBigInt(it item, dst *big.Int) error {
	if it.kind == List {
		return ErrExpectedString
	}
	if len(it.payload) > 0 && it.payload[0] == 0 {
		return ErrCanonInt
	}
	dst.SetBytes(it.payload)
	return nil
}

func decodeByteArray(it item, v reflect.Value) error {
	if it.kind == List {
		return ErrExpectedString
	}
	if len(it.payload) != v.Len() {
		return ErrUnsupportedType
	}
	reflect.Copy(v, reflect.ValueOf(it.payload))
	return nil
}

func decodeSlice(it item, v reflect.Value) error {
	if it.kind != List {
		return ErrExpectedList
	}
	items, err := splitList(it.payload)
	if err != nil {
		return err
	}
	out := reflect.MakeSlice(v.Type(), len(items), len(items))
	for i, elem := range items {
		if err := decodeItem(elem, out.Index(i)); err != nil {
			return err
		}
	}
	v.Set(out)
	return nil
}

func decodeFixedList(it item, v reflect.Value) error {
	if it.kind != List {
		return ErrExpectedList
	}
	items, err := splitList(it.payload)
	if err != nil {
		return err
	}
	if len(items) != v.Len() {
		return ErrElemCount
	}
	for i, elem := range items {
		if err := decodeItem(elem, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func decodeStruct(it item, v reflect.Value) error {
	if it.kind != List {
		return ErrExpectedList
	}
	items, err := splitList(it.payload)
	if err != nil {
		return err
	}
	t := v.Type()
	idx := 0
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		if idx >= len(items) {
			return ErrElemCount
		}
		if err := decodeItem(items[idx], v.Field(i)); err != nil {
			return err
		}
		idx++
	}
	if idx != len(items) {
		return ErrElemCount
	}
	return nil
}
