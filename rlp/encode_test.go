package rlp

import (
	"bytes"
	"math/big"
	"strings"
	"testing"
)

func TestEncodeEmptyString(t *testing.T) {
	enc, err := EncodeToBytes([]byte{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, []byte{0x80}) {
		t.Fatalf("encode(\"\") = %x, want 80", enc)
	}
}

func TestEncodeSingleBytes(t *testing.T) {
	for _, b := range []byte{0x00, 0x01, 0x7f} {
		enc, err := EncodeToBytes([]byte{b})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(enc, []byte{b}) {
			t.Fatalf("encode(%#x) = %x, want the byte itself", b, enc)
		}
	}
	// 0x80 no longer encodes as itself.
	enc, _ := EncodeToBytes([]byte{0x80})
	if !bytes.Equal(enc, []byte{0x81, 0x80}) {
		t.Fatalf("encode(0x80) = %x, want 8180", enc)
	}
}

func TestEncodeShortString(t *testing.T) {
	enc, err := EncodeToBytes([]byte{0x04, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, []byte{0x82, 0x04, 0x00}) {
		t.Fatalf("encode(0400) = %x, want 820400", enc)
	}
}

func TestEncodeLongString(t *testing.T) {
	// A 60-byte string needs the long-string form: 0xb8, length, payload.
	payload := []byte(strings.Repeat("A", 60))
	enc, err := EncodeToBytes(payload)
	if err != nil {
		t.Fatal(err)
	}
	want := append([]byte{0xb8, 0x3c}, payload...)
	if !bytes.Equal(enc, want) {
		t.Fatalf("encode(60*A) = %x, want %x", enc, want)
	}
}

func TestEncodeNestedEmptyLists(t *testing.T) {
	// The set-theoretic representation of three:
	// [ [], [[]], [ [], [[]] ] ].
	val := []interface{}{
		[]interface{}{},
		[]interface{}{[]interface{}{}},
		[]interface{}{[]interface{}{}, []interface{}{[]interface{}{}}},
	}
	enc, err := EncodeToBytes(val)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xc7, 0xc0, 0xc1, 0xc0, 0xc3, 0xc0, 0xc1, 0xc0}
	if !bytes.Equal(enc, want) {
		t.Fatalf("encode = %x, want %x", enc, want)
	}
}

func TestEncodeUint(t *testing.T) {
	tests := []struct {
		in   uint64
		want []byte
	}{
		{0, []byte{0x80}},
		{15, []byte{0x0f}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x80}},
		{1024, []byte{0x82, 0x04, 0x00}},
		{0xFFFFFF, []byte{0x83, 0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		enc, err := EncodeToBytes(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(enc, tt.want) {
			t.Errorf("encode(%d) = %x, want %x", tt.in, enc, tt.want)
		}
	}
}

func TestEncodeBigInt(t *testing.T) {
	enc, err := EncodeToBytes(big.NewInt(0))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, []byte{0x80}) {
		t.Fatalf("encode(big 0) = %x, want 80", enc)
	}
	v, _ := new(big.Int).SetString("102030405060708090a0b0c0d0e0f2", 16)
	enc, err = EncodeToBytes(v)
	if err != nil {
		t.Fatal(err)
	}
	want := append([]byte{0x8f}, v.Bytes()...)
	if !bytes.Equal(enc, want) {
		t.Fatalf("encode(bigint) = %x, want %x", enc, want)
	}
}

func TestEncodeString(t *testing.T) {
	enc, err := EncodeToBytes("dog")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, []byte{0x83, 'd', 'o', 'g'}) {
		t.Fatalf("encode(dog) = %x", enc)
	}
}

func TestEncodeStringList(t *testing.T) {
	enc, err := EncodeToBytes([]string{"cat", "dog"})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xc8, 0x83, 'c', 'a', 't', 0x83, 'd', 'o', 'g'}
	if !bytes.Equal(enc, want) {
		t.Fatalf("encode([cat dog]) = %x, want %x", enc, want)
	}
}

func TestEncodeStruct(t *testing.T) {
	type item struct {
		A uint64
		B []byte
	}
	enc, err := EncodeToBytes(&item{A: 1, B: []byte{0x02}})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xc2, 0x01, 0x02}
	if !bytes.Equal(enc, want) {
		t.Fatalf("encode(struct) = %x, want %x", enc, want)
	}
}

func TestEncodeNilPointer(t *testing.T) {
	type item struct {
		To *[20]byte
	}
	enc, err := EncodeToBytes(&item{})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xc1, 0x80}
	if !bytes.Equal(enc, want) {
		t.Fatalf("encode(nil ptr field) = %x, want %x", enc, want)
	}
}

func TestEncodeByteArray(t *testing.T) {
	var h [32]byte
	h[31] = 1
	enc, err := EncodeToBytes(h)
	if err != nil {
		t.Fatal(err)
	}
	if enc[0] != 0xa0 || len(enc) != 33 {
		t.Fatalf("encode([32]byte) = %x", enc)
	}
}
