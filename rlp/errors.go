package rlp

import "errors"

var (
	// ErrExpectedString is returned when a list is found where a string was
	// expected.
	ErrExpectedString = errors.New("rlp: expected string")

	// ErrExpectedList is returned when a string is found where a list was
	// expected.
	ErrExpectedList = errors.New("rlp: expected list")

	// ErrTruncated is returned when the input ends inside an item.
	ErrTruncated = errors.New("rlp: input truncated")

	// ErrCanonSize is returned when an item uses a non-canonical size prefix.
	ErrCanonSize = errors.New("rlp: non-canonical size information")

	// ErrCanonInt is returned when an integer is encoded with leading zeros.
	ErrCanonInt = errors.New("rlp: non-canonical integer encoding")

	// ErrUintOverflow is returned when a decoded integer exceeds the target
	// type's range.
	ErrUintOverflow = errors.New("rlp: integer overflow")

	// ErrElemCount is returned when a decoded list has the wrong number of
	// elements for the target struct.
	ErrElemCount = errors.New("rlp: wrong number of list elements")

	// ErrUnsupportedType is returned when a value cannot be encoded or
	// decoded.
	ErrUnsupportedType = errors.New("rlp: unsupported type")
)
