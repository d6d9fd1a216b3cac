package types

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// BloomBitLength is the number of bits in a log bloom (2048).
const BloomBitLength = 8 * BloomLength

// bloom9 computes the three bloom bit positions for an entry: the first six
// bytes of keccak256(data), read as three big-endian uint16 values mod 2048.
func bloom9(data []byte) [3]uint {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	h := d.Sum(nil)
	var bits [3]uint
	for i := 0; i < 3; i++ {
		bits[i] = uint(binary.BigEndian.Uint16(h[2*i:])) & (BloomBitLength - 1)
	}
	return bits
}

// Add sets the three bloom bits derived from data. Bit 0 is the low bit of
// the last byte of the filter.
func (b *Bloom) Add(data []byte) {
	for _, bit := range bloom9(data) {
		b[BloomLength-1-bit/8] |= 1 << (bit % 8)
	}
}

// Contains reports whether the filter may contain data (all three bits set).
func (b Bloom) Contains(data []byte) bool {
	for _, bit := range bloom9(data) {
		if b[BloomLength-1-bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// Or merges another bloom filter into b.
func (b *Bloom) Or(other Bloom) {
	for i := range b {
		b[i] |= other[i]
	}
}

// LogsBloom computes the bloom filter over a set of logs: each log
// contributes its address and every topic.
func LogsBloom(logs []*Log) Bloom {
	var bloom Bloom
	for _, l := range logs {
		bloom.Add(l.Address.Bytes())
		for _, topic := range l.Topics {
			bloom.Add(topic.Bytes())
		}
	}
	return bloom
}

// CreateBloom combines the blooms of a list of receipts, for the header's
// logs-bloom field.
func CreateBloom(receipts []*Receipt) Bloom {
	var bloom Bloom
	for _, r := range receipts {
		bloom.Or(r.Bloom)
	}
	return bloom
}
