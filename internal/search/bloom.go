package search

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// bloomFilter is a fixed-size bit array bloom filter with k hash
// functions derived from two xxhash digests via double hashing
// (Kirsch-Mitzenmacher), avoiding the cost of k independent hashers.
type bloomFilter struct {
	bits []uint64
	m    uint64 // bit count
	k    int
}

func newBloomFilter(expectedItems int) *bloomFilter {
	if expectedItems < 1 {
		expectedItems = 1
	}
	const falsePositiveRate = 0.01
	m := optimalBits(expectedItems, falsePositiveRate)
	k := optimalHashCount(expectedItems, m)
	return &bloomFilter{
		bits: make([]uint64, (m+63)/64),
		m:    uint64(m),
		k:    k,
	}
}

func optimalBits(n int, p float64) int {
	m := -float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)
	if m < 64 {
		m = 64
	}
	return int(m)
}

func optimalHashCount(n, m int) int {
	k := int(math.Round(float64(m) / float64(n) * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > 16 {
		k = 16
	}
	return k
}

func (b *bloomFilter) hashes(data []byte) (uint64, uint64) {
	h1 := xxhash.Sum64(data)
	h2 := xxhash.Sum64String("salt:" + string(data))
	return h1, h2
}

// Add records data as present in the filter.
func (b *bloomFilter) Add(data []byte) {
	h1, h2 := b.hashes(data)
	for i := 0; i < b.k; i++ {
		pos := (h1 + uint64(i)*h2) % b.m
		b.bits[pos/64] |= 1 << (pos % 64)
	}
}

// MightContain reports whether data may have been added. A false
// result is a guarantee data was never added; a true result may be a
// false positive.
func (b *bloomFilter) MightContain(data []byte) bool {
	h1, h2 := b.hashes(data)
	for i := 0; i < b.k; i++ {
		pos := (h1 + uint64(i)*h2) % b.m
		if b.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}
