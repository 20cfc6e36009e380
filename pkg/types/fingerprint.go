package types

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// Fingerprint is an order-independent digest over the (FirstName, LastName)
// multiset of a customer set. Two sets with equal fingerprints and equal
// lengths hold the same names with overwhelming probability.
type Fingerprint uint64

// String returns the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// FingerprintOf computes the fingerprint of customers. Identifiers are not
// part of the digest.
func FingerprintOf(customers []*Customer) Fingerprint {
	var sum uint64
	buf := make([]byte, 0, 80)
	for _, c := range customers {
		buf = buf[:0]
		buf = append(buf, c.FirstName...)
		buf = append(buf, 0)
		buf = append(buf, c.LastName...)
		// Addition keeps duplicates distinguishable, unlike xor.
		sum += murmur3.Sum64(buf)
	}
	return Fingerprint(sum)
}
