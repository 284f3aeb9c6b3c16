package determinism

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// GenerateSeed creates a deterministic uint64 seed from the run scope parts
// (reference, submission, file path). The seed is derived from a SHA-256
// hash of the delimiter-joined parts, ensuring reproducibility for the same
// inputs.
// The returned value is guaranteed to be <= math.MaxInt64 to stay
// compatible with generation APIs that use signed int64 for seeds.
func GenerateSeed(parts ...string) uint64 {
	input := strings.Join(parts, "|")

	hash := sha256.Sum256([]byte(input))

	seed := binary.BigEndian.Uint64(hash[:8])

	// Mask off the high bit so the value fits in int64
	seed = seed & 0x7FFFFFFFFFFFFFFF

	return seed
}
