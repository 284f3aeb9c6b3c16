package determinism_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edutools/fbgen/internal/determinism"
)

func TestGenerateSeed(t *testing.T) {
	t.Run("generates consistent seed for same inputs", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("ref", "sub", "main.c")
		seed2 := determinism.GenerateSeed("ref", "sub", "main.c")

		assert.Equal(t, seed1, seed2, "seed should be deterministic for same inputs")
	})

	t.Run("generates different seeds for different files", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("ref", "sub", "a.c")
		seed2 := determinism.GenerateSeed("ref", "sub", "b.c")

		assert.NotEqual(t, seed1, seed2, "different inputs should produce different seeds")
	})

	t.Run("generates different seeds when parts are swapped", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("ref", "sub")
		seed2 := determinism.GenerateSeed("sub", "ref")

		assert.NotEqual(t, seed1, seed2, "swapped parts should produce different seeds")
	})

	t.Run("handles empty parts", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("", "")
		seed2 := determinism.GenerateSeed("", "")

		assert.Equal(t, seed1, seed2, "empty parts should still produce deterministic seed")
	})

	t.Run("fits in a signed 64-bit integer", func(t *testing.T) {
		seed := determinism.GenerateSeed("ref", "sub", "main.c")

		assert.LessOrEqual(t, seed, uint64(0x7FFFFFFFFFFFFFFF))
	})
}
