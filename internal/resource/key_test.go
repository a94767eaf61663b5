// SPDX-License-Identifier: MIT

package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenKeyOrdering(t *testing.T) {
	low := ScreenKey(1, 0, 0)
	high := ScreenKey(2, 0, 0)
	assert.Less(t, low, high, "higher priority must sort above lower priority")

	classLow := ScreenKey(1, 1, 0)
	classHigh := ScreenKey(1, 2, 0)
	assert.Less(t, classLow, classHigh)

	// zorder dominates priority and class priority.
	withZorder := ScreenKeyWithZorder(ScreenKey(0, 0, 0), 1)
	assert.Greater(t, withZorder, ScreenKey(255, 255, 0))
}

func TestScreenKeyWithZorderPreservesOtherFields(t *testing.T) {
	key := ScreenKey(5, 9, 3)
	key2 := ScreenKeyWithZorder(key, 40)
	assert.Equal(t, uint32(40), ScreenKeyZorder(key2))

	// priority/classpri subfields unaffected.
	key3 := ScreenKeyWithZorder(key2, 0)
	assert.Equal(t, ScreenKey(5, 9, 0), key3)
}

func TestAudioKeyOrdering(t *testing.T) {
	assert.Less(t, AudioKey(1, 0, false, false, false), AudioKey(2, 0, false, false, false))
	assert.Less(t, AudioKey(1, 1, false, false, false), AudioKey(1, 2, false, false, false))
	// acquire/share/interrupt occupy the top bits, dominating priority.
	assert.Greater(t, AudioKey(0, 0, true, false, false), AudioKey(255, 255, false, false, false))
	assert.Greater(t, AudioKey(0, 0, true, true, false), AudioKey(0, 0, true, false, false))
	assert.Greater(t, AudioKey(0, 0, true, true, true), AudioKey(0, 0, true, true, false))
}

func TestInsertDescendingStableTies(t *testing.T) {
	keys := []uint32{30, 20, 20, 10}
	idx := InsertDescending(len(keys), func(i int) uint32 { return keys[i] }, 20)
	// New entry with a tied key must land after the existing ties, i.e.
	// at index 3, preserving insertion order among equal keys.
	assert.Equal(t, 3, idx)

	idx = InsertDescending(len(keys), func(i int) uint32 { return keys[i] }, 25)
	assert.Equal(t, 1, idx)

	idx = InsertDescending(len(keys), func(i int) uint32 { return keys[i] }, 5)
	assert.Equal(t, 4, idx)

	idx = InsertDescending(0, func(i int) uint32 { return 0 }, 5)
	assert.Equal(t, 0, idx)
}

func TestRebaseZorders(t *testing.T) {
	zorders := []uint32{100, 50, 75}
	keys := make([]uint32, len(zorders))
	for i, z := range zorders {
		keys[i] = ScreenKeyWithZorder(0, z)
	}
	top := RebaseZorders(len(keys),
		func(i int) uint32 { return keys[i] },
		func(i int, z uint32) { keys[i] = ScreenKeyWithZorder(keys[i], z) },
	)
	assert.Equal(t, uint32(51), top) // (100-50)+1
	assert.Equal(t, uint32(50), ScreenKeyZorder(keys[0]))
	assert.Equal(t, uint32(0), ScreenKeyZorder(keys[1]))
	assert.Equal(t, uint32(25), ScreenKeyZorder(keys[2]))
}

func TestRebaseZordersPanicsWhenUnrebasable(t *testing.T) {
	keys := []uint32{ScreenKeyWithZorder(0, 0), ScreenKeyWithZorder(0, ZorderMax-1)}
	assert.Panics(t, func() {
		RebaseZorders(len(keys),
			func(i int) uint32 { return keys[i] },
			func(i int, z uint32) { keys[i] = ScreenKeyWithZorder(keys[i], z) },
		)
	})
}

func TestRebaseZordersEmpty(t *testing.T) {
	assert.Equal(t, uint32(1), RebaseZorders(0, nil, nil))
}
