package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForEachDescendingChunk_CoversWindowDescending(t *testing.T) {
	var chunks [][2]int32
	err := forEachDescendingChunk(10, 25, 10, func(chunkMin, chunkMax int32) error {
		chunks = append(chunks, [2]int32{chunkMin, chunkMax})
		return nil
	})
	assert.NoError(t, err)
	// [16,25] then [10,15]: chunk boundaries never cross below min, and the
	// first chunk emitted is the highest one.
	assert.Equal(t, [][2]int32{{16, 25}, {10, 15}}, chunks)
}

func TestForEachDescendingChunk_ExactMultipleOfChunkSize(t *testing.T) {
	var chunks [][2]int32
	err := forEachDescendingChunk(0, 19, 10, func(chunkMin, chunkMax int32) error {
		chunks = append(chunks, [2]int32{chunkMin, chunkMax})
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, [][2]int32{{10, 19}, {0, 9}}, chunks)
}

func TestForEachDescendingChunk_SingleIDWindow(t *testing.T) {
	var chunks [][2]int32
	err := forEachDescendingChunk(5, 5, 10, func(chunkMin, chunkMax int32) error {
		chunks = append(chunks, [2]int32{chunkMin, chunkMax})
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, [][2]int32{{5, 5}}, chunks)
}

func TestForEachDescendingChunk_StopsOnFirstError(t *testing.T) {
	calls := 0
	boom := assertErr{}
	err := forEachDescendingChunk(0, 29, 10, func(chunkMin, chunkMax int32) error {
		calls++
		if chunkMax == 19 {
			return boom
		}
		return nil
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 2, calls)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
