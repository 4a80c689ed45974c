package handlers_test

import (
	"fmt"
	"testing"

	"github.com/on-the-ground/effect_ive_loop/effects/internal/handlers"
	"github.com/stretchr/testify/assert"
)

func TestPartitionIndex_StableAndInRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("key-%d", i)
		idx := handlers.PartitionIndex(key, 7)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 7)
		assert.Equal(t, idx, handlers.PartitionIndex(key, 7), "same key must map to same partition")
	}
}

func TestPartitionIndex_SinglePartition(t *testing.T) {
	assert.Equal(t, 0, handlers.PartitionIndex("anything", 1))
}

func TestPartitionIndex_ZeroPartitionsPanics(t *testing.T) {
	assert.Panics(t, func() {
		handlers.PartitionIndex("k", 0)
	})
}
