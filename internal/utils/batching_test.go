package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchBuffer(t *testing.T) {
	buffer := NewBatchBuffer[string]()
	assert.False(t, buffer.HasData())
	assert.Nil(t, buffer.GetAndClear())

	buffer.Add("a")
	buffer.Add("b")
	assert.Equal(t, 2, buffer.Size())
	assert.True(t, buffer.HasData())

	batch := buffer.GetAndClear()
	assert.Equal(t, []string{"a", "b"}, batch)
	assert.Equal(t, 0, buffer.Size())
}
