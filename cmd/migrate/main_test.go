package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionalVersion(t *testing.T) {
	v, ok := optionalVersion([]string{"20250101120000"})
	assert.True(t, ok)
	assert.Equal(t, int64(20250101120000), v)

	_, ok = optionalVersion(nil)
	assert.False(t, ok)

	_, ok = optionalVersion([]string{"add_index"})
	assert.False(t, ok)
}
