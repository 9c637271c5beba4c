package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a…@e….com", MaskEmail("Ana@Example.com"))
	assert.Equal(t, "a…@e….co.uk", MaskEmail("ana@example.co.uk"))
	assert.Equal(t, "", MaskEmail(""))
	assert.Equal(t, "***", MaskEmail("ab"))
	assert.Equal(t, "n…a", MaskEmail("no-arroba"))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "ih_abc…", MaskKey("ih_abcdef0123456789"))
	assert.Equal(t, "***", MaskKey("ih_a"))
}
