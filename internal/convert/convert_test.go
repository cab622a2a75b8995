package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIntegerRejectsFraction(t *testing.T) {
	assert.True(t, IsInteger(float64(3)))
	assert.False(t, IsInteger(3.5))
}

func TestIsNumber(t *testing.T) {
	assert.True(t, IsNumber(3.5))
	assert.False(t, IsNumber("3.5"))
}

func TestAsStringRejectsNonString(t *testing.T) {
	_, ok := AsString(42.0)
	assert.False(t, ok)
	s, ok := AsString("hi")
	assert.True(t, ok)
	assert.Equal(t, "hi", s)
}
