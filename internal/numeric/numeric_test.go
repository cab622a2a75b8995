package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestInclusiveRangeBoundsAreValid(t *testing.T) {
	r := Range{Min: f(0), Max: f(10)}
	assert.True(t, InInclusiveRange(0, r))
	assert.True(t, InInclusiveRange(10, r))
	assert.False(t, InInclusiveRange(10.01, r))
}

func TestExclusiveRangeBoundsAreInvalid(t *testing.T) {
	r := Range{Min: f(0), Max: f(10)}
	assert.False(t, InExclusiveRange(0, r))
	assert.False(t, InExclusiveRange(10, r))
	assert.True(t, InExclusiveRange(5, r))
}

func TestUnboundedSide(t *testing.T) {
	r := Range{Min: f(0)}
	assert.True(t, InInclusiveRange(1e9, r))
	assert.False(t, InInclusiveRange(-1, r))
}
