package retry

import (
	"errors"
	"testing"

	"github.com/orneryd/dictionarydb/internal/dicterr"
	"github.com/stretchr/testify/assert"
)

func TestDoSucceedsAfterTransientConflict(t *testing.T) {
	attempts := 0
	err := Do(func(attempt int) error {
		attempts++
		if attempt < 2 {
			return dicterr.ErrConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDoSurfacesWriteConflictAfterMaxAttempts(t *testing.T) {
	err := Do(func(attempt int) error {
		return dicterr.ErrConflict
	})
	code, ok := dicterr.CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, dicterr.WriteConflict, code)
}

func TestDoStopsImmediatelyOnNonConflictError(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0
	err := Do(func(attempt int) error {
		attempts++
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, attempts)
}
