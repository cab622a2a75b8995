package dicthash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeKeyIsDeterministic(t *testing.T) {
	a := EdgeKey("terms/root", "enum-of", "terms/child")
	b := EdgeKey("terms/root", "enum-of", "terms/child")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestEdgeKeyDistinguishesTriples(t *testing.T) {
	a := EdgeKey("terms/root", "enum-of", "terms/child")
	b := EdgeKey("terms/root", "field-of", "terms/child")
	c := EdgeKey("terms/other", "enum-of", "terms/child")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestChangeHashDistinguishesPositions(t *testing.T) {
	p1 := ChangePath("items", "0", "code")
	p2 := ChangePath("items", "1", "code")
	assert.NotEqual(t, ChangeHash(p1), ChangeHash(p2))
}
