package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsOnPut(t *testing.T) {
	created := 0
	p := NewPool(func() *bytes.Buffer { created++; return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

	b := p.Get()
	assert.Equal(t, 1, created)
	b.WriteString("dirty")
	p.Put(b)
	assert.Zero(t, b.Len())

	assert.Zero(t, p.Get().Len())
}
