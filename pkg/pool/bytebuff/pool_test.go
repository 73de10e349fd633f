package bytebuff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolGetPut(t *testing.T) {
	p := &Pool{}

	buf := p.Get()
	_, _ = buf.WriteString("snapshot")
	assert.Equal(t, "snapshot", buf.String())
	p.Put(buf)
	p.Put(nil)

	reused := p.Get()
	assert.Equal(t, 0, reused.Len())
	p.Put(reused)

	gets, puts := p.Stats()
	assert.Equal(t, uint64(2), gets)
	assert.Equal(t, uint64(2), puts)
}
