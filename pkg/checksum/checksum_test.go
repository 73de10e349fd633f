package checksum

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashers(t *testing.T) {
	data := []byte("vfe snapshot payload")

	for _, typ := range []Type{TypeXXHash, TypeCRC32C} {
		t.Run(string(typ), func(t *testing.T) {
			h, err := New(typ)
			require.NoError(t, err)
			assert.Equal(t, string(typ), h.Name())

			sum := h.Sum(data)
			assert.True(t, h.Verify(data, sum))
			assert.False(t, h.Verify([]byte("other"), sum))
		})
	}

	assert.Equal(t, uint32(xxhash.Sum64(data)), Default().Sum(data))
	assert.Equal(t, xxhash.Sum64(data), Sum64(data))

	_, err := New("md5")
	assert.Error(t, err)
}
