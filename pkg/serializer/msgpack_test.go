package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Height uint64            `codec:"height"`
	Key    [4]byte           `codec:"key"`
	Tags   map[string]uint32 `codec:"tags"`
	Opt    *uint32           `codec:"opt"`
}

func TestEncodeDecode(t *testing.T) {
	seven := uint32(7)
	in := sample{Height: 42, Key: [4]byte{1, 2, 3, 4}, Tags: map[string]uint32{"a": 1}, Opt: &seven}

	data, err := Encode(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Decode(data, &out))
	assert.Equal(t, in.Height, out.Height)
	assert.Equal(t, in.Key, out.Key)
	assert.Equal(t, in.Tags, out.Tags)
	require.NotNil(t, out.Opt)
	assert.Equal(t, seven, *out.Opt)

	var s Serializer = Msgpack{}
	assert.Equal(t, "application/msgpack", s.ContentType())
	assert.Error(t, s.Deserialize([]byte{0xc1}, &out))
}
