package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试签名与校验往返
func TestVerifyP256(t *testing.T) {
	priv, err := GenerateP256()
	require.NoError(t, err)
	pk := CompressP256(&priv.PublicKey)

	msg := []byte("training report")
	sig, err := SignP256(priv, msg)
	require.NoError(t, err)
	require.Len(t, sig, SignatureSize)

	ok, err := VerifyP256(pk[:], msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyP256(pk[:], []byte("tampered"), sig)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := GenerateP256()
	require.NoError(t, err)
	otherPk := CompressP256(&other.PublicKey)
	ok, err = VerifyP256(otherPk[:], msg, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

// 测试非法输入
func TestVerifyP256Malformed(t *testing.T) {
	priv, err := GenerateP256()
	require.NoError(t, err)
	pk := CompressP256(&priv.PublicKey)

	_, err = VerifyP256(pk[:32], []byte("m"), make([]byte, SignatureSize))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	bad := pk
	bad[0] = 0x05
	_, err = VerifyP256(bad[:], []byte("m"), make([]byte, SignatureSize))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = VerifyP256(pk[:], []byte("m"), make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

// 测试 RIPEMD160 已知向量
func TestRIPEMD160(t *testing.T) {
	empty := RIPEMD160(nil)
	assert.Equal(t, "9c1185a5c5e9fc54612808977ee8f548b2258d31", hex.EncodeToString(empty[:]))

	abc := RIPEMD160([]byte("abc"))
	assert.Equal(t, "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc", hex.EncodeToString(abc[:]))
}

func TestBindChallenge(t *testing.T) {
	msg := BindChallenge(0x01020304, []byte("abc"))
	require.Len(t, msg, 24)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, msg[:4])
	digest := RIPEMD160([]byte("abc"))
	assert.Equal(t, digest[:], msg[4:])
}
