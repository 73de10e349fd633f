package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // 与设备固件约定的摘要算法
)

// RIPEMD160 计算 20 字节摘要
func RIPEMD160(data []byte) [ripemd160.Size]byte {
	var out [ripemd160.Size]byte
	h := ripemd160.New()
	h.Write(data)
	copy(out[:], h.Sum(nil))
	return out
}

// BindChallenge 构造设备绑定挑战消息：nonce(u32 LE) || RIPEMD160(account)
func BindChallenge(nonce uint32, account []byte) []byte {
	digest := RIPEMD160(account)
	msg := make([]byte, 4+len(digest))
	binary.LittleEndian.PutUint32(msg[:4], nonce)
	copy(msg[4:], digest[:])
	return msg
}
