// Package crypto 设备签名相关的密码学原语
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
)

const (
	// PublicKeySize 压缩格式 P-256 公钥长度
	PublicKeySize = 33
	// SignatureSize 原始 r||s 签名长度
	SignatureSize = 64
)

var (
	ErrInvalidPublicKey = errors.New("crypto: invalid compressed p256 public key")
	ErrInvalidSignature = errors.New("crypto: malformed p256 signature")
)

// ParseCompressedP256 解析 33 字节 SEC1 压缩公钥
func ParseCompressedP256(pk []byte) (*ecdsa.PublicKey, error) {
	if len(pk) != PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	curve := elliptic.P256()
	x, y := elliptic.UnmarshalCompressed(curve, pk)
	if x == nil {
		return nil, ErrInvalidPublicKey
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// VerifyP256 校验设备签名
// msg 为原始消息，内部使用 SHA-256 摘要；sig 为 64 字节大端 r||s
func VerifyP256(pk []byte, msg []byte, sig []byte) (bool, error) {
	pub, err := ParseCompressedP256(pk)
	if err != nil {
		return false, err
	}
	if len(sig) != SignatureSize {
		return false, ErrInvalidSignature
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	digest := sha256.Sum256(msg)
	return ecdsa.Verify(pub, digest[:], r, s), nil
}

// CompressP256 把公钥编码成 33 字节压缩格式
func CompressP256(pub *ecdsa.PublicKey) [PublicKeySize]byte {
	var out [PublicKeySize]byte
	copy(out[:], elliptic.MarshalCompressed(elliptic.P256(), pub.X, pub.Y))
	return out
}

// SignP256 以设备私钥签名，输出与 VerifyP256 对应的 r||s 格式
// 仅设备模拟器与测试使用，生产环境的签名在设备固件中完成
func SignP256(priv *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, err
	}
	sig := make([]byte, SignatureSize)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// GenerateP256 生成一把新的设备密钥
func GenerateP256() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}
