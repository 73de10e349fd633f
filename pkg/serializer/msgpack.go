// pkg/serializer/msgpack.go
package serializer

import (
	"bytes"
	"reflect"

	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/lk2023060901/vfemart/pkg/pool/bytebuff"
)

// msgpackHandle msgpack 编解码配置
// RawToString=true，map 默认解码为 map[string]interface{}
var msgpackHandle = &codec.MsgpackHandle{}

func init() {
	msgpackHandle.MapType = reflect.TypeOf(map[string]interface{}{})
	msgpackHandle.RawToString = true
}

// Encode 使用 msgpack 编码数据
func Encode(v interface{}) ([]byte, error) {
	buf := bytebuff.Get()
	defer bytebuff.Put(buf)

	enc := codec.NewEncoder(buf, msgpackHandle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// buf 会被回收复用，必须复制
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// Decode 使用 msgpack 解码数据
func Decode(data []byte, v interface{}) error {
	dec := codec.NewDecoder(bytes.NewReader(data), msgpackHandle)
	return dec.Decode(v)
}

// Msgpack 实现 Serializer 接口
type Msgpack struct{}

func (Msgpack) Serialize(v any) ([]byte, error)      { return Encode(v) }
func (Msgpack) Deserialize(data []byte, v any) error { return Decode(data, v) }
func (Msgpack) ContentType() string                  { return "application/msgpack" }

// Serializer 序列化器接口
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, v any) error
	ContentType() string
}
