package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取字段的函数类型
type ContextFieldExtractor func(ctx context.Context) []zap.Field

type ctxFieldsKey struct{}

// ContextWithFields 把 key-value 字段挂到 context 上，供 *Context 方法输出
func ContextWithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	prev, _ := ctx.Value(ctxFieldsKey{}).([]interface{})
	merged := make([]interface{}, 0, len(prev)+len(keysAndValues))
	merged = append(merged, prev...)
	merged = append(merged, keysAndValues...)
	return context.WithValue(ctx, ctxFieldsKey{}, merged)
}

// DefaultContextExtractor 取出 ContextWithFields 写入的字段
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	kv, _ := ctx.Value(ctxFieldsKey{}).([]interface{})
	return toZapFields(kv...)
}
