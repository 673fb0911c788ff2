package ctxutil

import "context"

// 使用私有类型避免与其他 context key 冲突
type (
	callerKeyType    struct{}
	requestIDKeyType struct{}
)

var (
	callerKey    = callerKeyType{}
	requestIDKey = requestIDKeyType{}
)

// WithCaller 将调用方标识注入到 context 中
// 标识只用于日志，不参与任何鉴权判断
func WithCaller(ctx context.Context, caller string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller 从 context 中解析调用方标识
func GetCaller(ctx context.Context) (string, bool) {
	return getString(ctx, callerKey)
}

// WithRequestID 将请求 ID 注入到 context 中
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID 从 context 中解析请求 ID
func GetRequestID(ctx context.Context) (string, bool) {
	return getString(ctx, requestIDKey)
}

func getString(ctx context.Context, key any) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
