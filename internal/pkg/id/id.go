package id

import (
	"github.com/google/uuid"
)

// 透传请求 ID 的最大长度
const maxRequestIDLen = 128

// New 生成新的请求 ID
func New() string {
	return uuid.NewString()
}

// FromHeader 复用调用方传入的请求 ID，为空或含不可见字符时生成新的
func FromHeader(v string) string {
	if v == "" || len(v) > maxRequestIDLen {
		return New()
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return New()
		}
	}
	return v
}
