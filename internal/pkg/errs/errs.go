// Package errs 定义转发链路的错误分类。
//
// 所有内部失败都以 *Error 返回，Status 与 Public 是唯一把错误翻译为
// 调用方可见内容的地方：400 类错误原样展示消息，500 类错误只暴露分类名，
// 详细信息只进入日志。
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类
type Kind int

const (
	KindInternal            Kind = iota // 未预期的内部错误
	KindBadRequest                      // 请求体缺失/非法
	KindUpstreamTimeout                 // 生成服务超时
	KindUpstreamUnavailable             // 无法连接生成服务
	KindUpstreamStatus                  // 生成服务返回非 2xx
	KindUpstreamMalformed               // 生成服务返回体无法解析或缺少字段
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindBadRequest:          "bad_request",
	KindUpstreamTimeout:     "upstream_timeout",
	KindUpstreamUnavailable: "upstream_unavailable",
	KindUpstreamStatus:      "upstream_status",
	KindUpstreamMalformed:   "upstream_malformed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error 带分类的错误
type Error struct {
	Kind       Kind
	Message    string // 诊断信息；仅 KindBadRequest 会展示给调用方
	StatusCode int    // 上游 HTTP 状态码 (KindUpstreamStatus)
	Body       string // 截断后的上游响应体 (KindUpstreamStatus)
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建指定分类的错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 用分类包装底层错误
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// BadRequest 创建客户端错误
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// KindOf 返回错误分类，非 *Error 一律视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status 将错误映射为 HTTP 状态码
func Status(err error) int {
	if KindOf(err) == KindBadRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Public 返回调用方可见的错误消息
func Public(err error) string {
	kind := KindOf(err)
	if kind == KindBadRequest {
		var e *Error
		errors.As(err, &e)
		return e.Message
	}
	return "internal server error: " + kind.String()
}

// Truncate 按字符截断字符串，用于记录上游响应体
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
