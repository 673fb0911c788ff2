package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"chatrelay/internal/config"
	"chatrelay/internal/metrics"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/version"
)

// GeneratePath 生成服务的固定路径
const GeneratePath = "/generate"

// 上游错误响应体记录到日志时的最大字符数
const maxErrorBodyChars = 500

// GenerateRequest 发往生成服务的请求
type GenerateRequest struct {
	Prompt       string  `json:"prompt"`
	MaxNewTokens int     `json:"max_new_tokens"`
	DoSample     bool    `json:"do_sample"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
}

// GenerateResponse 生成服务的响应，只关心 generated_text
type GenerateResponse struct {
	GeneratedText *string `json:"generated_text"`
}

// NewGenerateRequest 使用固定的生成参数构造请求，只有 prompt 随调用变化
func NewGenerateRequest(prompt string) *GenerateRequest {
	return &GenerateRequest{
		Prompt:       prompt,
		MaxNewTokens: 512,
		DoSample:     true,
		Temperature:  0.7,
		TopP:         0.9,
	}
}

// Client 生成服务客户端
// 每次调用只发起一次 POST，不重试
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient 创建生成服务客户端
func NewClient(cfg *config.GenerationConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation config: %w", err)
	}

	c := &Client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + GeneratePath,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint 返回完整的生成接口地址
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Generate 调用生成服务并返回 generated_text
// authorization 非空时原样放入 Authorization 头
func (c *Client) Generate(ctx context.Context, prompt, authorization string) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, prompt, authorization)
	metrics.ObserveUpstream(err, time.Since(start))
	return text, err
}

func (c *Client) generate(ctx context.Context, prompt, authorization string) (string, error) {
	payload, err := json.Marshal(NewGenerateRequest(prompt))
	if err != nil {
		return "", errs.Wrap(errs.KindInternal, "failed to encode generation request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errs.Wrap(errs.KindInternal, "failed to build generation request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	log.Ctx(ctx).Debug().
		Str("endpoint", c.endpoint).
		RawJSON("payload", payload).
		Bool("authorization", authorization != "").
		Msg("calling generation service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &errs.Error{
			Kind:       errs.KindUpstreamStatus,
			Message:    "generation service returned non-2xx",
			StatusCode: resp.StatusCode,
			Body:       errs.Truncate(string(body), maxErrorBodyChars),
		}
	}

	var result GenerateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", errs.Wrap(errs.KindUpstreamMalformed, "unexpected generation response shape", err)
		}
		return "", errs.Wrap(errs.KindUpstreamMalformed, "generation response is not valid JSON", err)
	}
	if result.GeneratedText == nil {
		return "", errs.New(errs.KindUpstreamMalformed, "no 'generated_text' in generation response")
	}

	log.Ctx(ctx).Debug().
		Int("status", resp.StatusCode).
		Int("generated_chars", len([]rune(*result.GeneratedText))).
		Msg("generation service responded")

	return *result.GeneratedText, nil
}

// classifyTransportError 区分超时与连接失败
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.KindUpstreamTimeout, "generation request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.Wrap(errs.KindUpstreamTimeout, "generation request timed out", err)
	}
	return errs.Wrap(errs.KindUpstreamUnavailable, "failed to reach generation service", err)
}
