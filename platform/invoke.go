package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/servekit/core"
)

// Invoker 是托管平台推理运行时的 HTTP 客户端，实现 core.EndpointInvoker。
//
// 协议：
//   - Invoke: POST {base}/endpoints/{endpoint_name}/invocations
//   - 请求体原样透传（Content-Type 由调用方指定，如 text/csv）
//   - 响应体原样返回；非 2xx 返回 *core.StatusError
//
// 使用场景：批量推理客户端的传输层、端点冒烟验证。
type Invoker struct {
	// Base 平台运行时根地址，如 "https://runtime.ml.example.com"
	Base string
	// Timeout 请求超时
	Timeout time.Duration
	// Auth 认证配置
	Auth *AuthConfig

	httpClient *http.Client
	logger     zerolog.Logger
}

// NewInvoker 创建推理运行时客户端。base 为运行时根地址。
func NewInvoker(base string, opts ...InvokerOption) *Invoker {
	c := &Invoker{
		Base:    base,
		Timeout: 60 * time.Second,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

// InvokerOption 配置 Invoker
type InvokerOption func(*Invoker)

// WithInvokerTimeout 设置请求超时
func WithInvokerTimeout(timeout time.Duration) InvokerOption {
	return func(c *Invoker) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithInvokerAuth 设置认证
func WithInvokerAuth(auth *AuthConfig) InvokerOption {
	return func(c *Invoker) {
		c.Auth = auth
	}
}

// WithInvokerHTTPClient 设置自定义 HTTP 客户端
func WithInvokerHTTPClient(client *http.Client) InvokerOption {
	return func(c *Invoker) {
		c.httpClient = client
	}
}

// WithInvokerLogger 设置日志器
func WithInvokerLogger(logger zerolog.Logger) InvokerOption {
	return func(c *Invoker) {
		c.logger = logger
	}
}

// Invoke 实现 core.EndpointInvoker。
func (c *Invoker) Invoke(ctx context.Context, endpointName, contentType string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/endpoints/%s/invocations", c.Base, endpointName)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invoke create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", contentType)
	applyAuth(httpReq, c.Auth)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoke request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("invoke read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invoke endpoint %s: %w", endpointName,
			&core.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}

	c.logger.Trace().
		Str("endpoint", endpointName).
		Int("request_bytes", len(body)).
		Int("response_bytes", len(respBody)).
		Msg("invocation completed")
	return respBody, nil
}

var _ core.EndpointInvoker = (*Invoker)(nil)
