package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/servekit/core"
)

// HostingClient 是托管平台模型部署控制面的 HTTP 客户端，实现 core.HostingAPI。
//
// 协议（控制面 JSON API）：
//   - CreateModel: POST /models
//   - CreateEndpointConfig: POST /endpoint-configs
//   - CreateEndpoint: POST /endpoints
//   - DescribeEndpoint: GET /endpoints/{endpoint_name}
//   - DeleteEndpoint: DELETE /endpoints/{endpoint_name}
//
// 端点就绪通过轮询观测；创建失败不重试，FailureReason 透传给调用方。
type HostingClient struct {
	// Base 控制面根地址
	Base string
	// Timeout 单次请求超时
	Timeout time.Duration
	// PollInterval 轮询间隔
	PollInterval time.Duration
	// Auth 认证配置
	Auth *AuthConfig

	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHostingClient 创建部署控制面客户端。
func NewHostingClient(base string, opts ...HostingOption) *HostingClient {
	c := &HostingClient{
		Base:         base,
		Timeout:      30 * time.Second,
		PollInterval: 30 * time.Second,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

// HostingOption 配置部署客户端
type HostingOption func(*HostingClient)

// WithHostingTimeout 设置单次请求超时
func WithHostingTimeout(timeout time.Duration) HostingOption {
	return func(c *HostingClient) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHostingPollInterval 设置状态轮询间隔
func WithHostingPollInterval(interval time.Duration) HostingOption {
	return func(c *HostingClient) {
		c.PollInterval = interval
	}
}

// WithHostingAuth 设置认证
func WithHostingAuth(auth *AuthConfig) HostingOption {
	return func(c *HostingClient) {
		c.Auth = auth
	}
}

// WithHostingHTTPClient 设置自定义 HTTP 客户端
func WithHostingHTTPClient(client *http.Client) HostingOption {
	return func(c *HostingClient) {
		c.httpClient = client
	}
}

// WithHostingLogger 设置日志器
func WithHostingLogger(logger zerolog.Logger) HostingOption {
	return func(c *HostingClient) {
		c.logger = logger
	}
}

// CreateModel 实现 core.HostingAPI。
func (c *HostingClient) CreateModel(ctx context.Context, spec *core.ModelSpec) error {
	if spec == nil || spec.ModelName == "" {
		return fmt.Errorf("model spec with model name is required")
	}
	if err := c.doJSON(ctx, "POST", c.Base+"/models", spec, nil); err != nil {
		return fmt.Errorf("create model %s: %w", spec.ModelName, err)
	}
	c.logger.Info().Str("model", spec.ModelName).Str("data", spec.ModelDataURL).Msg("model created")
	return nil
}

// CreateEndpointConfig 实现 core.HostingAPI。
func (c *HostingClient) CreateEndpointConfig(ctx context.Context, spec *core.EndpointConfigSpec) error {
	if spec == nil || spec.ConfigName == "" {
		return fmt.Errorf("endpoint config spec with config name is required")
	}
	if len(spec.Variants) == 0 {
		return fmt.Errorf("endpoint config %s: at least one variant is required", spec.ConfigName)
	}
	if err := c.doJSON(ctx, "POST", c.Base+"/endpoint-configs", spec, nil); err != nil {
		return fmt.Errorf("create endpoint config %s: %w", spec.ConfigName, err)
	}
	c.logger.Info().Str("config", spec.ConfigName).Int("variants", len(spec.Variants)).Msg("endpoint config created")
	return nil
}

// CreateEndpoint 实现 core.HostingAPI。
func (c *HostingClient) CreateEndpoint(ctx context.Context, endpointName, configName string) error {
	reqBody := map[string]string{
		"endpoint_name":        endpointName,
		"endpoint_config_name": configName,
	}
	if err := c.doJSON(ctx, "POST", c.Base+"/endpoints", reqBody, nil); err != nil {
		return fmt.Errorf("create endpoint %s: %w", endpointName, err)
	}
	c.logger.Info().Str("endpoint", endpointName).Str("config", configName).Msg("endpoint creation requested")
	return nil
}

// DescribeEndpoint 实现 core.HostingAPI。
func (c *HostingClient) DescribeEndpoint(ctx context.Context, endpointName string) (*core.EndpointStatus, error) {
	var status core.EndpointStatus
	url := fmt.Sprintf("%s/endpoints/%s", c.Base, endpointName)
	if err := c.doJSON(ctx, "GET", url, nil, &status); err != nil {
		return nil, fmt.Errorf("describe endpoint %s: %w", endpointName, err)
	}
	return &status, nil
}

// WaitInService 实现 core.HostingAPI。
// 轮询直到端点进入 InService；Failed 返回携带 FailureReason 的错误。
func (c *HostingClient) WaitInService(ctx context.Context, endpointName string) (*core.EndpointStatus, error) {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.DescribeEndpoint(ctx, endpointName)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case core.EndpointStatusInService:
			c.logger.Info().Str("endpoint", endpointName).Msg("endpoint in service")
			return status, nil
		case core.EndpointStatusFailed:
			return status, fmt.Errorf("endpoint %s failed: %s", endpointName, status.FailureReason)
		}

		c.logger.Info().Str("endpoint", endpointName).Str("status", status.Status).Msg("endpoint not ready")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// DeleteEndpoint 实现 core.HostingAPI。
func (c *HostingClient) DeleteEndpoint(ctx context.Context, endpointName string) error {
	url := fmt.Sprintf("%s/endpoints/%s", c.Base, endpointName)
	if err := c.doJSON(ctx, "DELETE", url, nil, nil); err != nil {
		return fmt.Errorf("delete endpoint %s: %w", endpointName, err)
	}
	c.logger.Info().Str("endpoint", endpointName).Msg("endpoint deleted")
	return nil
}

// doJSON 发送一次控制面 JSON 请求并解码响应。
func (c *HostingClient) doJSON(ctx context.Context, method, url string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	applyAuth(httpReq, c.Auth)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("control plane error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

var _ core.HostingAPI = (*HostingClient)(nil)
