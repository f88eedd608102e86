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

// TrainingClient 是托管平台训练任务控制面的 HTTP 客户端，实现 core.TrainingAPI。
//
// 协议（控制面 JSON API）：
//   - CreateTrainingJob: POST /training-jobs，请求为声明式任务描述，响应 {"job_arn": "..."}
//   - DescribeTrainingJob: GET /training-jobs/{job_name}
//
// 任务完成通过轮询观测。训练失败不重试：FailureReason 透传给调用方，
// 是否重新提交由上层工作流决定。
type TrainingClient struct {
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

// NewTrainingClient 创建训练控制面客户端。
func NewTrainingClient(base string, opts ...TrainingOption) *TrainingClient {
	c := &TrainingClient{
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

// TrainingOption 配置训练客户端
type TrainingOption func(*TrainingClient)

// WithTrainingTimeout 设置单次请求超时
func WithTrainingTimeout(timeout time.Duration) TrainingOption {
	return func(c *TrainingClient) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithTrainingPollInterval 设置状态轮询间隔
func WithTrainingPollInterval(interval time.Duration) TrainingOption {
	return func(c *TrainingClient) {
		c.PollInterval = interval
	}
}

// WithTrainingAuth 设置认证
func WithTrainingAuth(auth *AuthConfig) TrainingOption {
	return func(c *TrainingClient) {
		c.Auth = auth
	}
}

// WithTrainingHTTPClient 设置自定义 HTTP 客户端
func WithTrainingHTTPClient(client *http.Client) TrainingOption {
	return func(c *TrainingClient) {
		c.httpClient = client
	}
}

// WithTrainingLogger 设置日志器
func WithTrainingLogger(logger zerolog.Logger) TrainingOption {
	return func(c *TrainingClient) {
		c.logger = logger
	}
}

// trainingJobRequest 是 CreateTrainingJob 的线上格式。
// MaxRuntime 序列化为秒（控制面以整数秒表达停止条件）。
type trainingJobRequest struct {
	*core.TrainingJobSpec
	MaxRuntimeSeconds int64 `json:"max_runtime_seconds,omitempty"`
}

// CreateTrainingJob 实现 core.TrainingAPI。
func (c *TrainingClient) CreateTrainingJob(ctx context.Context, spec *core.TrainingJobSpec) (string, error) {
	if spec == nil || spec.JobName == "" {
		return "", fmt.Errorf("training job spec with job name is required")
	}

	reqBody := trainingJobRequest{TrainingJobSpec: spec}
	if spec.MaxRuntime > 0 {
		reqBody.MaxRuntimeSeconds = int64(spec.MaxRuntime / time.Second)
	}
	var out struct {
		JobARN string `json:"job_arn"`
	}
	if err := c.doJSON(ctx, "POST", c.Base+"/training-jobs", reqBody, &out); err != nil {
		return "", fmt.Errorf("create training job %s: %w", spec.JobName, err)
	}

	c.logger.Info().Str("job", spec.JobName).Str("arn", out.JobARN).Msg("training job created")
	return out.JobARN, nil
}

// DescribeTrainingJob 实现 core.TrainingAPI。
func (c *TrainingClient) DescribeTrainingJob(ctx context.Context, jobName string) (*core.TrainingJobStatus, error) {
	var status core.TrainingJobStatus
	url := fmt.Sprintf("%s/training-jobs/%s", c.Base, jobName)
	if err := c.doJSON(ctx, "GET", url, nil, &status); err != nil {
		return nil, fmt.Errorf("describe training job %s: %w", jobName, err)
	}
	return &status, nil
}

// WaitForCompletion 实现 core.TrainingAPI。
// 轮询直到任务进入终态：Completed 返回状态；Failed/Stopped 返回携带 FailureReason 的错误。
func (c *TrainingClient) WaitForCompletion(ctx context.Context, jobName string) (*core.TrainingJobStatus, error) {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.DescribeTrainingJob(ctx, jobName)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case core.JobStatusCompleted:
			c.logger.Info().Str("job", jobName).Str("artifacts", status.ModelArtifacts).Msg("training job completed")
			return status, nil
		case core.JobStatusFailed, core.JobStatusStopped:
			return status, fmt.Errorf("training job %s ended with status %s: %s", jobName, status.Status, status.FailureReason)
		}

		c.logger.Info().Str("job", jobName).Str("status", status.Status).Msg("training job in progress")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// doJSON 发送一次控制面 JSON 请求并解码响应。
func (c *TrainingClient) doJSON(ctx context.Context, method, url string, in, out interface{}) error {
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

var _ core.TrainingAPI = (*TrainingClient)(nil)
