package inference

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rushteam/servekit/core"
)

// Client 是批量推理客户端：把大批特征行按固定大小切成连续批次，逐批同步调用
// 远程打分端点，并按输入顺序拼接每行的预测值。
//
// 语义保证：
//   - 输出顺序与输入顺序完全一致（批内、批间均不重排）
//   - 每次远程调用只打本批次的行，批次之间不混行
//   - 切片规则为精确的 min(offset+batchSize, total)，最后一批可以更短
//   - 全部批次成功时 len(结果) == len(输入)
//
// 使用示例：
//
//	client := inference.NewClient(invoker, "xgb-regression-endpoint")
//	preds, err := client.PredictAll(ctx, rows, 500)
type Client struct {
	invoker     core.EndpointInvoker
	endpoint    string
	contentType string
	logger      zerolog.Logger
}

// NewClient 创建批量推理客户端。invoker 负责实际的网络调用，endpoint 是平台侧端点名称。
func NewClient(invoker core.EndpointInvoker, endpoint string, opts ...Option) *Client {
	c := &Client{
		invoker:     invoker,
		endpoint:    endpoint,
		contentType: core.ContentTypeCSV,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option 配置推理客户端
type Option func(*Client)

// WithContentType 设置请求内容类型（默认 text/csv）
func WithContentType(contentType string) Option {
	return func(c *Client) {
		c.contentType = contentType
	}
}

// WithLogger 设置日志器（默认 Nop，不产生任何输出）
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Endpoint 返回客户端绑定的端点名称。
func (c *Client) Endpoint() string { return c.endpoint }

// PredictAll 将 rows 切成大小为 batchSize 的连续批次并顺序打分。
//
// rows 可以为空（返回空结果，不发起任何网络调用）；batchSize 必须 >= 1。
// 批次严格串行提交：上一批响应读完并拼接后才发下一批，失败立即中止（fail-fast）。
// 失败时不返回已成功批次的部分结果——调用方通过 BatchError.Offset 自行决定是否续跑；
// 若需要保留部分结果，应以更小的输入分段多次调用。
func (c *Client) PredictAll(ctx context.Context, rows []core.FeatureRow, batchSize int) ([]float64, error) {
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	if len(rows) == 0 {
		return []float64{}, nil
	}

	total := len(rows)
	preds := make([]float64, 0, total)
	for offset := 0; offset < total; offset += batchSize {
		end := offset + batchSize
		if end > total {
			end = total // min(offset+batchSize, total)：最后一批不越界
		}

		scores, err := c.PredictOne(ctx, rows[offset:end])
		if err != nil {
			return nil, &BatchError{Endpoint: c.endpoint, Offset: offset, Err: err}
		}
		preds = append(preds, scores...)

		c.logger.Debug().
			Str("endpoint", c.endpoint).
			Int("offset", offset).
			Int("batch_rows", end-offset).
			Int("scored", len(preds)).
			Int("total", total).
			Msg("batch completed")
	}
	return preds, nil
}

// PredictOne 将一个批次的行编码为一次请求并同步调用端点，返回逐行预测值。
//
// 请求体：每行一条 CSV 记录，行间以换行分隔（行内字段分隔与预测值分隔使用
// 不同的定界符，避免单个逗号身兼二职）。
// 响应体：文本标量序列，接受逗号或换行分隔；标量个数必须等于行数，
// 端点多发或少发预测值都按错误处理，而不是静默透传。
func (c *Client) PredictOne(ctx context.Context, rows []core.FeatureRow) ([]float64, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyPayload
	}

	body := encodeRows(rows)
	raw, err := c.invoker.Invoke(ctx, c.endpoint, c.contentType, body)
	if err != nil {
		rce := &RemoteCallError{Endpoint: c.endpoint, Err: err}
		var statusErr *core.StatusError
		if errors.As(err, &statusErr) {
			rce.StatusCode = statusErr.StatusCode
		}
		return nil, rce
	}

	scores, err := decodeScalars(raw)
	if err != nil {
		return nil, fmt.Errorf("decode response from endpoint %s: %w", c.endpoint, err)
	}
	if len(scores) != len(rows) {
		return nil, fmt.Errorf("endpoint %s returned %d predictions for %d rows", c.endpoint, len(scores), len(rows))
	}
	return scores, nil
}

// encodeRows 将批次编码为请求体：每行一条 CSV 记录，换行分隔。
func encodeRows(rows []core.FeatureRow) []byte {
	var buf []byte
	for _, row := range rows {
		buf = row.AppendCSV(buf)
		buf = append(buf, '\n')
	}
	return buf
}

// decodeScalars 将响应体解码为标量序列。
// 兼容逗号与换行两种分隔，忽略空 token（例如行尾多余的定界符）。
func decodeScalars(raw []byte) ([]float64, error) {
	tokens := strings.FieldsFunc(string(raw), func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	scores := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed scalar %q: %w", tok, err)
		}
		scores = append(scores, f)
	}
	return scores, nil
}
