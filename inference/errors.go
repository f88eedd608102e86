package inference

import (
	"fmt"

	"github.com/rushteam/servekit/core"
)

// 错误分层约定：
//   - 调用方入参错误使用统一的 core.DomainError（INVALID_INPUT）
//   - 单次端点调用失败使用 RemoteCallError（携带状态码与底层原因）
//   - 批量调用中某批失败使用 BatchError（携带失败批次的起始下标），
//     两者都实现 Unwrap，支持 errors.Is / errors.As 逐层解包

// Inference 入参错误定义（使用统一的 DomainError）
var (
	// ErrInvalidBatchSize 表示批次大小不合法（必须 >= 1）
	ErrInvalidBatchSize = core.NewDomainError(core.ModuleInference, core.ErrorCodeInvalidInput, "inference: batch size must be >= 1")

	// ErrEmptyPayload 表示单次调用的载荷为空（调用方错误）
	ErrEmptyPayload = core.NewDomainError(core.ModuleInference, core.ErrorCodeInvalidInput, "inference: payload must not be empty")
)

// RemoteCallError 表示单次端点调用失败：传输层错误或非成功状态码。
type RemoteCallError struct {
	Endpoint   string // 端点名称
	StatusCode int    // 非成功响应的状态码；传输层错误（无响应）时为 0
	Err        error  // 底层原因
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("inference: call endpoint %s failed: status=%d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inference: call endpoint %s failed: %v", e.Endpoint, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// BatchError 表示批量推理中某个批次失败。
// Offset 是失败批次首行在输入序列中的下标，调用方可据此从失败处续跑。
type BatchError struct {
	Endpoint string // 端点名称
	Offset   int    // 失败批次的起始行下标
	Err      error  // 底层原因（通常是 *RemoteCallError 或响应解码错误）
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("inference: batch at offset %d failed on endpoint %s: %v", e.Offset, e.Endpoint, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
