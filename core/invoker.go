package core

import (
	"context"
	"fmt"
)

// ContentTypeCSV 是推理请求/响应的默认内容类型（逗号分隔数值，行以换行分隔）。
const ContentTypeCSV = "text/csv"

// EndpointInvoker 是模型端点调用的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（platform）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 批量推理客户端只依赖此接口，不关心端点背后的托管平台
//
// 语义：
//   - 一次调用对应一次同步请求/响应，body 原样透传
//   - endpointName 是平台侧的不透明标识，由托管平台负责解析
//   - 非 2xx 响应应返回 *StatusError，便于调用方提取状态码
//
// 实现：
//   - platform.Invoker 实现此接口
//   - 测试中可用函数适配器 InvokerFunc 模拟端点
type EndpointInvoker interface {
	// Invoke 向指定端点发起一次同步推理调用
	Invoke(ctx context.Context, endpointName, contentType string, body []byte) ([]byte, error)
}

// InvokerFunc 是 EndpointInvoker 的函数适配器，便于测试与轻量接入。
type InvokerFunc func(ctx context.Context, endpointName, contentType string, body []byte) ([]byte, error)

func (f InvokerFunc) Invoke(ctx context.Context, endpointName, contentType string, body []byte) ([]byte, error) {
	return f(ctx, endpointName, contentType, body)
}

// StatusError 表示端点返回了非成功状态码。
// 由 EndpointInvoker 实现返回，调用方可通过 errors.As 提取状态码与响应体。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint returned status=%d, body=%s", e.StatusCode, e.Body)
}
