package workflow

import (
	"context"

	"github.com/rushteam/servekit/core"
)

// Kind 用于标记 Step 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindUpload   Kind = "upload"   // 上传阶段：数据集编码并写入对象存储
	KindTrain    Kind = "train"    // 训练阶段：提交训练任务并等待完成
	KindDeploy   Kind = "deploy"   // 部署阶段：创建模型/端点配置/端点并等待就绪
	KindPredict  Kind = "predict"  // 推理阶段：对特征行做批量同步推理
	KindEvaluate Kind = "evaluate" // 评估阶段：基于预测结果计算指标
)

// Step 是 Workflow 的最小可扩展单元。
// 各 Step 通过 RunContext 传递产物：上游写入 URI/端点名/预测值，下游读取。
type Step interface {
	Name() string
	Kind() Kind

	Run(ctx context.Context, rc *RunContext) error
}

// RunContext 贯穿整个 Workflow 的运行期上下文，承载各阶段的输入与产物。
type RunContext struct {
	// 基础设置
	Bucket   string // 对象存储 bucket
	Prefix   string // 对象 key 前缀
	RoleARN  string // 平台侧执行角色
	KMSKeyID string // 信封加密 key，空则不加密

	// 依赖注入
	Store core.ObjectStore

	// 各阶段产物
	ChannelURIs    map[string]string // 通道名 -> 数据 URI（upload 产出，train 消费）
	ModelArtifacts string            // 模型产物 URI（train 产出，deploy 消费）
	EndpointName   string            // 端点名（deploy 产出，predict 消费）

	Rows        []core.FeatureRow // 推理输入特征行
	Labels      []float64         // 评估用真实标签
	Predictions []float64         // 预测结果（predict 产出，evaluate 消费）

	// 扩展值（如指标结果），供调用方读取
	Values map[string]any
}

// NewRunContext 构造一个带初始化 map 的 RunContext。
func NewRunContext() *RunContext {
	return &RunContext{
		ChannelURIs: make(map[string]string),
		Values:      make(map[string]any),
	}
}
