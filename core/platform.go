package core

import (
	"context"
	"time"
)

// TrainingAPI 是托管平台训练任务控制面的领域接口。
//
// 平台负责资源调度、数据解密、训练执行与产物加密；本接口只做声明式提交与状态观测。
// 任务完成通过轮询观测（平台不推送），失败不自动重试，由调用方决定后续动作。
type TrainingAPI interface {
	// CreateTrainingJob 提交训练任务，返回平台侧任务句柄（ARN 或等价标识）
	CreateTrainingJob(ctx context.Context, spec *TrainingJobSpec) (string, error)

	// DescribeTrainingJob 查询任务状态
	DescribeTrainingJob(ctx context.Context, jobName string) (*TrainingJobStatus, error)

	// WaitForCompletion 轮询等待任务进入终态；失败/中止返回携带 FailureReason 的错误
	WaitForCompletion(ctx context.Context, jobName string) (*TrainingJobStatus, error)
}

// HostingAPI 是托管平台模型部署控制面的领域接口。
// 链路：注册模型 -> 创建端点配置 -> 创建端点 -> 轮询等待就绪。
type HostingAPI interface {
	// CreateModel 将训练产物注册为可部署模型
	CreateModel(ctx context.Context, spec *ModelSpec) error

	// CreateEndpointConfig 创建端点配置（模型 + 实例规格 + 流量权重）
	CreateEndpointConfig(ctx context.Context, spec *EndpointConfigSpec) error

	// CreateEndpoint 基于配置创建在线端点
	CreateEndpoint(ctx context.Context, endpointName, configName string) error

	// DescribeEndpoint 查询端点状态
	DescribeEndpoint(ctx context.Context, endpointName string) (*EndpointStatus, error)

	// WaitInService 轮询等待端点进入 InService；失败返回携带 FailureReason 的错误
	WaitInService(ctx context.Context, endpointName string) (*EndpointStatus, error)

	// DeleteEndpoint 下线端点（实验收尾时释放实例）
	DeleteEndpoint(ctx context.Context, endpointName string) error
}

// DataChannel 是训练输入通道：一份存储中的数据集及其内容类型。
type DataChannel struct {
	Name        string `json:"channel_name"`  // 通道名称，如 "train" / "validation"
	URI         string `json:"uri"`           // 数据位置（对象存储 URI）
	ContentType string `json:"content_type"`  // 如 "text/csv"
	Compression string `json:"compression,omitempty"`
}

// ResourceConfig 是训练任务的资源规格。
type ResourceConfig struct {
	InstanceType  string `json:"instance_type"`
	InstanceCount int    `json:"instance_count"`
	VolumeSizeGB  int    `json:"volume_size_gb"`
}

// TrainingJobSpec 是声明式训练任务描述。
// 所有字段显式传入，不依赖任何环境级别的全局状态。
type TrainingJobSpec struct {
	JobName         string            `json:"job_name"`
	AlgorithmImage  string            `json:"algorithm_image"`  // 算法容器镜像引用
	RoleARN         string            `json:"role_arn"`         // 平台访问数据所用的 IAM 角色
	InputChannels   []DataChannel     `json:"input_channels"`
	OutputPath      string            `json:"output_path"`      // 模型产物输出位置
	KMSKeyID        string            `json:"kms_key_id,omitempty"` // 产物加密密钥（信封加密由平台执行）
	Hyperparameters map[string]string `json:"hyperparameters,omitempty"`
	Resources       ResourceConfig    `json:"resources"`
	MaxRuntime      time.Duration     `json:"-"`                // 停止条件，序列化为秒
}

// TrainingJobStatus 是训练任务的状态快照。
type TrainingJobStatus struct {
	JobName        string `json:"job_name"`
	Status         string `json:"status"`          // InProgress / Completed / Failed / Stopped
	FailureReason  string `json:"failure_reason,omitempty"`
	ModelArtifacts string `json:"model_artifacts,omitempty"` // 训练产物位置（Completed 后有效）
}

// ModelSpec 将训练产物注册为模型。
type ModelSpec struct {
	ModelName    string `json:"model_name"`
	Image        string `json:"image"`          // 推理容器镜像引用
	ModelDataURL string `json:"model_data_url"` // 训练产物位置
	RoleARN      string `json:"role_arn"`
}

// ProductionVariant 是端点配置中的一个模型变体。
type ProductionVariant struct {
	ModelName      string  `json:"model_name"`
	VariantName    string  `json:"variant_name"`
	InstanceType   string  `json:"instance_type"`
	InstanceCount  int     `json:"initial_instance_count"`
	InitialWeight  float64 `json:"initial_variant_weight"`
}

// EndpointConfigSpec 是端点配置描述。
type EndpointConfigSpec struct {
	ConfigName string              `json:"config_name"`
	Variants   []ProductionVariant `json:"variants"`
}

// EndpointStatus 是端点的状态快照。
type EndpointStatus struct {
	EndpointName  string `json:"endpoint_name"`
	Status        string `json:"status"` // Creating / InService / Failed / Deleting
	FailureReason string `json:"failure_reason,omitempty"`
}

// 训练任务状态常量
const (
	JobStatusInProgress = "InProgress"
	JobStatusCompleted  = "Completed"
	JobStatusFailed     = "Failed"
	JobStatusStopped    = "Stopped"
)

// 端点状态常量
const (
	EndpointStatusCreating  = "Creating"
	EndpointStatusInService = "InService"
	EndpointStatusFailed    = "Failed"
	EndpointStatusDeleting  = "Deleting"
)
