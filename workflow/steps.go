package workflow

import (
	"context"
	"fmt"

	"github.com/rushteam/servekit/core"
	"github.com/rushteam/servekit/dataset"
	"github.com/rushteam/servekit/inference"
)

// UploadStep 将数据集编码为 CSV 并写入对象存储（支持 KMS 信封加密），
// 并把数据 URI 登记到 RunContext.ChannelURIs 供训练通道引用。
type UploadStep struct {
	StepName   string
	Channel    string         // 通道名，如 "train" / "validation"
	Table      *dataset.Table // 待上传的数据集
	Key        string         // 对象 key，空则用 {prefix}/{channel}.csv
	WithHeader bool           // 是否写出表头行（多数训练容器要求无表头）
}

func (s *UploadStep) Name() string {
	if s.StepName != "" {
		return s.StepName
	}
	return "upload." + s.Channel
}

func (s *UploadStep) Kind() Kind { return KindUpload }

func (s *UploadStep) Run(ctx context.Context, rc *RunContext) error {
	if s.Table == nil {
		return fmt.Errorf("upload %s: table is nil", s.Channel)
	}
	if rc.Store == nil {
		return fmt.Errorf("upload %s: object store not configured", s.Channel)
	}

	data, err := s.Table.EncodeCSV(s.WithHeader)
	if err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	key := s.Key
	if key == "" {
		key = rc.Prefix + "/" + s.Channel + ".csv"
	}

	if rc.KMSKeyID != "" {
		err = rc.Store.Put(ctx, key, data, rc.KMSKeyID)
	} else {
		err = rc.Store.Put(ctx, key, data)
	}
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	if rc.ChannelURIs == nil {
		rc.ChannelURIs = make(map[string]string)
	}
	rc.ChannelURIs[s.Channel] = fmt.Sprintf("s3://%s/%s", rc.Bucket, key)
	return nil
}

// TrainStep 提交训练任务并等待完成，产物位置写入 RunContext.ModelArtifacts。
// Spec 中未填的 RoleARN/KMSKeyID/OutputPath/InputChannels 从 RunContext 补齐。
type TrainStep struct {
	StepName string
	Training core.TrainingAPI
	Spec     core.TrainingJobSpec
	Channels []string // 按名引用 ChannelURIs 中的上传结果，空则使用 Spec.InputChannels
}

func (s *TrainStep) Name() string {
	if s.StepName != "" {
		return s.StepName
	}
	return "train." + s.Spec.JobName
}

func (s *TrainStep) Kind() Kind { return KindTrain }

func (s *TrainStep) Run(ctx context.Context, rc *RunContext) error {
	if s.Training == nil {
		return fmt.Errorf("train %s: training api not configured", s.Spec.JobName)
	}

	spec := s.Spec
	if spec.RoleARN == "" {
		spec.RoleARN = rc.RoleARN
	}
	if spec.KMSKeyID == "" {
		spec.KMSKeyID = rc.KMSKeyID
	}
	if spec.OutputPath == "" {
		spec.OutputPath = fmt.Sprintf("s3://%s/%s/output", rc.Bucket, rc.Prefix)
	}
	for _, name := range s.Channels {
		uri, ok := rc.ChannelURIs[name]
		if !ok {
			return fmt.Errorf("channel %s: no uploaded data", name)
		}
		spec.InputChannels = append(spec.InputChannels, core.DataChannel{
			Name:        name,
			URI:         uri,
			ContentType: core.ContentTypeCSV,
		})
	}
	if len(spec.InputChannels) == 0 {
		return fmt.Errorf("train %s: no input channels", spec.JobName)
	}

	if _, err := s.Training.CreateTrainingJob(ctx, &spec); err != nil {
		return fmt.Errorf("create training job: %w", err)
	}
	status, err := s.Training.WaitForCompletion(ctx, spec.JobName)
	if err != nil {
		return fmt.Errorf("wait training job: %w", err)
	}
	rc.ModelArtifacts = status.ModelArtifacts
	return nil
}

// DeployStep 把训练产物注册为模型，创建端点配置与端点并等待 InService，
// 端点名写入 RunContext.EndpointName 供推理阶段使用。
type DeployStep struct {
	StepName      string
	Hosting       core.HostingAPI
	ModelName     string
	Image         string // 推理容器镜像引用
	ConfigName    string // 空则用 {model_name}-config
	EndpointName  string // 空则用 {model_name}-endpoint
	InstanceType  string
	InstanceCount int // 默认 1
}

func (s *DeployStep) Name() string {
	if s.StepName != "" {
		return s.StepName
	}
	return "deploy." + s.ModelName
}

func (s *DeployStep) Kind() Kind { return KindDeploy }

func (s *DeployStep) Run(ctx context.Context, rc *RunContext) error {
	if s.Hosting == nil {
		return fmt.Errorf("deploy %s: hosting api not configured", s.ModelName)
	}
	if rc.ModelArtifacts == "" {
		return fmt.Errorf("deploy %s: no model artifacts", s.ModelName)
	}

	configName := s.ConfigName
	if configName == "" {
		configName = s.ModelName + "-config"
	}
	endpointName := s.EndpointName
	if endpointName == "" {
		endpointName = s.ModelName + "-endpoint"
	}
	instanceCount := s.InstanceCount
	if instanceCount <= 0 {
		instanceCount = 1
	}

	err := s.Hosting.CreateModel(ctx, &core.ModelSpec{
		ModelName:    s.ModelName,
		Image:        s.Image,
		ModelDataURL: rc.ModelArtifacts,
		RoleARN:      rc.RoleARN,
	})
	if err != nil {
		return fmt.Errorf("create model: %w", err)
	}

	err = s.Hosting.CreateEndpointConfig(ctx, &core.EndpointConfigSpec{
		ConfigName: configName,
		Variants: []core.ProductionVariant{{
			ModelName:     s.ModelName,
			VariantName:   "AllTraffic",
			InstanceType:  s.InstanceType,
			InstanceCount: instanceCount,
			InitialWeight: 1.0,
		}},
	})
	if err != nil {
		return fmt.Errorf("create endpoint config: %w", err)
	}

	if err := s.Hosting.CreateEndpoint(ctx, endpointName, configName); err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}
	if _, err := s.Hosting.WaitInService(ctx, endpointName); err != nil {
		return fmt.Errorf("wait endpoint: %w", err)
	}

	rc.EndpointName = endpointName
	return nil
}

// PredictStep 对 RunContext.Rows 做批量同步推理，结果写入 RunContext.Predictions。
// Endpoint 为空时使用上游 DeployStep 产出的端点名。
type PredictStep struct {
	StepName      string
	Invoker       core.EndpointInvoker
	Endpoint      string
	BatchSize     int
	MaxConcurrent int // >1 时并发提交批次（结果顺序不变）
}

func (s *PredictStep) Name() string {
	if s.StepName != "" {
		return s.StepName
	}
	return "predict"
}

func (s *PredictStep) Kind() Kind { return KindPredict }

func (s *PredictStep) Run(ctx context.Context, rc *RunContext) error {
	if s.Invoker == nil {
		return fmt.Errorf("predict: invoker not configured")
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = rc.EndpointName
	}
	if endpoint == "" {
		return fmt.Errorf("predict: no endpoint name")
	}

	client := inference.NewClient(s.Invoker, endpoint)
	var (
		preds []float64
		err   error
	)
	if s.MaxConcurrent > 1 {
		preds, err = client.PredictAllParallel(ctx, rc.Rows, s.BatchSize, s.MaxConcurrent)
	} else {
		preds, err = client.PredictAll(ctx, rc.Rows, s.BatchSize)
	}
	if err != nil {
		return err
	}
	rc.Predictions = preds
	return nil
}

// EvaluateStep 基于预测结果与真实标签计算 MdAPE，写入 RunContext.Values["mdape"]。
// MaxMdAPE > 0 时作为质量门槛，超过则返回错误终止流程。
type EvaluateStep struct {
	StepName string
	MaxMdAPE float64
}

func (s *EvaluateStep) Name() string {
	if s.StepName != "" {
		return s.StepName
	}
	return "evaluate"
}

func (s *EvaluateStep) Kind() Kind { return KindEvaluate }

func (s *EvaluateStep) Run(ctx context.Context, rc *RunContext) error {
	mdape, err := dataset.MdAPE(rc.Predictions, rc.Labels)
	if err != nil {
		return fmt.Errorf("mdape: %w", err)
	}
	if rc.Values == nil {
		rc.Values = make(map[string]any)
	}
	rc.Values["mdape"] = mdape
	if s.MaxMdAPE > 0 && mdape > s.MaxMdAPE {
		return fmt.Errorf("mdape %.4f exceeds threshold %.4f", mdape, s.MaxMdAPE)
	}
	return nil
}
