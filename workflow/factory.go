package workflow

import (
	"fmt"
	"time"

	"github.com/rushteam/servekit/core"
	"github.com/rushteam/servekit/pkg/conv"
	"github.com/rushteam/servekit/platform"
)

// DefaultFactory 返回一个包含所有内置 Step 的默认工厂。
// upload 不在其中：数据集与存储依赖需由代码注入，配置无法表达。
func DefaultFactory() *StepFactory {
	factory := NewStepFactory()

	factory.Register("train", buildTrainStep)
	factory.Register("deploy", buildDeployStep)
	factory.Register("predict", buildPredictStep)
	factory.Register("evaluate", buildEvaluateStep)

	return factory
}

func buildTrainStep(config map[string]interface{}) (Step, error) {
	base := conv.ConfigGet[string](config, "base_url", "")
	if base == "" {
		return nil, fmt.Errorf("base_url not found")
	}

	opts := []platform.TrainingOption{}
	if sec := conv.ConfigGetInt64(config, "poll_interval", 0); sec > 0 {
		opts = append(opts, platform.WithTrainingPollInterval(time.Duration(sec)*time.Second))
	}
	if auth := buildAuth(config); auth != nil {
		opts = append(opts, platform.WithTrainingAuth(auth))
	}

	spec := core.TrainingJobSpec{
		JobName:         conv.ConfigGet[string](config, "job_name", ""),
		AlgorithmImage:  conv.ConfigGet[string](config, "algorithm_image", ""),
		OutputPath:      conv.ConfigGet[string](config, "output_path", ""),
		Hyperparameters: conv.ConfigGetStringMap(config, "hyperparameters"),
		Resources: core.ResourceConfig{
			InstanceType:  conv.ConfigGet[string](config, "instance_type", ""),
			InstanceCount: int(conv.ConfigGetInt64(config, "instance_count", 1)),
			VolumeSizeGB:  int(conv.ConfigGetInt64(config, "volume_size_gb", 0)),
		},
	}
	if spec.JobName == "" {
		return nil, fmt.Errorf("job_name not found")
	}
	if sec := conv.ConfigGetInt64(config, "max_runtime", 0); sec > 0 {
		spec.MaxRuntime = time.Duration(sec) * time.Second
	}

	channels := sliceAnyToString(config["channels"])

	return &TrainStep{
		Training: platform.NewTrainingClient(base, opts...),
		Spec:     spec,
		Channels: channels,
	}, nil
}

func buildDeployStep(config map[string]interface{}) (Step, error) {
	base := conv.ConfigGet[string](config, "base_url", "")
	if base == "" {
		return nil, fmt.Errorf("base_url not found")
	}
	modelName := conv.ConfigGet[string](config, "model_name", "")
	if modelName == "" {
		return nil, fmt.Errorf("model_name not found")
	}

	opts := []platform.HostingOption{}
	if sec := conv.ConfigGetInt64(config, "poll_interval", 0); sec > 0 {
		opts = append(opts, platform.WithHostingPollInterval(time.Duration(sec)*time.Second))
	}
	if auth := buildAuth(config); auth != nil {
		opts = append(opts, platform.WithHostingAuth(auth))
	}

	return &DeployStep{
		Hosting:       platform.NewHostingClient(base, opts...),
		ModelName:     modelName,
		Image:         conv.ConfigGet[string](config, "image", ""),
		ConfigName:    conv.ConfigGet[string](config, "config_name", ""),
		EndpointName:  conv.ConfigGet[string](config, "endpoint_name", ""),
		InstanceType:  conv.ConfigGet[string](config, "instance_type", ""),
		InstanceCount: int(conv.ConfigGetInt64(config, "instance_count", 1)),
	}, nil
}

func buildPredictStep(config map[string]interface{}) (Step, error) {
	base := conv.ConfigGet[string](config, "base_url", "")
	if base == "" {
		return nil, fmt.Errorf("base_url not found")
	}

	opts := []platform.InvokerOption{}
	if sec := conv.ConfigGetInt64(config, "timeout", 0); sec > 0 {
		opts = append(opts, platform.WithInvokerTimeout(time.Duration(sec)*time.Second))
	}
	if auth := buildAuth(config); auth != nil {
		opts = append(opts, platform.WithInvokerAuth(auth))
	}

	batchSize := int(conv.ConfigGetInt64(config, "batch_size", 500))
	if batchSize < 1 {
		return nil, fmt.Errorf("batch_size must be positive")
	}

	return &PredictStep{
		Invoker:       platform.NewInvoker(base, opts...),
		Endpoint:      conv.ConfigGet[string](config, "endpoint", ""),
		BatchSize:     batchSize,
		MaxConcurrent: int(conv.ConfigGetInt64(config, "max_concurrent", 1)),
	}, nil
}

func buildEvaluateStep(config map[string]interface{}) (Step, error) {
	return &EvaluateStep{
		MaxMdAPE: conv.ConfigGet[float64](config, "max_mdape", 0.0),
	}, nil
}

func buildAuth(config map[string]interface{}) *platform.AuthConfig {
	authMap, ok := config["auth"].(map[string]interface{})
	if !ok {
		return nil
	}
	return &platform.AuthConfig{
		Type:     conv.ConfigGet[string](authMap, "type", ""),
		Username: conv.ConfigGet[string](authMap, "username", ""),
		Password: conv.ConfigGet[string](authMap, "password", ""),
		Token:    conv.ConfigGet[string](authMap, "token", ""),
		APIKey:   conv.ConfigGet[string](authMap, "api_key", ""),
	}
}

func sliceAnyToString(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
