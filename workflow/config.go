package workflow

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是 Workflow 的配置结构（支持 YAML/JSON）。
type Config struct {
	Workflow struct {
		Name  string       `yaml:"name" json:"name"`
		Steps []StepConfig `yaml:"steps" json:"steps"`
	} `yaml:"workflow" json:"workflow"`
}

// StepConfig 是单个 Step 的配置。
type StepConfig struct {
	Type   string                 `yaml:"type" json:"type"`     // train / deploy / predict / evaluate 等
	Config map[string]interface{} `yaml:"config" json:"config"` // Step 特定配置
}

// LoadFromYAML 从 YAML 文件加载 Workflow 配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载 Workflow 配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	return &cfg, nil
}

// StepBuilder 根据 config 构建 Step。
type StepBuilder func(map[string]interface{}) (Step, error)

// StepFactory 用于根据配置构建 Step 实例。
type StepFactory struct {
	builders map[string]StepBuilder
}

func NewStepFactory() *StepFactory {
	return &StepFactory{
		builders: make(map[string]StepBuilder),
	}
}

// Register 注册 Step 构建器。
func (f *StepFactory) Register(stepType string, builder StepBuilder) {
	f.builders[stepType] = builder
}

// Build 根据类型和配置构建 Step。
func (f *StepFactory) Build(stepType string, config map[string]interface{}) (Step, error) {
	builder, ok := f.builders[stepType]
	if !ok {
		return nil, fmt.Errorf("unknown step type: %s", stepType)
	}
	return builder(config)
}

// BuildWorkflow 根据配置构建 Workflow（需要 StepFactory 注册 Step 构建器）。
func (c *Config) BuildWorkflow(factory *StepFactory) (*Workflow, error) {
	steps := make([]Step, 0, len(c.Workflow.Steps))

	for _, sc := range c.Workflow.Steps {
		step, err := factory.Build(sc.Type, sc.Config)
		if err != nil {
			return nil, fmt.Errorf("build step %s: %w", sc.Type, err)
		}
		steps = append(steps, step)
	}

	return New(c.Workflow.Name, steps...), nil
}
