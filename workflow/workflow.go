package workflow

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Workflow 是 Servekit 的核心抽象：把一次"上传-训练-部署-推理-评估"流程拆成可组合的 Step 链。
type Workflow struct {
	Name   string
	Steps  []Step
	Logger zerolog.Logger
}

// New 构造 Workflow，默认无日志输出。
func New(name string, steps ...Step) *Workflow {
	return &Workflow{
		Name:   name,
		Steps:  steps,
		Logger: zerolog.Nop(),
	}
}

// Run 顺序执行各 Step，任一 Step 失败立即终止并返回错误。
// 各 Step 的产物通过 rc 传递给下游。
func (w *Workflow) Run(ctx context.Context, rc *RunContext) error {
	if rc == nil {
		rc = NewRunContext()
	}
	for _, step := range w.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.Logger.Info().
			Str("workflow", w.Name).
			Str("step", step.Name()).
			Str("kind", string(step.Kind())).
			Msg("running step")
		if err := step.Run(ctx, rc); err != nil {
			return fmt.Errorf("step %s: %w", step.Name(), err)
		}
	}
	return nil
}
