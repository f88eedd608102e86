// Package servekit 是一个托管 ML 平台的服务工具包（Serving Kit）。
//
// 设计要点：
// - Workflow-first: 训练上线流程通过 Step 串联（Upload → Train → Deploy → Predict → Evaluate）
// - Encryption-aware: 数据集上传与训练产物均支持 KMS 信封加密透传
// - Step 可扩展: 自定义 Step 即可插拔扩展（本地或远程平台均可）
package servekit

import "github.com/rushteam/servekit/workflow"

// 轻量 facade：便于用户直接 import "servekit" 使用核心抽象。
type Workflow = workflow.Workflow
type Step = workflow.Step
type Kind = workflow.Kind
type RunContext = workflow.RunContext

const (
	KindUpload   = workflow.KindUpload
	KindTrain    = workflow.KindTrain
	KindDeploy   = workflow.KindDeploy
	KindPredict  = workflow.KindPredict
	KindEvaluate = workflow.KindEvaluate
)
