package feature

import (
	"context"
	"fmt"
	"strconv"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/servekit/core"
)

// FeastRowSource 从 Feast Feature Server 拉取在线特征并装配为有序特征行。
//
// Feast 是一个开源的 Feature Store，在线存储侧提供实时特征服务。
// 打分请求通常只携带实体 ID（如 listing_id），特征向量在此处装配：
// 按固定的特征名顺序取值，保证与训练时的列顺序一致。
//
// 使用示例：
//
//	source, err := feature.NewFeastRowSource("localhost", 6565, "housing",
//	    []string{"listing_stats:sqft", "listing_stats:rooms", "listing_stats:age"})
//	rows, err := source.Rows(ctx, []map[string]interface{}{{"listing_id": "l-1001"}})
type FeastRowSource struct {
	// client 官方 SDK 的 gRPC 客户端
	client *feastsdk.GrpcClient

	// Project 项目名称
	Project string

	// Features 特征名称列表；输出特征行的列顺序即此列表顺序
	Features []string
}

// NewFeastRowSource 创建 Feast 特征行数据源。
//
// 参数：
//   - host: Feast Feature Server 主机地址，例如 "localhost"
//   - port: gRPC 端口，默认 6565
//   - project: 项目名称
//   - features: 特征名称列表，例如 ["listing_stats:sqft", "listing_stats:rooms"]
func NewFeastRowSource(host string, port int, project string, features []string) (*FeastRowSource, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("features are required")
	}
	if port == 0 {
		port = 6565 // 默认 gRPC 端口
	}

	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("create feast grpc client: %w", err)
	}

	return &FeastRowSource{
		client:   client,
		Project:  project,
		Features: features,
	}, nil
}

// Rows 为一批实体装配特征行。
// 返回的行与 entityRows 一一对应且顺序一致；任一实体缺失任一特征都报错，
// 避免静默产出长度/顺序错乱的特征向量。
func (s *FeastRowSource) Rows(ctx context.Context, entityRows []map[string]interface{}) ([]core.FeatureRow, error) {
	if len(entityRows) == 0 {
		return nil, fmt.Errorf("entity rows are required")
	}
	if s.Project == "" {
		return nil, fmt.Errorf("project is required")
	}

	// 转换实体行为 SDK 格式（Row 是 map[string]*types.Value）
	// 使用 SDK 提供的辅助函数创建 *types.Value
	sdkRows := make([]feastsdk.Row, len(entityRows))
	for i, row := range entityRows {
		sdkRow := make(feastsdk.Row)
		for k, v := range row {
			switch val := v.(type) {
			case string:
				sdkRow[k] = feastsdk.StrVal(val)
			case int:
				sdkRow[k] = feastsdk.Int64Val(int64(val))
			case int64:
				sdkRow[k] = feastsdk.Int64Val(val)
			case int32:
				sdkRow[k] = feastsdk.Int64Val(int64(val))
			case float64:
				sdkRow[k] = feastsdk.DoubleVal(val)
			case float32:
				sdkRow[k] = feastsdk.FloatVal(val)
			case bool:
				sdkRow[k] = feastsdk.BoolVal(val)
			case []byte:
				sdkRow[k] = feastsdk.BytesVal(val)
			default:
				// 尝试转换为字符串
				sdkRow[k] = feastsdk.StrVal(fmt.Sprintf("%v", val))
			}
		}
		sdkRows[i] = sdkRow
	}

	sdkResp, err := s.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: s.Features,
		Entities: sdkRows,
		Project:  s.Project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features failed: %w", err)
	}

	respRows := sdkResp.Rows()
	if len(respRows) != len(entityRows) {
		return nil, fmt.Errorf("response row count mismatch: expected %d, got %d", len(entityRows), len(respRows))
	}

	out := make([]core.FeatureRow, len(respRows))
	for i, respRow := range respRows {
		vector := make(core.FeatureRow, 0, len(s.Features))
		for _, name := range s.Features {
			val, exists := respRow[name]
			if !exists {
				return nil, fmt.Errorf("entity %d: feature %s missing from response", i, name)
			}
			f, ok := toFloat64(val)
			if !ok {
				return nil, fmt.Errorf("entity %d: feature %s is not numeric", i, name)
			}
			vector = append(vector, f)
		}
		out[i] = vector
	}
	return out, nil
}

// Close 关闭到 Feature Server 的连接。
func (s *FeastRowSource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// toFloat64 从 SDK 的 protobuf Value 提取数值。
// Value 是 oneof 结构，按具体分支断言提取；数字型字符串可解析时也接受，
// 布尔值按 1.0/0.0 处理，bytes/列表类型不视为数值。
func toFloat64(val *feasttypes.Value) (float64, bool) {
	if val == nil {
		return 0, false
	}
	switch v := val.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return v.DoubleVal, true
	case *feasttypes.Value_FloatVal:
		return float64(v.FloatVal), true
	case *feasttypes.Value_Int64Val:
		return float64(v.Int64Val), true
	case *feasttypes.Value_Int32Val:
		return float64(v.Int32Val), true
	case *feasttypes.Value_BoolVal:
		if v.BoolVal {
			return 1, true
		}
		return 0, true
	case *feasttypes.Value_StringVal:
		if f, err := strconv.ParseFloat(v.StringVal, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
