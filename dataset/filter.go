package dataset

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// getCELEnv 获取全局 CEL 环境：只初始化一次，线程安全，可复用。
// 初始化结果（包括失败的错误）被保留，后续每次调用都返回同一份。
var getCELEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		// row 是列名到数值的映射
		cel.Variable("row", cel.DynType),
	)
})

// RowFilter 是数据行筛选器，使用 CEL (Common Expression Language) 表达式。
// 训练/评估前的行级筛选（剔除离群值、限定子集）通过表达式声明，无需写代码。
//
// 表达式语法（CEL 标准语法），变量 row 为列名到数值的映射：
//   - `row.label > 0.0` → 标签为正的行
//   - `row.f1 < 1000.0 && row.f2 >= 0.0` → 组合条件
//   - `row.label != null` → 检查列存在性
type RowFilter struct {
	expr string
	prg  cel.Program
}

// NewRowFilter 编译一个行筛选表达式。表达式只编译一次，可对任意多行求值。
func NewRowFilter(expr string) (*RowFilter, error) {
	if expr == "" {
		return nil, fmt.Errorf("filter expression must not be empty")
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env init failed: %w", err)
	}

	// 编译表达式
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}

	// 创建程序
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}

	return &RowFilter{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本。
func (f *RowFilter) Expr() string { return f.expr }

// Keep 对一行求值，返回该行是否保留。
func (f *RowFilter) Keep(row map[string]interface{}) (bool, error) {
	out, _, err := f.prg.Eval(map[string]interface{}{"row": row})
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Filter 按表达式筛选数据集，返回只含保留行的新 Table（原 Table 不变）。
func (t *Table) Filter(expr string) (*Table, error) {
	filter, err := NewRowFilter(expr)
	if err != nil {
		return nil, err
	}

	out := &Table{Header: t.Header, Rows: make([][]float64, 0, len(t.Rows))}
	rowMap := make(map[string]interface{}, 8)
	for i, row := range t.Rows {
		for k := range rowMap {
			delete(rowMap, k)
		}
		for j, v := range row {
			rowMap[t.ColumnName(j)] = v
		}

		keep, err := filter.Keep(rowMap)
		if err != nil {
			return nil, fmt.Errorf("filter row %d: %w", i, err)
		}
		if keep {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
