package dataset

import (
	"strings"
	"testing"
)

func TestFilter(t *testing.T) {
	table := loadSample(t)

	tests := []struct {
		name     string
		expr     string
		wantRows int
	}{
		{"label threshold", "row.label > 300000.0", 4},
		{"combined condition", "row.sqft >= 1200.0 && row.rooms >= 3.0", 4},
		{"keep all", "row.age >= 0.0", 6},
		{"keep none", "row.label < 0.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered, err := table.Filter(tt.expr)
			if err != nil {
				t.Fatalf("Filter(%q): %v", tt.expr, err)
			}
			if len(filtered.Rows) != tt.wantRows {
				t.Errorf("expected %d rows, got %d", tt.wantRows, len(filtered.Rows))
			}
		})
	}
}

func TestFilter_DoesNotMutate(t *testing.T) {
	table := loadSample(t)
	before := len(table.Rows)

	if _, err := table.Filter("row.label > 400000.0"); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(table.Rows) != before {
		t.Error("Filter must not mutate the source table")
	}
}

func TestNewRowFilter_Errors(t *testing.T) {
	if _, err := NewRowFilter(""); err == nil {
		t.Error("expected error for empty expression")
	}
	if _, err := NewRowFilter("row.label >"); err == nil {
		t.Error("expected compile error for malformed expression")
	}
}

func TestGetCELEnv_Reused(t *testing.T) {
	env1, err1 := getCELEnv()
	if err1 != nil {
		t.Fatalf("getCELEnv: %v", err1)
	}
	env2, err2 := getCELEnv()
	if err2 != nil {
		t.Fatalf("getCELEnv second call: %v", err2)
	}
	// 环境只初始化一次，每次调用返回同一份结果（错误也一样被保留）
	if env1 != env2 {
		t.Error("cel env must be created once and reused")
	}
}

func TestRowFilter_NonBooleanResult(t *testing.T) {
	filter, err := NewRowFilter("row.label + 1.0")
	if err != nil {
		t.Fatalf("NewRowFilter: %v", err)
	}
	_, err = filter.Keep(map[string]interface{}{"label": 1.0})
	if err == nil || !strings.Contains(err.Error(), "boolean") {
		t.Fatalf("expected boolean type error, got %v", err)
	}
}
