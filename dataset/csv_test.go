package dataset

import (
	"strings"
	"testing"
)

const sampleCSV = `label,sqft,rooms,age
310000,1200,3,15
450000,1800,4,8
199000,850,2,40
620000,2400,5,3
385000,1500,3,12
275000,1100,3,25
` // 6 行，首列为标签

func loadSample(t *testing.T) *Table {
	t.Helper()
	table, err := Load(strings.NewReader(sampleCSV), true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return table
}

func TestLoad(t *testing.T) {
	table := loadSample(t)
	if len(table.Rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(table.Rows))
	}
	if len(table.Header) != 4 || table.Header[0] != "label" {
		t.Fatalf("unexpected header: %v", table.Header)
	}
	if table.Rows[0][0] != 310000 || table.Rows[0][1] != 1200 {
		t.Errorf("unexpected first row: %v", table.Rows[0])
	}
}

func TestLoad_NoHeader(t *testing.T) {
	table, err := Load(strings.NewReader("1,2,3\n4,5,6\n"), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(table.Rows) != 2 || len(table.Header) != 0 {
		t.Fatalf("unexpected table: header=%v rows=%d", table.Header, len(table.Rows))
	}
	if table.ColumnName(0) != "label" || table.ColumnName(2) != "f2" {
		t.Errorf("generated column names wrong: %s %s", table.ColumnName(0), table.ColumnName(2))
	}
}

func TestLoad_MalformedValue(t *testing.T) {
	_, err := Load(strings.NewReader("1,2\n3,abc\n"), false)
	if err == nil || !strings.Contains(err.Error(), "abc") {
		t.Fatalf("expected parse error naming the bad field, got %v", err)
	}
}

func TestSplit(t *testing.T) {
	table := loadSample(t)

	train, valid, test, err := table.Split(0.5, 0.3, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(train.Rows) != 3 || len(valid.Rows) != 1 || len(test.Rows) != 2 {
		t.Fatalf("unexpected split sizes: %d/%d/%d", len(train.Rows), len(valid.Rows), len(test.Rows))
	}

	// 同一 seed 的切分可复现
	train2, _, _, _ := table.Split(0.5, 0.3, 42)
	for i := range train.Rows {
		if train.Rows[i][0] != train2.Rows[i][0] {
			t.Fatal("split with the same seed must be deterministic")
		}
	}

	// 三份拼起来覆盖全部行（按标签集合验证）
	seen := make(map[float64]bool)
	for _, part := range []*Table{train, valid, test} {
		for _, row := range part.Rows {
			seen[row[0]] = true
		}
	}
	if len(seen) != 6 {
		t.Errorf("split lost rows: %d unique labels", len(seen))
	}
}

func TestSplit_InvalidFractions(t *testing.T) {
	table := loadSample(t)
	if _, _, _, err := table.Split(0.8, 0.5, 1); err == nil {
		t.Fatal("expected error for fractions summing over 1")
	}
	if _, _, _, err := table.Split(0, 0.5, 1); err == nil {
		t.Fatal("expected error for zero train fraction")
	}
}

func TestFeatureRowsAndLabels(t *testing.T) {
	table := loadSample(t)

	rows := table.FeatureRows()
	labels := table.Labels()
	if len(rows) != 6 || len(labels) != 6 {
		t.Fatalf("unexpected lengths: %d rows, %d labels", len(rows), len(labels))
	}
	if labels[1] != 450000 {
		t.Errorf("unexpected label: %v", labels[1])
	}
	// 特征行不含标签列
	if len(rows[1]) != 3 || rows[1][0] != 1800 {
		t.Errorf("unexpected feature row: %v", rows[1])
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	table := loadSample(t)

	data, err := table.EncodeCSV(true)
	if err != nil {
		t.Fatalf("EncodeCSV: %v", err)
	}
	again, err := Load(strings.NewReader(string(data)), true)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(again.Rows) != len(table.Rows) {
		t.Fatalf("row count changed: %d -> %d", len(table.Rows), len(again.Rows))
	}
	for i := range table.Rows {
		for j := range table.Rows[i] {
			if table.Rows[i][j] != again.Rows[i][j] {
				t.Fatalf("row %d column %d changed: %v -> %v", i, j, table.Rows[i][j], again.Rows[i][j])
			}
		}
	}
}
