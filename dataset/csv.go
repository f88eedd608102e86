package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"

	"github.com/rushteam/servekit/core"
)

// Table 是一份标签在首列的数值数据集（训练/验证/测试数据的统一表示）。
//
// 文件格式约定：CSV，首列为标签（回归目标值），其余列为特征；
// 可带可不带表头。所有值必须可解析为 float64。
type Table struct {
	// Header 列名（可为空，表示无表头）。Header[0] 为标签列名。
	Header []string

	// Rows 数据行，Rows[i][0] 为标签
	Rows [][]float64
}

// Load 从 reader 读取 CSV 数据集。
func Load(r io.Reader, hasHeader bool) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	t := &Table{}
	start := 0
	if hasHeader {
		t.Header = records[0]
		start = 1
	}

	t.Rows = make([][]float64, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		record := records[i]
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("parse row %d column %d (%q): %w", i, j, field, err)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// LoadFile 从文件读取 CSV 数据集。
func LoadFile(path string, hasHeader bool) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, hasHeader)
}

// Split 将数据集随机切分为训练/验证/测试三份。
//
// trainFrac + validFrac 必须在 (0, 1] 内，剩余部分作为测试集。
// 使用固定 seed 的洗牌保证切分可复现（同一 seed 得到同一切分）。
func (t *Table) Split(trainFrac, validFrac float64, seed int64) (train, valid, test *Table, err error) {
	if trainFrac <= 0 || validFrac < 0 || trainFrac+validFrac > 1 {
		return nil, nil, nil, fmt.Errorf("invalid split fractions: train=%v valid=%v", trainFrac, validFrac)
	}

	n := len(t.Rows)
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	trainEnd := int(float64(n) * trainFrac)
	validEnd := trainEnd + int(float64(n)*validFrac)

	pick := func(lo, hi int) *Table {
		part := &Table{Header: t.Header, Rows: make([][]float64, 0, hi-lo)}
		for _, idx := range perm[lo:hi] {
			part.Rows = append(part.Rows, t.Rows[idx])
		}
		return part
	}
	return pick(0, trainEnd), pick(trainEnd, validEnd), pick(validEnd, n), nil
}

// WriteCSV 将数据集写为 CSV 文本。
func (t *Table) WriteCSV(w io.Writer, withHeader bool) error {
	writer := csv.NewWriter(w)
	if withHeader && len(t.Header) > 0 {
		if err := writer.Write(t.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	record := make([]string, 0, 8)
	for _, row := range t.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// EncodeCSV 将数据集编码为 CSV 字节（上传对象存储时使用）。
func (t *Table) EncodeCSV(withHeader bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf, withHeader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FeatureRows 返回去掉标签列的特征行序列（推理输入）。
func (t *Table) FeatureRows() []core.FeatureRow {
	rows := make([]core.FeatureRow, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) <= 1 {
			rows[i] = core.FeatureRow{}
			continue
		}
		rows[i] = core.FeatureRow(row[1:])
	}
	return rows
}

// Labels 返回标签列（评估时与预测值对齐）。
func (t *Table) Labels() []float64 {
	labels := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) > 0 {
			labels[i] = row[0]
		}
	}
	return labels
}

// ColumnName 返回第 i 列的列名；无表头时生成 "label"/"f1"/"f2"... 形式。
func (t *Table) ColumnName(i int) string {
	if i < len(t.Header) {
		return t.Header[i]
	}
	if i == 0 {
		return "label"
	}
	return fmt.Sprintf("f%d", i)
}
