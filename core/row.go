package core

import "strconv"

// FeatureRow 是一次打分观测的有序特征向量，构造后不可变。
// 序列化约定：逗号分隔的数值文本（与训练数据的 CSV 列格式对齐，不含标签列）。
type FeatureRow []float64

// EncodeCSV 将特征行序列化为一行 CSV 文本（不含行尾换行符）。
func (r FeatureRow) EncodeCSV() string {
	return string(r.AppendCSV(nil))
}

// AppendCSV 将序列化结果追加到 dst，避免批量编码时的重复分配。
func (r FeatureRow) AppendCSV(dst []byte) []byte {
	for i, v := range r {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendFloat(dst, v, 'g', -1, 64)
	}
	return dst
}
