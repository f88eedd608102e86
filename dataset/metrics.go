package dataset

import (
	"fmt"
	"math"
	"sort"
)

// MdAPE 计算中位数绝对百分比误差（Median Absolute Percentage Error）。
//
// 定义：median(|pred[i] - actual[i]| / |actual[i]|)。
// actual 为 0 的样本无法定义百分比误差，直接跳过；
// 全部样本都被跳过时返回错误而不是 NaN。
func MdAPE(preds, actuals []float64) (float64, error) {
	if len(preds) != len(actuals) {
		return 0, fmt.Errorf("length mismatch: %d predictions vs %d actuals", len(preds), len(actuals))
	}
	if len(preds) == 0 {
		return 0, fmt.Errorf("empty input")
	}

	errs := make([]float64, 0, len(preds))
	for i := range preds {
		if actuals[i] == 0 {
			continue
		}
		errs = append(errs, math.Abs(preds[i]-actuals[i])/math.Abs(actuals[i]))
	}
	if len(errs) == 0 {
		return 0, fmt.Errorf("all actual values are zero")
	}

	sort.Float64s(errs)
	mid := len(errs) / 2
	if len(errs)%2 == 1 {
		return errs[mid], nil
	}
	return (errs[mid-1] + errs[mid]) / 2, nil
}
