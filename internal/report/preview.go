package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"
)

// Preview is the bounded table rendered on the home view.
type Preview struct {
	Columns []string
	Rows    [][]string
}

// PreviewColumns is the display allow-list, in display order.
func PreviewColumns() []string {
	return []string{
		common.ColPassengerID,
		passenger.ColPclass,
		passenger.ColSex,
		passenger.ColAge,
		passenger.ColSibSp,
		passenger.ColParch,
		passenger.ColFare,
		passenger.ColEmbarked,
		common.ColPredictedLabel,
		common.ColSurvivalProbability,
	}
}

// floatColumns are always rendered as floats whatever their cell text, since
// hard 0/1 model probabilities are written without a decimal point.
var floatColumns = map[string]bool{
	common.ColSurvivalProbability: true,
}

// BuildPreview keeps the allow-listed columns present in t, in allow-list order,
// and at most limit rows. Cells of floating-point columns are formatted with
// three decimals and their missing cells render empty; everything else passes
// through.
func BuildPreview(t *passenger.Table, columns []string, limit int) Preview {
	var p Preview
	if t == nil {
		return p
	}

	var floating []bool
	for _, col := range columns {
		if !t.Has(col) {
			continue
		}
		p.Columns = append(p.Columns, col)
		values, _ := t.Column(col)
		floating = append(floating, floatColumns[col] || isFloatColumn(values))
	}

	n := t.Len()
	if limit >= 0 && n > limit {
		n = limit
	}

	p.Rows = make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(p.Columns))
		for j, col := range p.Columns {
			row[j] = formatCell(t.Value(i, col), floating[j])
		}
		p.Rows[i] = row
	}
	return p
}

func formatCell(raw string, floating bool) string {
	if !floating {
		return raw
	}
	trimmed := strings.TrimSpace(raw)
	if passenger.IsMissing(trimmed) {
		return ""
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return raw
	}
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// isFloatColumn reports whether a column holds floating-point data: every
// present cell is numeric and at least one is fractional, written in decimal
// or exponent form, or the column has gaps. Integer columns without gaps and
// text columns are not floating.
func isFloatColumn(values []string) bool {
	numeric, floatHint := 0, false
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if passenger.IsMissing(v) {
			floatHint = true
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return false
		}
		numeric++
		if f != math.Trunc(f) || strings.ContainsAny(v, ".eE") {
			floatHint = true
		}
	}
	return numeric > 0 && floatHint
}
