package passenger

// Required input columns, in the order missing columns are reported.
const (
	ColPclass   = "Pclass"
	ColSex      = "Sex"
	ColAge      = "Age"
	ColSibSp    = "SibSp"
	ColParch    = "Parch"
	ColFare     = "Fare"
	ColEmbarked = "Embarked"
)

// RequiredColumns returns the input contract in its fixed order.
func RequiredColumns() []string {
	return []string{ColPclass, ColSex, ColAge, ColSibSp, ColParch, ColFare, ColEmbarked}
}

// MissingColumns returns the required columns absent from t, in required order.
func MissingColumns(t *Table) []string {
	var missing []string
	for _, col := range RequiredColumns() {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Validate fails with a *SchemaError when any required column is absent.
// The table itself is not touched.
func Validate(t *Table) error {
	if missing := MissingColumns(t); len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
