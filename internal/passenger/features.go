package passenger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"
)

// maxCount bounds SibSp and Parch so FamilySize cannot overflow.
const maxCount = 1000

// Derived holds the values computed from a row's raw columns.
type Derived struct {
	FamilySize int
	IsAlone    int
}

// FeatureVector is the exact input row the predictor receives. Field order and
// JSON names are part of the model contract: Pclass, Sex, Age, Fare, Embarked, IsAlone.
// Nil pointers are missing values.
type FeatureVector struct {
	Pclass   int      `json:"Pclass"`
	Sex      *string  `json:"Sex"`
	Age      *float64 `json:"Age"`
	Fare     *float64 `json:"Fare"`
	Embarked *string  `json:"Embarked"`
	IsAlone  int      `json:"IsAlone"`
}

// FeatureColumns returns the feature names in model order.
func FeatureColumns() []string {
	return []string{ColPclass, ColSex, ColAge, ColFare, ColEmbarked, common.ColIsAlone}
}

// DeriveFamily computes FamilySize and IsAlone from the sibling/spouse and
// parent/child counts.
func DeriveFamily(sibSp, parch int) Derived {
	size := sibSp + parch + 1
	alone := 0
	if size == 1 {
		alone = 1
	}
	return Derived{FamilySize: size, IsAlone: alone}
}

// Derive computes the family features for every row of a validated table and
// projects each row to its FeatureVector. The first cell that cannot be coerced
// aborts with a *TypeMismatchError.
func Derive(t *Table) ([]Derived, []FeatureVector, error) {
	derived := make([]Derived, t.Len())
	vectors := make([]FeatureVector, t.Len())

	for r := 0; r < t.Len(); r++ {
		sibSp, err := countCell(t, r, ColSibSp)
		if err != nil {
			return nil, nil, err
		}
		parch, err := countCell(t, r, ColParch)
		if err != nil {
			return nil, nil, err
		}
		pclass, err := integerCell(t, r, ColPclass)
		if err != nil {
			return nil, nil, err
		}
		age, err := optionalFloatCell(t, r, ColAge)
		if err != nil {
			return nil, nil, err
		}
		fare, err := optionalFloatCell(t, r, ColFare)
		if err != nil {
			return nil, nil, err
		}

		d := DeriveFamily(sibSp, parch)
		derived[r] = d
		vectors[r] = FeatureVector{
			Pclass:   pclass,
			Sex:      optionalString(t.Value(r, ColSex)),
			Age:      age,
			Fare:     fare,
			Embarked: optionalString(t.Value(r, ColEmbarked)),
			IsAlone:  d.IsAlone,
		}
	}

	return derived, vectors, nil
}

func integerCell(t *Table, row int, column string) (int, error) {
	raw := t.Value(row, column)
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, &TypeMismatchError{Row: row, Column: column, Value: raw, Want: "integer"}
	}
	return int(f), nil
}

func countCell(t *Table, row int, column string) (int, error) {
	n, err := integerCell(t, row, column)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxCount {
		return 0, &TypeMismatchError{Row: row, Column: column, Value: t.Value(row, column), Want: fmt.Sprintf("count between 0 and %d", maxCount)}
	}
	return n, nil
}

func optionalFloatCell(t *Table, row int, column string) (*float64, error) {
	raw := strings.TrimSpace(t.Value(row, column))
	if IsMissing(raw) {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil, &TypeMismatchError{Row: row, Column: column, Value: raw, Want: "number"}
	}
	if math.IsNaN(f) {
		return nil, nil
	}
	return &f, nil
}

func optionalString(raw string) *string {
	raw = strings.TrimSpace(raw)
	if IsMissing(raw) {
		return nil
	}
	return &raw
}

// IsMissing reports whether a cell is empty or one of the NA spellings CSV
// exporters emit.
func IsMissing(raw string) bool {
	switch raw {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL", "None":
		return true
	}
	return false
}
