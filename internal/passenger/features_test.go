package passenger

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Pclass,Sex,Age,SibSp,Parch,Fare,Embarked\n"

func TestDeriveFamily(t *testing.T) {
	for sibSp := 0; sibSp <= 8; sibSp++ {
		for parch := 0; parch <= 6; parch++ {
			d := DeriveFamily(sibSp, parch)
			assert.Equal(t, sibSp+parch+1, d.FamilySize)
			assert.GreaterOrEqual(t, d.FamilySize, 1)
			if d.FamilySize == 1 {
				assert.Equal(t, 1, d.IsAlone)
			} else {
				assert.Equal(t, 0, d.IsAlone)
			}
		}
	}
}

func TestDerive_SinglePassenger(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(header + "3,male,22,1,0,7.25,S\n"))
	require.NoError(t, err)

	derived, vectors, err := Derive(table)
	require.NoError(t, err)
	require.Len(t, derived, 1)
	require.Len(t, vectors, 1)

	assert.Equal(t, Derived{FamilySize: 2, IsAlone: 0}, derived[0])

	v := vectors[0]
	assert.Equal(t, 3, v.Pclass)
	require.NotNil(t, v.Sex)
	assert.Equal(t, "male", *v.Sex)
	require.NotNil(t, v.Age)
	assert.Equal(t, 22.0, *v.Age)
	require.NotNil(t, v.Fare)
	assert.Equal(t, 7.25, *v.Fare)
	require.NotNil(t, v.Embarked)
	assert.Equal(t, "S", *v.Embarked)
	assert.Equal(t, 0, v.IsAlone)
}

func TestDerive_MissingValuesBecomeNull(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(header + "1,female,,0,0,NaN,\n"))
	require.NoError(t, err)

	derived, vectors, err := Derive(table)
	require.NoError(t, err)

	assert.Equal(t, Derived{FamilySize: 1, IsAlone: 1}, derived[0])
	assert.Nil(t, vectors[0].Age)
	assert.Nil(t, vectors[0].Fare)
	assert.Nil(t, vectors[0].Embarked)
}

func TestDerive_AcceptsIntegralFloats(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(header + "2.0,male,30.5,1.0,2.0,13,C\n"))
	require.NoError(t, err)

	derived, vectors, err := Derive(table)
	require.NoError(t, err)
	assert.Equal(t, 4, derived[0].FamilySize)
	assert.Equal(t, 2, vectors[0].Pclass)
}

func TestDerive_TypeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"non-numeric age", "3,male,young,0,0,7.25,S", "Age"},
		{"non-numeric fare", "3,male,22,0,0,cheap,S", "Fare"},
		{"fractional sibsp", "3,male,22,0.5,0,7.25,S", "SibSp"},
		{"missing parch", "3,male,22,0,,7.25,S", "Parch"},
		{"negative parch", "3,male,22,0,-1,7.25,S", "Parch"},
		{"text pclass", "first,male,22,0,0,7.25,S", "Pclass"},
		{"huge sibsp", "3,male,22,9e18,9e18,7.25,S", "SibSp"},
		{"count above limit", "3,male,22,0,1001,7.25,S", "Parch"},
		{"pclass out of int range", "1e300,male,22,0,0,7.25,S", "Pclass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseCSV(strings.NewReader(header + "1,female,30,0,0,10,C\n" + tt.row + "\n"))
			require.NoError(t, err)

			_, _, err = Derive(table)
			var mismatch *TypeMismatchError
			require.True(t, errors.As(err, &mismatch), "expected *TypeMismatchError, got %v", err)
			assert.Equal(t, tt.column, mismatch.Column)
			assert.Equal(t, 1, mismatch.Row)
			assert.Contains(t, mismatch.UserMessage(), "Error during prediction")
		})
	}
}

func TestDerive_LargestCountsKeepFamilySizePositive(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(header + "3,male,22,1000,1000,7.25,S\n"))
	require.NoError(t, err)

	derived, _, err := Derive(table)
	require.NoError(t, err)
	assert.Equal(t, 2001, derived[0].FamilySize)
	assert.Equal(t, 0, derived[0].IsAlone)
}

func TestDerive_PreservesRowOrder(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(header +
		"1,female,38,1,0,71.28,C\n" +
		"3,male,35,0,0,8.05,S\n" +
		"2,female,14,1,2,30.07,C\n"))
	require.NoError(t, err)

	derived, vectors, err := Derive(table)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 2}, []int{vectors[0].Pclass, vectors[1].Pclass, vectors[2].Pclass})
	assert.Equal(t, []int{2, 1, 4}, []int{derived[0].FamilySize, derived[1].FamilySize, derived[2].FamilySize})
}

func TestFeatureColumns(t *testing.T) {
	assert.Equal(t, []string{"Pclass", "Sex", "Age", "Fare", "Embarked", "IsAlone"}, FeatureColumns())
}
