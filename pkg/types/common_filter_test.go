package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFields(t *testing.T) {
	allowed := []string{"user_id", "course_id"}

	require.NoError(t, ValidateFields(nil, allowed))
	require.NoError(t, ValidateFields([]*CommonFilter{{Field: "user_id", Operator: CommonFilterOperatorEq, Values: []any{"u1"}}}, allowed))

	err := ValidateFields([]*CommonFilter{{Field: "amount; drop table purchase", Operator: CommonFilterOperatorEq}}, allowed)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported filter field")
}
