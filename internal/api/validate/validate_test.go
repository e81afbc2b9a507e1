package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	WorkID string `json:"work_id" validate:"required"`
	Amount int64  `json:"amount" validate:"gt=0"`
}

func TestStructReportsJSONNames(t *testing.T) {
	err := Struct(sample{})
	require.Error(t, err)

	var errs Errs
	require.True(t, errors.As(err, &errs))
	assert.ElementsMatch(t, Errs{
		{Field: "work_id", Msg: "required"},
		{Field: "amount", Msg: "must be > 0"},
	}, errs)
}

func TestStructOK(t *testing.T) {
	assert.NoError(t, Struct(sample{WorkID: "w", Amount: 1}))
}
