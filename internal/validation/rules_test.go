package validation

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" validate:"required"`
	Day   string   `json:"day" validate:"required,datetime=2006-01-02,notfuture"`
	Level *float64 `json:"level" validate:"required,between=0 100"`
	Rate  *float64 `json:"rate,omitempty" validate:"required,between=-10 10"`
}

var labels = map[string]string{"name": "Name", "day": "Day", "level": "Level"}

func ptr(f float64) *float64 { return &f }

func newValidator() *Validator {
	return New(clockwork.NewFakeClockAt(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)))
}

func TestStruct_Valid(t *testing.T) {
	msgs, err := newValidator().Struct(sample{Name: "x", Day: "2024-06-15", Level: ptr(0), Rate: ptr(-10)}, labels)
	require.NoError(t, err)
	assert.Nil(t, msgs)
}

// TestStruct_Messages verifies one message per failing field, keyed by json
// name, with the label substituted and unlabeled fields using the json name.
func TestStruct_Messages(t *testing.T) {
	msgs, err := newValidator().Struct(sample{Day: "2024-06-16", Level: ptr(100.5), Rate: ptr(11)}, labels)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"name":  "Name is required",
		"day":   "Day cannot be in the future",
		"level": "Level must be between 0 and 100",
		"rate":  "rate must be between -10 and 10",
	}, msgs)
}

func TestStruct_RequiredPointers(t *testing.T) {
	msgs, err := newValidator().Struct(sample{Name: "x", Day: "2024-01-01"}, labels)
	require.NoError(t, err)
	assert.Equal(t, "Level is required", msgs["level"])
	assert.Equal(t, "rate is required", msgs["rate"])
}

// TestNotFuture_Boundaries verifies that today passes and tomorrow fails.
func TestNotFuture_Boundaries(t *testing.T) {
	v := newValidator()
	for day, wantOK := range map[string]bool{
		"2024-06-14": true,
		"2024-06-15": true,
		"2024-06-16": false,
		"2030-01-01": false,
	} {
		msgs, err := v.Struct(sample{Name: "x", Day: day, Level: ptr(1), Rate: ptr(1)}, labels)
		require.NoError(t, err)
		_, failed := msgs["day"]
		assert.Equal(t, wantOK, !failed, day)
	}
}

func TestDatetime_Invalid(t *testing.T) {
	msgs, err := newValidator().Struct(sample{Name: "x", Day: "15/06/2024", Level: ptr(1), Rate: ptr(1)}, labels)
	require.NoError(t, err)
	assert.Equal(t, "Day must be a valid date (YYYY-MM-DD)", msgs["day"])
}

func TestStruct_NonStruct(t *testing.T) {
	_, err := newValidator().Struct(42, nil)
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Sea Level must be a number", Message("Sea Level", "number", ""))
	assert.Equal(t, "Sea Level is invalid", Message("Sea Level", "oneof", "a b"))
}

func TestParseBounds(t *testing.T) {
	lo, hi, ok := parseBounds("-10 10")
	assert.True(t, ok)
	assert.Equal(t, -10.0, lo)
	assert.Equal(t, 10.0, hi)

	_, _, ok = parseBounds("10")
	assert.False(t, ok)
	_, _, ok = parseBounds("a b")
	assert.False(t, ok)
}
