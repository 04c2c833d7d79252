package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric("000000001"))
	assert.False(t, IsNumeric("12a"))
	assert.False(t, IsNumeric(""))
}

func TestIsValidDate(t *testing.T) {
	_, ok := IsValidDate("2024-03-01")
	assert.True(t, ok)
	_, ok = IsValidDate("01/03/2024")
	assert.False(t, ok)
}

type punchPayload struct {
	Type      string   `json:"type" validate:"required,oneof=ENTRY EXIT"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Radius    int      `json:"radius_meters" validate:"gt=0"`
	Internal  string   `json:"-" validate:"required"`
	Untouched string
}

func TestStruct(t *testing.T) {
	lat := 123.0
	errs := Struct(punchPayload{Type: "LUNCH", Latitude: &lat})
	require.Len(t, errs, 4)

	m := errs.ToMap()
	assert.Equal(t, "type must be one of: ENTRY, EXIT", m["type"])
	assert.Equal(t, "latitude must be between -90 and 90", m["latitude"])
	assert.Equal(t, "radius_meters must be greater than 0", m["radius_meters"])
	assert.Equal(t, "Internal is required", m["Internal"])

	assert.Nil(t, Struct(punchPayload{Type: "ENTRY", Radius: 10, Internal: "x"}))
}

func TestValidationErrorsError(t *testing.T) {
	errs := ValidationErrors{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}
	assert.Equal(t, "a: bad; b: worse", errs.Error())
}
