package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		raw  any
		want Value
	}{
		{true, Binary(true)},
		{false, Binary(false)},
		{int(3), Int(3)},
		{int64(-9), Int(-9)},
		{7.25, Float(7.25)},
	}
	for _, tc := range cases {
		got, err := ParseValue(tc.raw)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseValue("9.5")
	assert.Error(t, err, "strings are not readings")
	_, err = ParseValue(nil)
	assert.Error(t, err)
}

func TestValue_Float64Projection(t *testing.T) {
	assert.Equal(t, 1.0, Binary(true).Float64())
	assert.Equal(t, 0.0, Binary(false).Float64())
	assert.Equal(t, -4.0, Int(-4).Float64())
	assert.Equal(t, 2.5, Float(2.5).Float64())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "true", Binary(true).String())
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, "9.5", Float(9.5).String())
	assert.Equal(t, "32", Float(32).String())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("ph")
	require.NoError(t, err)
	assert.Equal(t, KindPH, k)
	assert.Equal(t, "ph", k.String())

	_, err = ParseKind("sentiment")
	assert.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("input")
	require.NoError(t, err)
	assert.Equal(t, DirectionInput, d)

	d, err = ParseDirection("output")
	require.NoError(t, err)
	assert.Equal(t, DirectionOutput, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
