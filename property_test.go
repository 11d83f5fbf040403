package orrery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePropertyAnimationOps(t *testing.T) {
	cases := []struct {
		in      string
		op      PropertyOp
		value   float64
		current float64
		want    float64
	}{
		{"10", OpAssign, 10, 3, 10},
		{"+=2.5", OpAdd, 2.5, 1, 3.5},
		{"-=1", OpSubtract, 1, 1, 0},
		{"*=2", OpMultiply, 2, 3, 6},
		{"/=4", OpDivide, 4, 2, 0.5},
		{" += 3 ", OpAdd, 3, 0, 3},
		{"-5", OpAssign, -5, 9, -5},
	}
	for _, c := range cases {
		p, err := ParsePropertyAnimation("positionX", c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.op, p.Op, c.in)
		assert.Equal(t, c.value, p.Value, c.in)
		assert.InDelta(t, c.want, p.ProcessOp(c.current), 1e-12, c.in)
	}
}

func TestDivideByZeroKeepsValue(t *testing.T) {
	p, err := ParsePropertyAnimation("scaleX", "/=0")
	require.NoError(t, err)
	assert.Equal(t, 7.0, p.ProcessOp(7))
}

func TestParsePropertyAnimationRejectsGarbage(t *testing.T) {
	_, err := ParsePropertyAnimation("positionX", "ten")
	assert.Error(t, err)
	_, err = ParsePropertyAnimation("color", "red")
	assert.Error(t, err)
}

func TestParseColorProperty(t *testing.T) {
	for _, in := range []string{"4294901760", "0xFFFF0000", "#FFFF0000"} {
		p, err := ParsePropertyAnimation("color", in)
		require.NoError(t, err, in)
		assert.Equal(t, uint32(0xFFFF0000), p.ARGB, in)
		assert.Equal(t, Color{R: 1, G: 0, B: 0, A: 1}, p.Color(), in)
		assert.Equal(t, "#FFFF0000", p.String())
	}
}

func TestPropertyAnimationString(t *testing.T) {
	p, _ := ParsePropertyAnimation("positionX", "+=10")
	assert.Equal(t, "+=10", p.String())
	p, _ = ParsePropertyAnimation("opacity", "0.5")
	assert.Equal(t, "0.5", p.String())
}

func TestChannelNames(t *testing.T) {
	for c := ChannelPositionX; c < numChannels; c++ {
		got, ok := ChannelForName(c.String())
		require.True(t, ok, c.String())
		assert.Equal(t, c, got)
	}
	_, ok := ChannelForName("skew")
	assert.False(t, ok)
}

func TestParsePropertyMapSkipsBadEntries(t *testing.T) {
	captureLogs(t)
	m := ParsePropertyMap(map[string]string{
		"positionX": "+=1",
		"opacity":   "0",
		"skew":      "3",
		"scaleY":    "big",
	})
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Has(ChannelPositionX))
	assert.True(t, m.Has(ChannelScaleZ, ChannelOpacity))
	assert.False(t, m.Has(ChannelScaleY))

	a, ok := m.Lookup(ChannelOpacity)
	require.True(t, ok)
	assert.Equal(t, 0.0, a.ProcessOp(1))

	_, ok = m.Lookup(ChannelColor)
	assert.False(t, ok)
}
