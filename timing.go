package orrery

import (
	"math"
	"strings"

	"github.com/tanema/gween/ease"
)

// TimingFunctionType names one of the built-in easing curves.
type TimingFunctionType uint8

const (
	TimingLinear        TimingFunctionType = iota // identity
	TimingEaseIn                                  // slow start
	TimingEaseOut                                 // slow finish
	TimingEaseInEaseOut                           // slow start and finish
	TimingBounce                                  // settles with bounces at the end
	TimingPowerDecel                              // fast start, strong deceleration
	TimingCubicBezier                             // CSS "ease" curve unless built with NewCubicBezier
)

var timingNames = [...]string{
	TimingLinear:        "Linear",
	TimingEaseIn:        "EaseIn",
	TimingEaseOut:       "EaseOut",
	TimingEaseInEaseOut: "EaseInEaseOut",
	TimingBounce:        "Bounce",
	TimingPowerDecel:    "PowerDecel",
	TimingCubicBezier:   "CubicBezier",
}

func (t TimingFunctionType) String() string {
	if int(t) < len(timingNames) {
		return timingNames[t]
	}
	return "Unknown"
}

// TimingFunction maps linear progress t in [0, 1] to eased progress.
// Implementations are stateless and safe to share.
type TimingFunction interface {
	Ease(t float64) float64
}

// easeTiming adapts a gween easing equation to a unit-range TimingFunction.
type easeTiming struct {
	fn ease.TweenFunc
}

func (e easeTiming) Ease(t float64) float64 {
	return float64(e.fn(float32(t), 0, 1, 1))
}

// linearTiming is the identity, kept in float64 rather than going through
// gween's float32 equations.
type linearTiming struct{}

func (linearTiming) Ease(t float64) float64 { return t }

var (
	timingLinear      TimingFunction = linearTiming{}
	timingEaseIn      TimingFunction = easeTiming{ease.InCubic}
	timingEaseOut     TimingFunction = easeTiming{ease.OutCubic}
	timingEaseInOut   TimingFunction = easeTiming{ease.InOutCubic}
	timingBounce      TimingFunction = easeTiming{ease.OutBounce}
	timingPowerDecel  TimingFunction = easeTiming{ease.OutQuart}
	timingCubicBezier TimingFunction = NewCubicBezier(0.25, 0.1, 0.25, 1)
)

// TimingFunctionFor returns the shared TimingFunction for a built-in type.
// Unknown types resolve to Linear.
func TimingFunctionFor(t TimingFunctionType) TimingFunction {
	switch t {
	case TimingEaseIn:
		return timingEaseIn
	case TimingEaseOut:
		return timingEaseOut
	case TimingEaseInEaseOut:
		return timingEaseInOut
	case TimingBounce:
		return timingBounce
	case TimingPowerDecel:
		return timingPowerDecel
	case TimingCubicBezier:
		return timingCubicBezier
	default:
		return timingLinear
	}
}

// ParseTimingFunction resolves a timing function name case-insensitively.
// Names that match nothing resolve to TimingLinear.
func ParseTimingFunction(name string) TimingFunctionType {
	name = strings.TrimSpace(name)
	for i, n := range timingNames {
		if strings.EqualFold(name, n) {
			return TimingFunctionType(i)
		}
	}
	return TimingLinear
}

// CubicBezier is a timing curve through (0,0), (X1,Y1), (X2,Y2), (1,1).
type CubicBezier struct {
	cx, bx, ax float64
	cy, by, ay float64
}

// NewCubicBezier builds a cubic-bezier timing function from its two inner
// control points. X coordinates are clamped to [0, 1] so the curve stays a
// function of time.
func NewCubicBezier(x1, y1, x2, y2 float64) *CubicBezier {
	x1 = clamp01(x1)
	x2 = clamp01(x2)
	b := &CubicBezier{}
	b.cx = 3 * x1
	b.bx = 3*(x2-x1) - b.cx
	b.ax = 1 - b.cx - b.bx
	b.cy = 3 * y1
	b.by = 3*(y2-y1) - b.cy
	b.ay = 1 - b.cy - b.by
	return b
}

func (b *CubicBezier) sampleX(s float64) float64 { return ((b.ax*s+b.bx)*s + b.cx) * s }
func (b *CubicBezier) sampleY(s float64) float64 { return ((b.ay*s+b.by)*s + b.cy) * s }
func (b *CubicBezier) slopeX(s float64) float64  { return (3*b.ax*s+2*b.bx)*s + b.cx }

// solveX finds the curve parameter whose x equals x. Newton-Raphson first,
// bisection when the slope is too flat to converge.
func (b *CubicBezier) solveX(x float64) float64 {
	const eps = 1e-7
	s := x
	for i := 0; i < 8; i++ {
		dx := b.sampleX(s) - x
		if math.Abs(dx) < eps {
			return s
		}
		d := b.slopeX(s)
		if math.Abs(d) < 1e-6 {
			break
		}
		s -= dx / d
	}
	lo, hi := 0.0, 1.0
	s = x
	for lo < hi {
		v := b.sampleX(s)
		if math.Abs(v-x) < eps {
			return s
		}
		if x > v {
			lo = s
		} else {
			hi = s
		}
		s = (hi-lo)/2 + lo
		if hi-lo < eps {
			break
		}
	}
	return s
}

// Ease implements TimingFunction.
func (b *CubicBezier) Ease(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return b.sampleY(b.solveX(t))
}
