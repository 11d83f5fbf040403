package orrery

import (
	"fmt"
	"strconv"
	"strings"
)

// PropertyOp is the arithmetic applied by a PropertyAnimation to the
// property's current value.
type PropertyOp uint8

const (
	OpAssign   PropertyOp = iota // "10"
	OpAdd                        // "+=10"
	OpSubtract                   // "-=10"
	OpMultiply                   // "*=10"
	OpDivide                     // "/=10"
)

var opPrefixes = [...]string{
	OpAdd:      "+=",
	OpSubtract: "-=",
	OpMultiply: "*=",
	OpDivide:   "/=",
}

// PropertyAnimation is a single declarative interpolation target bound to a
// named node property. The start value is whatever the property holds when
// the owning Group executes; the end value is ProcessOp(start).
type PropertyAnimation struct {
	Name  string
	Op    PropertyOp
	Value float64
	// ARGB holds the packed color for the "color" property.
	ARGB uint32
}

// ParsePropertyAnimation parses a property descriptor such as "10", "+=2.5"
// or, for the color property, a packed ARGB integer ("4294901760",
// "0xFFFF0000" or "#FFFF0000").
func ParsePropertyAnimation(name, value string) (PropertyAnimation, error) {
	p := PropertyAnimation{Name: name}
	v := strings.TrimSpace(value)

	if name == "color" {
		argb, err := parseARGB(v)
		if err != nil {
			return p, fmt.Errorf("parse property %q: %w", name, err)
		}
		p.ARGB = argb
		p.Value = float64(argb)
		return p, nil
	}

	for op, prefix := range opPrefixes {
		if prefix != "" && strings.HasPrefix(v, prefix) {
			p.Op = PropertyOp(op)
			v = strings.TrimSpace(v[len(prefix):])
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return p, fmt.Errorf("parse property %q: %w", name, err)
	}
	p.Value = f
	return p, nil
}

func parseARGB(v string) (uint32, error) {
	if strings.HasPrefix(v, "#") {
		v = "0x" + v[1:]
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// ProcessOp returns the property's new value given its current value.
// Division by zero leaves the value unchanged.
func (p PropertyAnimation) ProcessOp(current float64) float64 {
	switch p.Op {
	case OpAdd:
		return current + p.Value
	case OpSubtract:
		return current - p.Value
	case OpMultiply:
		return current * p.Value
	case OpDivide:
		if p.Value == 0 {
			return current
		}
		return current / p.Value
	default:
		return p.Value
	}
}

// Color returns the unpacked color of a "color" property animation.
func (p PropertyAnimation) Color() Color {
	return ColorFromARGB(p.ARGB)
}

func (p PropertyAnimation) String() string {
	if p.Name == "color" {
		return fmt.Sprintf("#%08X", p.ARGB)
	}
	prefix := ""
	if int(p.Op) < len(opPrefixes) {
		prefix = opPrefixes[p.Op]
	}
	return prefix + strconv.FormatFloat(p.Value, 'g', -1, 64)
}

// Channel is a closed enumeration of the scalar node properties a Group can
// animate.
type Channel uint8

const (
	ChannelPositionX Channel = iota
	ChannelPositionY
	ChannelPositionZ
	ChannelScaleX
	ChannelScaleY
	ChannelScaleZ
	ChannelRotateX
	ChannelRotateY
	ChannelRotateZ
	ChannelOpacity
	ChannelColor
	numChannels
)

var channelNames = [numChannels]string{
	ChannelPositionX: "positionX",
	ChannelPositionY: "positionY",
	ChannelPositionZ: "positionZ",
	ChannelScaleX:    "scaleX",
	ChannelScaleY:    "scaleY",
	ChannelScaleZ:    "scaleZ",
	ChannelRotateX:   "rotateX",
	ChannelRotateY:   "rotateY",
	ChannelRotateZ:   "rotateZ",
	ChannelOpacity:   "opacity",
	ChannelColor:     "color",
}

// String returns the declarative property key for the channel.
func (c Channel) String() string {
	if c < numChannels {
		return channelNames[c]
	}
	return "unknown"
}

// ChannelForName returns the channel for a declarative property key.
func ChannelForName(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

// PropertyMap holds a Group's property animations keyed by channel.
type PropertyMap struct {
	set  [numChannels]bool
	anim [numChannels]PropertyAnimation
}

// Set stores the animation for a channel.
func (m *PropertyMap) Set(c Channel, a PropertyAnimation) {
	if c >= numChannels {
		return
	}
	m.set[c] = true
	m.anim[c] = a
}

// Lookup returns the animation for a channel, if present.
func (m *PropertyMap) Lookup(c Channel) (PropertyAnimation, bool) {
	if c >= numChannels || !m.set[c] {
		return PropertyAnimation{}, false
	}
	return m.anim[c], true
}

// Has reports whether any of the given channels is present.
func (m *PropertyMap) Has(channels ...Channel) bool {
	for _, c := range channels {
		if c < numChannels && m.set[c] {
			return true
		}
	}
	return false
}

// Len returns the number of channels present.
func (m *PropertyMap) Len() int {
	n := 0
	for _, s := range m.set {
		if s {
			n++
		}
	}
	return n
}

// ParsePropertyMap converts a declarative property description into a
// PropertyMap. Unknown keys and malformed values are skipped with a warning.
func ParsePropertyMap(props map[string]string) PropertyMap {
	var m PropertyMap
	for name, value := range props {
		c, ok := ChannelForName(name)
		if !ok {
			logger.Warn("skipping unknown animation property", "property", name)
			continue
		}
		a, err := ParsePropertyAnimation(name, value)
		if err != nil {
			logger.Warn("skipping malformed animation property", "property", name, "err", err)
			continue
		}
		m.Set(c, a)
	}
	return m
}
