package orrery

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MaterialAnimation swaps the visual state of the material at Index on the
// target geometry toward Material.
type MaterialAnimation struct {
	Index    int
	Material *LazyMaterial
}

// Group animates several node properties at once under a single transaction.
type Group struct {
	duration   float64
	delay      float64
	timingType TimingFunctionType
	speed      float64
	timeOffset float64

	properties PropertyMap
	materials  []MaterialAnimation

	sched *Scheduler
	tx    *Transaction
}

// NewGroup creates a group from already-parsed property animations.
func NewGroup(duration, delay float64, timing TimingFunctionType, properties PropertyMap, materials []MaterialAnimation) *Group {
	return &Group{
		duration:   duration,
		delay:      delay,
		timingType: timing,
		speed:      1,
		properties: properties,
		materials:  append([]MaterialAnimation(nil), materials...),
	}
}

// ParseGroup builds a group from a declarative description. functionName is
// matched case-insensitively and defaults to Linear. Unknown or malformed
// properties are skipped. The i-th material animates material slot i.
func ParseGroup(duration, delay float64, functionName string, properties map[string]string, materials []*LazyMaterial) *Group {
	var anims []MaterialAnimation
	for i, m := range materials {
		anims = append(anims, MaterialAnimation{Index: i, Material: m})
	}
	return NewGroup(duration, delay, ParseTimingFunction(functionName), ParsePropertyMap(properties), anims)
}

// TimingFunctionType returns the group's easing curve.
func (g *Group) TimingFunctionType() TimingFunctionType { return g.timingType }

// Delay returns the start delay in seconds.
func (g *Group) Delay() float64 { return g.delay }

// Properties returns the group's property animations.
func (g *Group) Properties() PropertyMap { return g.properties }

// MaterialAnimations returns the group's material animations. The returned
// slice MUST NOT be mutated.
func (g *Group) MaterialAnimations() []MaterialAnimation { return g.materials }

// Transaction returns the running transaction, or nil when idle.
func (g *Group) Transaction() *Transaction { return g.tx }

// Execute implements ExecutableAnimation. Panics if node is not attached to
// a scheduler.
func (g *Group) Execute(node *Node, onFinished func()) {
	s := mustScheduler(node, "Group.Execute")

	s.Begin()
	s.SetAnimationDelay(g.delay)
	s.SetAnimationDuration(g.duration)
	s.SetTimingFunctionType(g.timingType)
	s.SetAnimationSpeed(g.speed)
	s.SetAnimationTimeOffset(g.timeOffset)

	g.animateMaterial(node)
	g.animatePosition(node)
	g.animateColor(node)
	g.animateOpacity(node)
	g.animateScale(node)
	g.animateRotation(node)

	var tx *Transaction
	s.SetFinishCallback(func(bool) {
		if g.tx == tx {
			g.tx = nil
		}
		if onFinished != nil {
			onFinished()
		}
	})
	tx = s.Commit()
	g.sched = s
	g.tx = tx
}

func (g *Group) animateMaterial(node *Node) {
	if len(g.materials) == 0 {
		return
	}
	geo := node.Geometry()
	if geo == nil {
		return
	}
	for _, ma := range g.materials {
		mats := geo.Materials()
		if ma.Index < 0 || ma.Index >= len(mats) || ma.Material == nil {
			continue
		}
		start := mats[ma.Index]
		end, err := ma.Material.Get()
		if err != nil {
			logger.Warn("skipping material animation", "material", ma.Material.Name(), "err", err)
			continue
		}
		if start == nil || end == nil {
			continue
		}

		if end.DiffuseTextureType() != TextureNone {
			start.SetDiffuseTexture(end.DiffuseTexture)
		} else {
			start.SetDiffuseColor(end.DiffuseColor())
		}
		start.SetShininess(end.Shininess())
		start.SetFresnelExponent(end.FresnelExponent())
		start.CullMode = end.CullMode
		start.LightingModel = end.LightingModel
		start.WritesToDepthBuffer = end.WritesToDepthBuffer
		start.ReadsFromDepthBuffer = end.ReadsFromDepthBuffer
	}
}

func (g *Group) animatePosition(node *Node) {
	pos := node.Position()
	if a, ok := g.properties.Lookup(ChannelPositionX); ok {
		node.SetPositionX(a.ProcessOp(pos[0]))
	}
	if a, ok := g.properties.Lookup(ChannelPositionY); ok {
		node.SetPositionY(a.ProcessOp(pos[1]))
	}
	if a, ok := g.properties.Lookup(ChannelPositionZ); ok {
		node.SetPositionZ(a.ProcessOp(pos[2]))
	}
}

func (g *Group) animateScale(node *Node) {
	scale := node.Scale()
	if a, ok := g.properties.Lookup(ChannelScaleX); ok {
		node.SetScaleX(a.ProcessOp(scale[0]))
	}
	if a, ok := g.properties.Lookup(ChannelScaleY); ok {
		node.SetScaleY(a.ProcessOp(scale[1]))
	}
	if a, ok := g.properties.Lookup(ChannelScaleZ); ok {
		node.SetScaleZ(a.ProcessOp(scale[2]))
	}
}

func (g *Group) animateRotation(node *Node) {
	rot := node.RotationEuler()
	if a, ok := g.properties.Lookup(ChannelRotateX); ok {
		node.SetRotationEulerX(a.ProcessOp(rot[0]))
	}
	if a, ok := g.properties.Lookup(ChannelRotateY); ok {
		node.SetRotationEulerY(a.ProcessOp(rot[1]))
	}
	if a, ok := g.properties.Lookup(ChannelRotateZ); ok {
		node.SetRotationEulerZ(a.ProcessOp(rot[2]))
	}
}

// animateColor applies one color to the diffuse channel of every material
// on the node's geometry.
func (g *Group) animateColor(node *Node) {
	a, ok := g.properties.Lookup(ChannelColor)
	if !ok {
		return
	}
	geo := node.Geometry()
	if geo == nil {
		return
	}
	c := a.Color()
	for _, m := range geo.Materials() {
		if m != nil {
			m.SetDiffuseColor(c)
		}
	}
}

func (g *Group) animateOpacity(node *Node) {
	if a, ok := g.properties.Lookup(ChannelOpacity); ok {
		node.SetOpacity(a.ProcessOp(node.Opacity()))
	}
}

// Resume implements ExecutableAnimation.
func (g *Group) Resume() {
	if g.tx != nil {
		g.sched.Resume(g.tx)
	}
}

// Pause implements ExecutableAnimation.
func (g *Group) Pause() {
	if g.tx != nil {
		g.sched.Pause(g.tx)
	}
}

// Terminate implements ExecutableAnimation.
func (g *Group) Terminate(jumpToEnd bool) {
	if g.tx == nil {
		return
	}
	tx := g.tx
	g.tx = nil
	g.sched.Terminate(tx, jumpToEnd)
}

// Preload resolves every lazy material concurrently.
func (g *Group) Preload() error {
	var eg errgroup.Group
	for _, ma := range g.materials {
		if ma.Material == nil {
			continue
		}
		lm := ma.Material
		eg.Go(func() error {
			_, err := lm.Get()
			return err
		})
	}
	return eg.Wait()
}

// SetDuration implements ExecutableAnimation.
func (g *Group) SetDuration(seconds float64) { g.duration = seconds }

// Duration implements ExecutableAnimation.
func (g *Group) Duration() float64 { return g.duration }

// SetTimeOffset implements ExecutableAnimation.
func (g *Group) SetTimeOffset(seconds float64) { g.timeOffset = seconds }

// TimeOffset implements ExecutableAnimation.
func (g *Group) TimeOffset() float64 { return g.timeOffset }

// SetSpeed stores the speed for future executions and applies it to the
// running transaction, if any.
func (g *Group) SetSpeed(speed float64) {
	g.speed = speed
	if g.tx != nil {
		g.sched.SetSpeed(g.tx, speed)
	}
}

// Speed returns the stored speed multiplier.
func (g *Group) Speed() float64 { return g.speed }

// Copy implements ExecutableAnimation. The copy is idle.
func (g *Group) Copy() ExecutableAnimation {
	return &Group{
		duration:   g.duration,
		delay:      g.delay,
		timingType: g.timingType,
		speed:      g.speed,
		timeOffset: g.timeOffset,
		properties: g.properties,
		materials:  append([]MaterialAnimation(nil), g.materials...),
	}
}

func (g *Group) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[duration: %s, delay: %s",
		strconv.FormatFloat(g.duration, 'g', -1, 64),
		strconv.FormatFloat(g.delay, 'g', -1, 64))
	for c := Channel(0); c < numChannels; c++ {
		if a, ok := g.properties.Lookup(c); ok {
			fmt.Fprintf(&b, ", %s:%s", c, a)
		}
	}
	b.WriteByte(']')
	return b.String()
}
