package orrery

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Scene is the top-level object that owns the node tree, the animation
// scheduler, the camera and the per-frame portal state.
type Scene struct {
	root         *Node
	activePortal *Node
	scheduler    *Scheduler
	camera       *Camera
	store        EntityStore
	debug        bool
	cfg          RendererConfig

	// ClearColor fills the display before the base pass.
	ClearColor Color

	updateFunc func() error

	// Per-frame render state
	lights             []*Light
	portals            PortalTree
	distanceOfFurthest float64

	// Post-processing
	toneMapping        ToneMappingConfig
	toneMappingUpdated bool
	effects            []PostProcessEffect

	affinity renderThread

	// Automated visual testing
	script          *ScriptRunner
	screenshotQueue []string
	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string
}

// NewScene creates a scene whose root is a passable portal bound to a fresh
// scheduler. The root is the initial active portal.
func NewScene(cfg RendererConfig) *Scene {
	cfg = cfg.withDefaults()
	root := NewPortal("root")
	root.Passable = true
	sched := NewScheduler()
	root.SetScheduler(sched)
	return &Scene{
		root:               root,
		activePortal:       root,
		scheduler:          sched,
		camera:             NewCamera(),
		cfg:                cfg,
		toneMapping:        cfg.ToneMapping,
		toneMappingUpdated: true,
		ScreenshotDir:      "screenshots",
	}
}

// Root returns the scene's root portal.
func (s *Scene) Root() *Node {
	return s.root
}

// Scheduler returns the scheduler that drives every animation in the scene.
func (s *Scene) Scheduler() *Scheduler {
	return s.scheduler
}

// Camera returns the scene camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// SetCamera replaces the scene camera.
func (s *Scene) SetCamera(c *Camera) {
	if c == nil {
		panic("orrery: nil camera")
	}
	s.camera = c
}

// Config returns the renderer configuration the scene was built with.
func (s *Scene) Config() RendererConfig {
	return s.cfg
}

// SetUpdateFunc sets a callback invoked at the start of every Update, before
// animations advance. Returning an error stops the game loop.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// Update advances one frame: the user update callback, the scripted test
// runner, every committed transaction, the camera and finally world
// transforms.
func (s *Scene) Update() error {
	dt := float32(1.0 / float64(ebiten.TPS()))

	if s.updateFunc != nil {
		if err := s.updateFunc(); err != nil {
			return err
		}
	}
	if s.script != nil {
		s.script.step(s)
	}

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.scheduler.Update()

	if s.debug {
		stats.animationTime = time.Since(t0)
		stats.committed = s.scheduler.Committed()
		t0 = time.Now()
	}

	s.camera.update(dt)
	s.root.ComputeTransforms()

	if s.debug {
		stats.transformTime = time.Since(t0)
		s.debugLogUpdate(stats)
	}
	return nil
}

// UpdateSortKeys recomputes the scene light list, every node's render keys,
// and the portal tree for this frame. It must run on the render thread once
// BindRenderThread has been called.
func (s *Scene) UpdateSortKeys(metadata *RenderMetadata, ctx *RenderContext) {
	s.affinity.check("UpdateSortKeys")

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.lights = collectLights(s.root, s.lights[:0])

	params := RenderParameters{Lights: s.lights}
	s.root.updateSortKeys(0, &params, ctx, nil)

	if s.debug {
		stats.sortKeyTime = time.Since(t0)
		t0 = time.Now()
	}

	s.createPortalTree(ctx)
	numKeys := 0
	s.portals.Walk(func(p *Node) {
		p.sortNodesBySortKeys()
		numKeys += len(p.portalKeys)
	})
	s.distanceOfFurthest = params.FurthestDistanceFromCamera

	if metadata != nil {
		metadata.NumLights = len(s.lights)
		metadata.NumPortals = s.portals.Len()
		metadata.NumKeys = numKeys
		metadata.FurthestDistance = s.distanceOfFurthest
		metadata.RequiresShadows = false
		for _, l := range s.lights {
			if l.castsShadows() {
				metadata.RequiresShadows = true
				break
			}
		}
	}

	if s.debug {
		stats.portalTime = time.Since(t0)
		stats.numKeys = numKeys
		stats.numPortals = s.portals.Len()
		s.debugLogSort(stats)
	}
	if s.cfg.DebugSortOrder && ctx.Frame%s.cfg.DebugSortOrderFrameFrequency == 0 {
		s.debugLogSortOrder()
	}
}

// createPortalTree rebuilds the portal tree from the active portal and
// orders each level by camera distance.
func (s *Scene) createPortalTree(ctx *RenderContext) {
	s.portals.reset()
	if !s.HasNode(s.activePortal) {
		logger.Warn("active portal left the scene, falling back to root", "portal", s.activePortal.Name)
		s.activePortal = s.root
	}
	traversePortals(s.activePortal, 0, s.cfg.MaxPortalRecursion, &s.portals)
	sortSiblingPortals(&s.portals, ctx.Camera.Position)
}

// --- Portals ---

// ActivePortal returns the portal the viewer is currently in.
func (s *Scene) ActivePortal() *Node {
	return s.activePortal
}

// SetActivePortal makes p the root of subsequent portal trees. Panics if p
// is not a portal in this scene's tree. If p is later removed from the tree,
// the next UpdateSortKeys logs a warning and falls back to the root portal.
func (s *Scene) SetActivePortal(p *Node) {
	if p == nil || !p.IsPortal() {
		panic("orrery: active portal must be a portal node")
	}
	if !s.HasNode(p) {
		panic("orrery: active portal " + p.Name + " is not in the scene")
	}
	if p == s.activePortal {
		return
	}
	prev := s.activePortal
	s.activePortal = p
	if s.store != nil {
		if prev != nil && !prev.disposed {
			s.store.EmitEvent(SceneEvent{Type: EventPortalExit, EntityID: prev.EntityID, NodeID: prev.ID, Name: prev.Name})
		}
		s.store.EmitEvent(SceneEvent{Type: EventPortalEnter, EntityID: p.EntityID, NodeID: p.ID, Name: p.Name})
	}
}

// HasNode reports whether n is attached to this scene's tree.
func (s *Scene) HasNode(n *Node) bool {
	return n != nil && !n.disposed && isAncestor(s.root, n)
}

// PortalTree returns the portal tree built by the last UpdateSortKeys.
func (s *Scene) PortalTree() *PortalTree {
	return &s.portals
}

// Lights returns every light collected by the last UpdateSortKeys. The
// returned slice MUST NOT be mutated.
func (s *Scene) Lights() []*Light {
	return s.lights
}

// Backgrounds returns the background geometry of every portal in the tree.
func (s *Scene) Backgrounds() []*Geometry {
	var out []*Geometry
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsPortal() && n.background != nil {
			out = append(out, n.background)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(s.root)
	return out
}

// DistanceOfFurthestObjectFromCamera returns the largest node distance seen
// during the last UpdateSortKeys. Render passes use it to fit clip planes.
func (s *Scene) DistanceOfFurthestObjectFromCamera() float64 {
	return s.distanceOfFurthest
}

// --- Animations ---

// RunAnimation executes a on node and reports EventAnimationFinished to the
// entity store when it completes, before calling onFinished.
func (s *Scene) RunAnimation(node *Node, a ExecutableAnimation, onFinished func()) {
	ref := node.Ref()
	name := node.Name
	a.Execute(node, func() {
		if s.store != nil {
			ev := SceneEvent{Type: EventAnimationFinished, Name: name}
			if n, ok := ref.Get(); ok {
				ev.EntityID = n.EntityID
				ev.NodeID = n.ID
			}
			s.store.EmitEvent(ev)
		}
		if onFinished != nil {
			onFinished()
		}
	})
}

// --- Post-processing settings ---

// ToneMapping returns the current tone mapping settings.
func (s *Scene) ToneMapping() ToneMappingConfig {
	return s.toneMapping
}

// SetToneMappingEnabled enables or disables tone mapping.
func (s *Scene) SetToneMappingEnabled(enabled bool) {
	s.toneMapping.Enabled = enabled
	s.toneMappingUpdated = true
}

// SetToneMappingMethod selects the tone mapping operator.
func (s *Scene) SetToneMappingMethod(m ToneMappingMethod) {
	s.toneMapping.Method = m
	s.toneMappingUpdated = true
}

// SetToneMappingExposure sets the exposure multiplier.
func (s *Scene) SetToneMappingExposure(exposure float64) {
	s.toneMapping.Exposure = exposure
	s.toneMappingUpdated = true
}

// SetToneMappingWhitePoint sets the white point of the filmic curve.
func (s *Scene) SetToneMappingWhitePoint(white float64) {
	s.toneMapping.WhitePoint = white
	s.toneMappingUpdated = true
}

// IsToneMappingUpdated reports whether tone mapping settings changed since
// the last ClearToneMappingUpdated.
func (s *Scene) IsToneMappingUpdated() bool {
	return s.toneMappingUpdated
}

// ClearToneMappingUpdated acknowledges tone mapping changes. Called by the
// choreographer after it applies them.
func (s *Scene) ClearToneMappingUpdated() {
	s.toneMappingUpdated = false
}

// SetPostProcessEffects replaces the effects applied after tone mapping, in
// order.
func (s *Scene) SetPostProcessEffects(effects ...PostProcessEffect) {
	s.effects = append(s.effects[:0], effects...)
}

// PostProcessEffects returns the post-process effect chain. The returned
// slice MUST NOT be mutated.
func (s *Scene) PostProcessEffects() []PostProcessEffect {
	return s.effects
}

// --- Integration ---

// SetEntityStore sets the optional ECS bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.store = store
}

// BindRenderThread locks the calling goroutine to its OS thread and records
// it as the render thread. From then on UpdateSortKeys panics when called
// from any other thread.
func (s *Scene) BindRenderThread() {
	s.affinity.bind()
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth and child count warnings are logged, and
// per-frame timings are logged at Debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene; multiple Scenes with differing debug modes will
// reflect whichever called SetDebugMode last.
var globalDebug bool
