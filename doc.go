// Package orrery is a retained-mode 3D scene renderer for [Ebitengine] with
// transactional property animation and portal-based scene traversal.
//
// # Quick start
//
// [Run] creates a window and game loop:
//
//	scene := orrery.NewScene(orrery.DefaultRendererConfig())
//	// ... add nodes ...
//	orrery.Run(scene, orrery.RunConfig{
//		Title: "My Scene", Width: 960, Height: 540,
//	})
//
// For full control, create a [Game] with [NewGame] and hand it to
// ebiten.RunGame, or drive [Scene.Update] and a [Choreographer] yourself.
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree rooted at [Scene.Root], which
// is itself a portal. Children inherit their parent's transform and opacity.
// Attach a [Geometry] for something to draw and a [Light] to illuminate it:
//
//	cube := orrery.NewNode("cube")
//	cube.SetGeometry(orrery.NewBox("cube", 1, 1, 1,
//		orrery.NewColorMaterial("red", orrery.Color{R: 1, A: 1})))
//	scene.Root().AddChild(cube)
//
// # Transactions
//
// Property setters such as [Node.SetPosition] and [Material.SetDiffuseColor]
// apply immediately, unless a transaction is open on the node's
// [Scheduler], in which case they animate over the transaction's duration:
//
//	s := scene.Scheduler()
//	s.Begin()
//	s.SetAnimationDuration(0.5)
//	s.SetTimingFunctionType(orrery.TimingEaseOut)
//	cube.SetPositionX(3)
//	tx := s.Commit()
//
// Committed transactions advance in [Scene.Update]; use [Scheduler.Pause],
// [Scheduler.Resume], [Scheduler.SetSpeed], [Scheduler.Cancel] and
// [Scheduler.Terminate] to control them.
//
// # Executable animations
//
// A [Group] animates several properties under one transaction; a [Chain]
// runs animations in series or in parallel. Both implement
// [ExecutableAnimation]. Declarative animations load from YAML with
// [LoadAnimationLibrary].
//
// # Portals
//
// Portals partition the scene. Each frame [Scene.UpdateSortKeys] computes a
// [SortKey] per geometry element and builds a [PortalTree] from the active
// portal down to [RendererConfig.MaxPortalRecursion] levels, with siblings
// ordered nearest first.
//
// # Rendering
//
// The [Choreographer] runs the [ShadowPreprocess], the [BasePass] into an
// HDR target, the [ToneMappingPass] and any [PostProcessEffect] against a
// [Driver], normally an [EbitenDriver].
//
// [Ebitengine]: https://ebitengine.org
package orrery
