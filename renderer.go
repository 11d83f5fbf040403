package orrery

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// ShowFPS draws an FPS/TPS overlay in the top-left corner.
	ShowFPS bool
}

// Run opens a window and drives scene until the window closes or the
// scene's update callback returns an error.
func Run(scene *Scene, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(NewGame(scene, cfg))
}

// Game adapts a Scene to ebiten.Game. Use it directly to embed a scene in
// an existing ebiten loop.
type Game struct {
	scene  *Scene
	cfg    RunConfig
	driver *EbitenDriver
	choreo *Choreographer
	frame  int
	bound  bool

	fpsImg   *ebiten.Image
	fpsFrame int
	fpsOp    ebiten.DrawImageOptions
}

// NewGame creates a game that renders scene with an EbitenDriver.
func NewGame(scene *Scene, cfg RunConfig) *Game {
	driver := NewEbitenDriver()
	return &Game{
		scene:  scene,
		cfg:    cfg,
		driver: driver,
		choreo: NewChoreographer(driver, scene.Config()),
	}
}

// Driver returns the game's render driver.
func (g *Game) Driver() *EbitenDriver { return g.driver }

// Choreographer returns the game's render pass sequencer.
func (g *Game) Choreographer() *Choreographer { return g.choreo }

// Update implements ebiten.Game.
func (g *Game) Update() error {
	return g.scene.Update()
}

// Draw implements ebiten.Game. The first call binds the scene to the
// calling thread.
func (g *Game) Draw(screen *ebiten.Image) {
	if !g.bound {
		g.scene.BindRenderThread()
		g.bound = true
	}
	b := screen.Bounds()
	g.driver.SetDisplay(screen)
	ctx := NewRenderContext(g.frame, b.Dx(), b.Dy(), g.scene.Camera())
	if err := g.choreo.Render(g.scene, ctx); err != nil {
		logger.Error("render", "frame", g.frame, "err", err)
	}
	if g.cfg.ShowFPS {
		g.drawFPS(screen)
	}
	g.scene.flushScreenshots(screen)
	g.frame++
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.cfg.Width > 0 && g.cfg.Height > 0 {
		return g.cfg.Width, g.cfg.Height
	}
	return outsideWidth, outsideHeight
}

// drawFPS refreshes the overlay about twice a second and draws it.
func (g *Game) drawFPS(screen *ebiten.Image) {
	if g.fpsImg == nil {
		// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
		g.fpsImg = ebiten.NewImage(100, 32)
		g.fpsFrame = 0
	}
	if g.fpsFrame%30 == 0 {
		g.fpsImg.Clear()
		g.fpsImg.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(g.fpsImg, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	g.fpsFrame++
	g.fpsOp.GeoM.Reset()
	screen.DrawImage(g.fpsImg, &g.fpsOp)
}
