package orrery

import (
	"fmt"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// RenderTargetKind describes what a render target is used for.
type RenderTargetKind uint8

const (
	RenderTargetDisplay RenderTargetKind = iota
	RenderTargetColor
	RenderTargetHDR
	RenderTargetShadow
)

func (k RenderTargetKind) String() string {
	switch k {
	case RenderTargetDisplay:
		return "display"
	case RenderTargetColor:
		return "color"
	case RenderTargetHDR:
		return "hdr"
	case RenderTargetShadow:
		return "shadow"
	default:
		return "unknown"
	}
}

// RenderTarget is a drawable surface owned by a Driver.
type RenderTarget interface {
	Kind() RenderTargetKind
	Width() int
	Height() int
	// Image returns the drawable region, exactly Width x Height pixels.
	Image() *ebiten.Image
	Clear()
}

// Driver creates render targets and exposes the display surface to render
// passes.
type Driver interface {
	// NewRenderTarget allocates an offscreen target. It fails when the
	// device cannot hold a target of the requested size.
	NewRenderTarget(kind RenderTargetKind, w, h int) (RenderTarget, error)
	ReleaseRenderTarget(rt RenderTarget)
	// Display returns the target presented at the end of the frame.
	Display() RenderTarget
	// MaxTextureSize is the largest edge a render target may have.
	MaxTextureSize() int
}

// DefaultMaxTextureSize is the render target edge limit of an EbitenDriver
// unless overridden.
const DefaultMaxTextureSize = 4096

// imageTarget is a RenderTarget backed by an ebiten image that may be larger
// than the requested size.
type imageTarget struct {
	kind RenderTargetKind
	img  *ebiten.Image
	w, h int
}

func (t *imageTarget) Kind() RenderTargetKind { return t.kind }
func (t *imageTarget) Width() int             { return t.w }
func (t *imageTarget) Height() int            { return t.h }

func (t *imageTarget) Image() *ebiten.Image {
	b := t.img.Bounds()
	if b.Dx() == t.w && b.Dy() == t.h {
		return t.img
	}
	return t.img.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Min.X+t.w, b.Min.Y+t.h)).(*ebiten.Image)
}

func (t *imageTarget) Clear() { t.img.Clear() }

// EbitenDriver implements Driver on ebiten images. Offscreen targets come
// from a pool keyed by power-of-two dimensions.
type EbitenDriver struct {
	pool           renderTexturePool
	display        imageTarget
	maxTextureSize int
}

// NewEbitenDriver creates a driver with DefaultMaxTextureSize.
func NewEbitenDriver() *EbitenDriver {
	return &EbitenDriver{
		display:        imageTarget{kind: RenderTargetDisplay},
		maxTextureSize: DefaultMaxTextureSize,
	}
}

// SetDisplay sets the image presented this frame, normally the screen passed
// to ebiten.Game.Draw.
func (d *EbitenDriver) SetDisplay(screen *ebiten.Image) {
	b := screen.Bounds()
	d.display.img = screen
	d.display.w = b.Dx()
	d.display.h = b.Dy()
}

// Display returns the display target. Panics if SetDisplay was never called.
func (d *EbitenDriver) Display() RenderTarget {
	if d.display.img == nil {
		panic("orrery: EbitenDriver has no display image")
	}
	return &d.display
}

// SetMaxTextureSize overrides the render target edge limit.
func (d *EbitenDriver) SetMaxTextureSize(size int) {
	if size <= 0 {
		size = DefaultMaxTextureSize
	}
	d.maxTextureSize = size
}

// MaxTextureSize returns the render target edge limit.
func (d *EbitenDriver) MaxTextureSize() int {
	return d.maxTextureSize
}

// NewRenderTarget acquires a pooled image of at least w x h pixels.
func (d *EbitenDriver) NewRenderTarget(kind RenderTargetKind, w, h int) (RenderTarget, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render target %s: invalid size %dx%d", kind, w, h)
	}
	if nextPowerOfTwo(w) > d.maxTextureSize || nextPowerOfTwo(h) > d.maxTextureSize {
		return nil, fmt.Errorf("render target %s: %dx%d exceeds max texture size %d", kind, w, h, d.maxTextureSize)
	}
	return &imageTarget{kind: kind, img: d.pool.Acquire(w, h), w: w, h: h}, nil
}

// ReleaseRenderTarget returns an offscreen target's image to the pool.
func (d *EbitenDriver) ReleaseRenderTarget(rt RenderTarget) {
	t, ok := rt.(*imageTarget)
	if !ok || t == &d.display || t.img == nil {
		return
	}
	d.pool.Release(t.img)
	t.img = nil
}

// --- Render texture pool ---

// renderTexturePool manages reusable offscreen ebiten.Images keyed by
// power-of-two dimensions. After warmup, Acquire/Release are zero-alloc.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels.
// Dimensions are rounded up to the next power of two.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	key := poolKey(nextPowerOfTwo(w), nextPowerOfTwo(h))
	if stack := p.buckets[key]; len(stack) > 0 {
		img := stack[len(stack)-1]
		p.buckets[key] = stack[:len(stack)-1]
		img.Clear()
		return img
	}
	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, nextPowerOfTwo(w), nextPowerOfTwo(h)),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool. It is cleared on the next Acquire.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}
