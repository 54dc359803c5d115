package board

import "github.com/collabboard/collabboard/pkg/models"

// Zoom bounds for the canvas transform.
const (
	MinZoom = 0.1
	MaxZoom = 3.0
)

// ClampZoom clamps z into [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// ViewPortUpdate is a partial-field merge for SetViewPort. The caller
// is responsible for clamping Zoom before passing it in; ZoomAt does
// the clamping itself.
type ViewPortUpdate struct {
	X    *float64
	Y    *float64
	Zoom *float64
}

// ViewPort returns the current view transform.
func (b *Board) ViewPort() models.ViewPort {
	return b.viewPort
}

// SetViewPort merges upd into the view transform. The viewport is
// presentation state and is never persisted.
func (b *Board) SetViewPort(upd ViewPortUpdate) {
	if upd.X != nil {
		b.viewPort.X = *upd.X
	}
	if upd.Y != nil {
		b.viewPort.Y = *upd.Y
	}
	if upd.Zoom != nil {
		b.viewPort.Zoom = *upd.Zoom
	}
}

// ZoomAt applies a zoom delta anchored at the screen point (px, py):
// the world point under the pointer before the change maps to the same
// screen point after it. The resulting zoom is clamped to
// [MinZoom, MaxZoom].
func (b *Board) ZoomAt(px, py, delta float64) {
	vp := b.viewPort
	zoom := ClampZoom(vp.Zoom + delta)

	worldX := (px - vp.X) / vp.Zoom
	worldY := (py - vp.Y) / vp.Zoom

	b.viewPort = models.ViewPort{
		X:    px - worldX*zoom,
		Y:    py - worldY*zoom,
		Zoom: zoom,
	}
}

// ScreenToWorld maps a screen coordinate through the inverse view
// transform.
func (b *Board) ScreenToWorld(p models.Position) models.Position {
	vp := b.viewPort
	return models.Position{
		X: (p.X - vp.X) / vp.Zoom,
		Y: (p.Y - vp.Y) / vp.Zoom,
	}
}

// WorldToScreen maps a world coordinate through the view transform.
func (b *Board) WorldToScreen(p models.Position) models.Position {
	vp := b.viewPort
	return models.Position{
		X: p.X*vp.Zoom + vp.X,
		Y: p.Y*vp.Zoom + vp.Y,
	}
}
