// Package camera turns pointer drags into the model, view and projection
// matrices used to display a refined mesh. It holds no global state: the
// caller keeps a State and feeds it one Input per event.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DragScale converts pointer motion in pixels to radians.
const DragScale = 1.0 / 100

// Fixed viewing setup.
var (
	Eye    = mgl64.Vec3{0, -5, 5}
	Center = mgl64.Vec3{0, 0, 0}
	Up     = mgl64.Vec3{0, 0, 1}
)

// Perspective parameters.
const (
	FovY = 0.8
	Near = 1.0
	Far  = 100.0
)

// State is the accumulated model rotation in radians. AngleX tilts about
// the x axis and is kept within [-π/2, π/2]; AngleZ spins about z.
type State struct {
	AngleX float64 `json:"angleX"`
	AngleZ float64 `json:"angleZ"`
}

// Input is one pointer event: the motion since the previous event and
// whether the primary button is held.
type Input struct {
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Dragging bool    `json:"dragging"`
}

// Viewport is the drawable size in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Aspect returns width over height, or 1 for an empty viewport.
func (v Viewport) Aspect() float64 {
	if v.Width <= 0 || v.Height <= 0 {
		return 1
	}
	return float64(v.Width) / float64(v.Height)
}

// Update applies in to s. Vertical motion tilts and horizontal motion
// spins; motion without a drag leaves the angles alone, though the tilt
// clamp still applies.
func Update(s State, in Input) State {
	if in.Dragging {
		s.AngleX += in.DY * DragScale
		s.AngleZ += in.DX * DragScale
	}
	s.AngleX = mgl64.Clamp(s.AngleX, -math.Pi/2, math.Pi/2)
	return s
}

// Matrices holds the transforms for one frame.
type Matrices struct {
	Model, View, Projection, MVP mgl64.Mat4
}

// Compute builds the frame transforms for s and vp.
func Compute(s State, vp Viewport) Matrices {
	model := mgl64.HomogRotate3DX(s.AngleX).Mul4(mgl64.HomogRotate3DZ(s.AngleZ))
	view := mgl64.LookAtV(Eye, Center, Up)
	proj := mgl64.Perspective(FovY, vp.Aspect(), Near, Far)
	return Matrices{
		Model:      model,
		View:       view,
		Projection: proj,
		MVP:        proj.Mul4(view).Mul4(model),
	}
}

// Buffer flattens m column-major into float32, the layout a shader
// uniform upload expects.
func (m Matrices) Buffer() [16]float32 {
	var out [16]float32
	for i, v := range m.MVP {
		out[i] = float32(v)
	}
	return out
}

// Project maps a world point to normalised device coordinates.
func (m Matrices) Project(p mgl64.Vec3) mgl64.Vec3 {
	clip := m.MVP.Mul4x1(p.Vec4(1))
	if clip.W() == 0 {
		return mgl64.Vec3{}
	}
	return clip.Vec3().Mul(1 / clip.W())
}
