package physics

import "github.com/go-gl/mathgl/mgl64"

// World is the slice of a physics engine the simulation core depends on:
// creating bodies and pushing their state into the simulation.
type World interface {
	// CreateBody adds a body described by def. The body is not simulated
	// against until it has been synced.
	CreateBody(def BodyDef) *Body
	// SyncBody pushes the body's transform and fixtures into the broad phase.
	SyncBody(b *Body) error
	DestroyBody(b *Body)
}

type ShapeType uint8

const (
	ShapeCircle ShapeType = iota + 1
	ShapePolygon
	ShapeEdge
)

func (t ShapeType) String() string {
	switch t {
	case ShapeCircle:
		return "circle"
	case ShapePolygon:
		return "polygon"
	case ShapeEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// Shape is fixture geometry in body-local coordinates.
type Shape interface {
	Type() ShapeType
}

type CircleShape struct {
	Center mgl64.Vec2
	Radius float64
}

type PolygonShape struct {
	Vertices []mgl64.Vec2
}

type EdgeShape struct {
	A, B mgl64.Vec2
}

func (CircleShape) Type() ShapeType  { return ShapeCircle }
func (PolygonShape) Type() ShapeType { return ShapePolygon }
func (EdgeShape) Type() ShapeType    { return ShapeEdge }

type Fixture struct {
	Shape  Shape
	Sensor bool
}
