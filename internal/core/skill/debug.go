package skill

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/skilltree/internal/core/models"
)

const DefaultDebugTTL = 2000 * time.Millisecond

// DebugMessage is a transient collider visual for connected debug clients.
type DebugMessage interface {
	Kind() string
}

// DebugPolygon outlines a polygon fixture. Vertices are in world space.
type DebugPolygon struct {
	EntityID  models.EntityID `json:"entity_id"`
	TTLMillis int64           `json:"ttl_ms"`
	Vertices  []mgl64.Vec2    `json:"vertices"`
}

// DebugCircle outlines a circle fixture. Center is in world space.
type DebugCircle struct {
	EntityID  models.EntityID `json:"entity_id"`
	TTLMillis int64           `json:"ttl_ms"`
	Radius    float64         `json:"radius"`
	Center    mgl64.Vec2      `json:"center"`
}

func (DebugPolygon) Kind() string { return "polygon" }
func (DebugCircle) Kind() string  { return "circle" }

// Broadcaster sends debug messages to every connected client.
type Broadcaster interface {
	Broadcast(msg DebugMessage) error
}
