package skill

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/systems/physics"
)

var (
	ErrColliderNotFound = errors.New("collider not found")
	ErrInvalidCatalog   = errors.New("invalid collider catalog")
)

// OwnerKey is the blackboard key under which a collider records its owner.
const OwnerKey = "owner_id"

// ColliderProvider creates the collider entity for a skill node, placed at
// the owner's transform.
type ColliderProvider interface {
	CreateCollider(owner *models.Unit, carrierID, nodeID int64) (*models.Unit, error)
}

type colliderKey struct {
	carrier int64
	node    int64
}

// Catalog is a ColliderProvider backed by collider definitions keyed by
// (carrier, node). Colliders are registered in the unit registry and get a
// body in the physics world.
type Catalog struct {
	units *models.Registry
	world physics.World

	mu      sync.RWMutex
	entries map[colliderKey][]physics.Fixture
}

func NewCatalog(units *models.Registry, world physics.World) *Catalog {
	return &Catalog{units: units, world: world, entries: make(map[colliderKey][]physics.Fixture)}
}

// Add registers the fixtures for (carrierID, nodeID), replacing earlier ones.
func (c *Catalog) Add(carrierID, nodeID int64, fixtures ...physics.Fixture) {
	c.mu.Lock()
	c.entries[colliderKey{carrierID, nodeID}] = fixtures
	c.mu.Unlock()
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Catalog) CreateCollider(owner *models.Unit, carrierID, nodeID int64) (*models.Unit, error) {
	c.mu.RLock()
	fixtures, ok := c.entries[colliderKey{carrierID, nodeID}]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: carrier %d node %d", ErrColliderNotFound, carrierID, nodeID)
	}

	t := owner.Transform()
	u := c.units.Create(fmt.Sprintf("collider:%d:%d", carrierID, nodeID), t)
	u.Blackboard().Set(OwnerKey, uint64(owner.ID()))
	body := c.world.CreateBody(physics.BodyDef{
		Transform: t,
		Fixtures:  fixtures,
		UserData:  uint64(u.ID()),
	})
	u.SetBody(body)
	return u, nil
}

type catalogFile struct {
	Colliders []struct {
		Carrier int64       `yaml:"carrier"`
		Node    int64       `yaml:"node"`
		Sensor  bool        `yaml:"sensor"`
		Shapes  []shapeFile `yaml:"shapes"`
	} `yaml:"colliders"`
}

type shapeFile struct {
	Type     string      `yaml:"type"`
	Radius   float64     `yaml:"radius"`
	Center   []float64   `yaml:"center"`
	Vertices [][]float64 `yaml:"vertices"`
	A        []float64   `yaml:"a"`
	B        []float64   `yaml:"b"`
}

// Load reads collider definitions from YAML and adds them to the catalog.
// Nothing is added when the document is invalid.
func (c *Catalog) Load(r io.Reader) error {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	parsed := make(map[colliderKey][]physics.Fixture, len(f.Colliders))
	for _, col := range f.Colliders {
		fixtures := make([]physics.Fixture, 0, len(col.Shapes))
		for i, sf := range col.Shapes {
			shape, err := sf.shape()
			if err != nil {
				return fmt.Errorf("%w: carrier %d node %d shape %d: %w", ErrInvalidCatalog, col.Carrier, col.Node, i, err)
			}
			fixtures = append(fixtures, physics.Fixture{Shape: shape, Sensor: col.Sensor})
		}
		parsed[colliderKey{col.Carrier, col.Node}] = fixtures
	}
	c.mu.Lock()
	for k, v := range parsed {
		c.entries[k] = v
	}
	c.mu.Unlock()
	return nil
}

func (c *Catalog) LoadFile(path string) error {
	fd, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fd.Close()
	if err := c.Load(fd); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (sf shapeFile) shape() (physics.Shape, error) {
	switch strings.ToLower(sf.Type) {
	case "circle":
		if sf.Radius <= 0 {
			return nil, errors.New("circle radius must be positive")
		}
		center := mgl64.Vec2{}
		if sf.Center != nil {
			var err error
			if center, err = vec(sf.Center); err != nil {
				return nil, err
			}
		}
		return physics.CircleShape{Center: center, Radius: sf.Radius}, nil
	case "polygon":
		if len(sf.Vertices) < 3 {
			return nil, errors.New("polygon needs at least 3 vertices")
		}
		verts := make([]mgl64.Vec2, 0, len(sf.Vertices))
		for _, v := range sf.Vertices {
			p, err := vec(v)
			if err != nil {
				return nil, err
			}
			verts = append(verts, p)
		}
		return physics.PolygonShape{Vertices: verts}, nil
	case "edge":
		a, err := vec(sf.A)
		if err != nil {
			return nil, err
		}
		b, err := vec(sf.B)
		if err != nil {
			return nil, err
		}
		return physics.EdgeShape{A: a, B: b}, nil
	default:
		return nil, fmt.Errorf("unknown shape %q", sf.Type)
	}
}

func vec(xs []float64) (mgl64.Vec2, error) {
	if len(xs) != 2 {
		return mgl64.Vec2{}, fmt.Errorf("point %v: want [x, y]", xs)
	}
	return mgl64.Vec2{xs[0], xs[1]}, nil
}
