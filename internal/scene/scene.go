// Package scene loads YAML scene definitions and builds them into a physics world.
package scene

import (
	_ "embed"
	"os"
	"strings"

	"polydrop/internal/geom"
	"polydrop/internal/physics"
	"polydrop/internal/shape"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	ErrNoBodies  = errors.New("scene has no bodies")
	ErrBodyType  = errors.New("unknown body type")
	ErrNoFixture = errors.New("body has no fixtures")
)

// Definition is a scene file: gravity and the bodies to create, in creation order.
type Definition struct {
	Name    string     `yaml:"name"`
	Gravity [2]float32 `yaml:"gravity"`
	Bodies  []Body     `yaml:"bodies"`
}

// Body describes one body. Type is static, kinematic or dynamic.
type Body struct {
	Type     string     `yaml:"type"`
	Position [2]float32 `yaml:"position"`
	Angle    float32    `yaml:"angle,omitempty"`
	Velocity [2]float32 `yaml:"velocity,omitempty"`
	Fixtures []Fixture  `yaml:"fixtures"`
}

// Fixture describes one fixture. Which geometry fields apply depends on Kind:
// polygon uses Vertices, circle uses Center and Radius, edge uses V1 and V2.
// Density defaults to 1 and Friction to 0.2 when omitted.
type Fixture struct {
	Kind        string       `yaml:"kind"`
	Density     *float32     `yaml:"density,omitempty"`
	Friction    *float32     `yaml:"friction,omitempty"`
	Restitution float32      `yaml:"restitution,omitempty"`
	Vertices    [][2]float32 `yaml:"vertices,omitempty"`
	Center      [2]float32   `yaml:"center,omitempty"`
	Radius      float32      `yaml:"radius,omitempty"`
	V1          [2]float32   `yaml:"v1,omitempty"`
	V2          [2]float32   `yaml:"v2,omitempty"`
}

// Builder is the part of a physics world a scene needs. physics.World and b2world.World both
// implement it.
type Builder interface {
	CreateBody(def physics.BodyDef) (int, error)
	CreateFixture(body int, def *physics.FixtureDef) (int, error)
}

// Default returns the bundled two-pentagon scene.
func Default() Definition {
	def, err := Parse(defaultYAML)
	if err != nil {
		panic("scene: bundled default.yaml is invalid: " + err.Error())
	}
	return def
}

// Load reads and parses a scene file.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, errors.Wrap(err, "read scene")
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, errors.Wrapf(err, "scene %s", path)
	}
	return def, nil
}

// Parse decodes YAML and validates every body and shape.
func Parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, errors.Wrap(err, "parse scene")
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Validate checks the definition without building it, so a bad file is reported before a
// window is opened.
func (d *Definition) Validate() error {
	if len(d.Bodies) == 0 {
		return ErrNoBodies
	}
	var s shape.Shape
	for i := range d.Bodies {
		b := &d.Bodies[i]
		if _, err := ParseBodyType(b.Type); err != nil {
			return errors.Wrapf(err, "body %d", i)
		}
		if len(b.Fixtures) == 0 {
			return errors.Wrapf(ErrNoFixture, "body %d", i)
		}
		for j := range b.Fixtures {
			if err := b.Fixtures[j].shapeInto(&s); err != nil {
				return errors.Wrapf(err, "body %d fixture %d", i, j)
			}
		}
	}
	return nil
}

// GravityVec returns the scene gravity.
func (d Definition) GravityVec() geom.Vec2 {
	return vec(d.Gravity)
}

// PolygonCount returns the number of polygon fixtures in the scene.
func (d Definition) PolygonCount() int {
	n := 0
	for _, b := range d.Bodies {
		for _, f := range b.Fixtures {
			if k, err := shape.ParseKind(f.Kind); err == nil && k == shape.KindPolygon {
				n++
			}
		}
	}
	return n
}

// Build creates every body and fixture of def in w and returns the body indices in order.
// One fixture definition and one shape value are reused for all fixtures; the world keeps
// its own copy of each shape.
func Build(w Builder, def Definition) ([]int, error) {
	var s shape.Shape
	fd := physics.NewFixtureDef(&s, 1)
	ids := make([]int, 0, len(def.Bodies))

	for i, b := range def.Bodies {
		typ, err := ParseBodyType(b.Type)
		if err != nil {
			return ids, errors.Wrapf(err, "body %d", i)
		}
		id, err := w.CreateBody(physics.BodyDef{
			Type:           typ,
			Position:       vec(b.Position),
			Angle:          b.Angle,
			LinearVelocity: vec(b.Velocity),
		})
		if err != nil {
			return ids, errors.Wrapf(err, "body %d", i)
		}
		ids = append(ids, id)

		for j := range b.Fixtures {
			f := &b.Fixtures[j]
			if err := f.shapeInto(&s); err != nil {
				return ids, errors.Wrapf(err, "body %d fixture %d", i, j)
			}
			fd.Density = 1
			if f.Density != nil {
				fd.Density = *f.Density
			}
			fd.Friction = 0.2
			if f.Friction != nil {
				fd.Friction = *f.Friction
			}
			fd.Restitution = f.Restitution
			if _, err := w.CreateFixture(id, &fd); err != nil {
				return ids, errors.Wrapf(err, "body %d fixture %d", i, j)
			}
		}
	}
	return ids, nil
}

// ParseBodyType maps a scene type name to a body type. Empty means static.
func ParseBodyType(s string) (physics.BodyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "static":
		return physics.Static, nil
	case "kinematic":
		return physics.Kinematic, nil
	case "dynamic":
		return physics.Dynamic, nil
	}
	return physics.Static, errors.Wrapf(ErrBodyType, "%q", s)
}

func (f *Fixture) shapeInto(s *shape.Shape) error {
	kind, err := shape.ParseKind(f.Kind)
	if err != nil {
		return err
	}
	switch kind {
	case shape.KindCircle:
		return s.SetCircle(vec(f.Center), f.Radius)
	case shape.KindEdge:
		return s.SetEdge(vec(f.V1), vec(f.V2))
	}
	pts := make([]geom.Vec2, len(f.Vertices))
	for i, v := range f.Vertices {
		pts[i] = vec(v)
	}
	return s.SetPolygon(pts)
}

func vec(v [2]float32) geom.Vec2 {
	return geom.V(v[0], v[1])
}
