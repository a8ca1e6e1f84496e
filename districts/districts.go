// Package districts holds the fixed set of city districts and the geometry used to
// place circular district zones and resolve points against them. Coordinates are kept
// in a normalized [-1, 1] space relative to the city model's ground footprint so that
// persisted data stays independent of model scale.
package districts

import (
	"fmt"
	"math"
)

// District is one of the fixed named zones of the map. The set is compiled in; only
// the zone placement (centers, radii) is persisted, as a Config.
type District struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// All lists every district in display order.
var All = []District{
	{ID: "old-town", Name: "Old Town", Color: "#c9a227", Description: "The original city core. Crooked streets, older money, older grudges."},
	{ID: "the-docks", Name: "The Docks", Color: "#2d6a8f", Description: "Freight cranes and fog. Everything enters the city here, legally or otherwise."},
	{ID: "neon-quarter", Name: "Neon Quarter", Color: "#d63b77", Description: "Clubs, signage and noise. The district that never switches off."},
	{ID: "ashgate", Name: "Ashgate", Color: "#8f8f8f", Description: "Row housing under the old incinerator stacks."},
	{ID: "the-sprawl", Name: "The Sprawl", Color: "#5e7d4a", Description: "Endless low-rise blocks stitched together by elevated rail."},
	{ID: "cathedral-ward", Name: "Cathedral Ward", Color: "#6b4fa0", Description: "Spires, cloisters and the city's quietest politics."},
	{ID: "ironworks", Name: "Ironworks", Color: "#a0522d", Description: "Foundries and freight yards. Half-abandoned, never empty."},
	{ID: "the-mire", Name: "The Mire", Color: "#3f5e50", Description: "Reclaimed marshland that never quite drained."},
	{ID: "highcourt", Name: "Highcourt", Color: "#d4af37", Description: "Towers of glass where the city's decisions get priced."},
	{ID: "undermarket", Name: "Undermarket", Color: "#7a3e3e", Description: "The covered bazaar beneath the viaduct arches."},
	{ID: "the-verge", Name: "The Verge", Color: "#4a6d7d", Description: "The thin edge between the city and whatever is outside it."},
}

// ByID looks up a district by its identifier.
func ByID(id string) (District, bool) {
	for _, d := range All {
		if d.ID == id {
			return d, true
		}
	}
	return District{}, false
}

// BaseRadius is the default zone radius in normalized units, before the global scale
// and any per-district override apply. Derived from the model footprint: a zone covers
// roughly a fifth of the half-extent of the city.
const BaseRadius = 0.2

// Point is a normalized ground coordinate in [-1, 1] x [-1, 1].
type Point struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
}

// Bounds is the world-space ground footprint of the city model (XZ plane), captured by
// the editor client when the zone layout is saved. It anchors the normalized space.
type Bounds struct {
	MinX float64 `bson:"minX" json:"minX"`
	MaxX float64 `bson:"maxX" json:"maxX"`
	MinZ float64 `bson:"minZ" json:"minZ"`
	MaxZ float64 `bson:"maxZ" json:"maxZ"`
}

// WorldToNorm converts a world-space ground coordinate into the normalized space
// anchored by b. Degenerate bounds collapse to the origin rather than dividing by zero.
func WorldToNorm(x, z float64, b Bounds) Point {
	var p Point
	if w := b.MaxX - b.MinX; w > 0 {
		p.X = (x-b.MinX)/w*2 - 1
	}
	if h := b.MaxZ - b.MinZ; h > 0 {
		p.Y = (z-b.MinZ)/h*2 - 1
	}
	return p
}

// NormToWorld is the inverse of WorldToNorm.
func NormToWorld(p Point, b Bounds) (x, z float64) {
	x = b.MinX + (p.X+1)/2*(b.MaxX-b.MinX)
	z = b.MinZ + (p.Y+1)/2*(b.MaxZ-b.MinZ)
	return
}

// Config is the persisted zone layout: normalized centers per district, a global
// radius scale and optional per-district radius overrides. Saved as a singleton
// document, mutated only through the editor.
type Config struct {
	Centers         map[string]Point   `bson:"centers" json:"centers"`
	RadiusScale     float64            `bson:"radiusScale" json:"radiusScale"`
	RadiusOverrides map[string]float64 `bson:"radiusOverrides,omitempty" json:"radiusOverrides,omitempty"`
	Bounds          *Bounds            `bson:"bounds,omitempty" json:"bounds,omitempty"`
}

// DefaultConfig places the eleven districts on a ring around the city center with the
// last one in the middle, all at the base radius. Used until an editor saves a layout.
func DefaultConfig() Config {
	centers := make(map[string]Point, len(All))
	n := len(All) - 1
	for i, d := range All[:n] {
		angle := 2 * math.Pi * float64(i) / float64(n)
		centers[d.ID] = Point{X: 0.6 * math.Cos(angle), Y: 0.6 * math.Sin(angle)}
	}
	centers[All[n].ID] = Point{}
	return Config{Centers: centers, RadiusScale: 1.0}
}

// EffectiveRadius returns the zone radius for a district: its override if present,
// else the global scale applied to the base radius.
func (c Config) EffectiveRadius(districtID string) float64 {
	if r, ok := c.RadiusOverrides[districtID]; ok {
		return r
	}
	return c.RadiusScale * BaseRadius
}

// Resolve maps a normalized point to a district. A point belongs to a district only
// when it falls inside exactly one zone; inside none or several it stays unassigned.
func (c Config) Resolve(p Point) (string, bool) {
	var hit string
	hits := 0
	for id, center := range c.Centers {
		r := c.EffectiveRadius(id)
		if math.Hypot(p.X-center.X, p.Y-center.Y) <= r {
			hit = id
			hits++
		}
	}
	if hits != 1 {
		return "", false
	}
	return hit, true
}

// Validate checks a config submitted through the editor. It names the offending field
// so the caller can hand the message back as a 400.
func (c Config) Validate() error {
	if c.RadiusScale <= 0 {
		return fmt.Errorf("radiusScale must be positive, got %v", c.RadiusScale)
	}
	for id, p := range c.Centers {
		if _, ok := ByID(id); !ok {
			return fmt.Errorf("centers: unknown district %q", id)
		}
		if p.X < -1 || p.X > 1 || p.Y < -1 || p.Y > 1 {
			return fmt.Errorf("centers[%s]: coordinates must be within [-1, 1]", id)
		}
	}
	for id, r := range c.RadiusOverrides {
		if _, ok := ByID(id); !ok {
			return fmt.Errorf("radiusOverrides: unknown district %q", id)
		}
		if r <= 0 {
			return fmt.Errorf("radiusOverrides[%s]: radius must be positive, got %v", id, r)
		}
	}
	if b := c.Bounds; b != nil {
		if b.MaxX <= b.MinX || b.MaxZ <= b.MinZ {
			return fmt.Errorf("bounds: max must exceed min on both axes")
		}
	}
	return nil
}
