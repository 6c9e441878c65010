// Package surface defines parametric surface equations and their parameter domains.
package surface

import (
	"fmt"
	"math"
	"sort"

	"github.com/taigrr/hornview/pkg/math3d"
)

// Equation maps the parameters (u, v) to a point on the surface.
// Implementations must be deterministic and free of side effects.
type Equation func(u, v float64) math3d.Vec3

// Domain is the parameter range sampled by the mesh generator:
// u in [0, UMax] and v in [0, VMax].
type Domain struct {
	UMax float64
	VMax float64
}

// HornVMax is the extent of the v parameter for the horn surface.
const HornVMax = 36

// DefaultDomain returns the domain u in [0, 2π], v in [0, HornVMax].
func DefaultDomain() Domain {
	return Domain{UMax: 2 * math.Pi, VMax: HornVMax}
}

// Validate reports whether both extents are positive and finite.
func (d Domain) Validate() error {
	if !(d.UMax > 0) || math.IsInf(d.UMax, 0) {
		return fmt.Errorf("invalid u extent %v", d.UMax)
	}
	if !(d.VMax > 0) || math.IsInf(d.VMax, 0) {
		return fmt.Errorf("invalid v extent %v", d.VMax)
	}
	return nil
}

// Surface pairs an equation with the domain it is defined over.
type Surface struct {
	Name   string
	Eq     Equation
	Domain Domain
}

// Horn shape constants.
const (
	hornM   = 6.0
	hornB   = 6 * hornM
	hornA   = 4 * hornM
	hornN   = 0.1
	hornPhi = 0.0
)

// HornEq is the spiral horn: a disk of radius v whose height oscillates
// along v with an exponentially decaying amplitude.
func HornEq(u, v float64) math3d.Vec3 {
	w := hornM * math.Pi / hornB
	return math3d.V3(
		v*math.Cos(u),
		v*math.Sin(u),
		hornA*math.Exp(-hornN*v)*math.Sin(w*v+hornPhi),
	)
}

// Horn returns the horn surface over the default domain.
func Horn() Surface {
	return Surface{Name: "horn", Eq: HornEq, Domain: DefaultDomain()}
}

// DiskEq returns a flat disk in the z=0 plane; v is the radius.
func DiskEq(u, v float64) math3d.Vec3 {
	return math3d.V3(v*math.Cos(u), v*math.Sin(u), 0)
}

// Disk returns the flat disk over the default domain.
func Disk() Surface {
	return Surface{Name: "disk", Eq: DiskEq, Domain: DefaultDomain()}
}

// PlaneEq maps (u, v) directly onto the z=0 plane.
func PlaneEq(u, v float64) math3d.Vec3 {
	return math3d.V3(u, v, 0)
}

// Plane returns a unit square in the z=0 plane.
func Plane() Surface {
	return Surface{Name: "plane", Eq: PlaneEq, Domain: Domain{UMax: 1, VMax: 1}}
}

var registry = map[string]func() Surface{
	"horn":  Horn,
	"disk":  Disk,
	"plane": Plane,
}

// Lookup returns the named built-in surface.
func Lookup(name string) (Surface, error) {
	ctor, ok := registry[name]
	if !ok {
		return Surface{}, fmt.Errorf("unknown surface %q (available: %v)", name, Names())
	}
	return ctor(), nil
}

// Names lists the built-in surfaces in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
