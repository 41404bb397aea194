package helicopter

import (
	"fmt"

	"github.com/dynag/heligym/environment"
	"github.com/dynag/heligym/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// Scenario calibration. Distances are in feet, weights in pounds and
// CG stations in inches, matching the engine's parameter file.
const (
	// TerrainOffset is the height of the terrain above the lowest
	// altitude of the world.
	TerrainOffset = 1328.29

	// MinTargetAltitude is the lowest target altitude
	MinTargetAltitude = 1700.0

	// MaxClimbRate bounds how far from the start altitude a target can
	// be reached in half an episode.
	MaxClimbRate = 33.0

	// TargetNormalizer converts target positions to normalized engine
	// coordinates.
	TargetNormalizer = 3550.0

	// TargetDeviation scales the horizontal target offset
	TargetDeviation = 100.0

	// DefaultStartDeviation scales the horizontal start position
	DefaultStartDeviation = 200.0

	// With probability LowStartProbability the start altitude draw is
	// compressed by LowStartCompression to oversample low, turbulent
	// starts.
	LowStartProbability = 0.33
	LowStartCompression = 0.1
)

// Bounds of the weight and balance draws
var (
	WeightBounds         = r1.Interval{Min: 3500, Max: 5401}
	LongitudinalCGBounds = r1.Interval{Min: 128.7, Max: 136.7}
	LateralCGBounds      = r1.Interval{Min: 34.5, Max: 42.5}
)

// Scenario is the initial condition of an episode. It is drawn once
// per episode and written into the engine configuration before the
// engine is reset.
type Scenario struct {
	GroundAltitude float64 `json:"ground_altitude" yaml:"ground_altitude"`
	North          float64 `json:"north" yaml:"north"`
	East           float64 `json:"east" yaml:"east"`
	Weight         float64 `json:"weight" yaml:"weight"`
	LongitudinalCG float64 `json:"longitudinal_cg" yaml:"longitudinal_cg"`
	LateralCG      float64 `json:"lateral_cg" yaml:"lateral_cg"`
}

// Apply writes the Scenario into the engine configuration
func (s Scenario) Apply(e Engine) error {
	values := []struct {
		node, key string
		value     float64
	}{
		{TrimNode, GroundAltitudeKey, s.GroundAltitude},
		{TrimNode, NorthKey, s.North},
		{TrimNode, EastKey, s.East},
		{HeliNode, WeightKey, s.Weight},
		{HeliNode, LongitudinalCGKey, s.LongitudinalCG},
		{HeliNode, LateralCGKey, s.LateralCG},
	}

	for _, v := range values {
		if err := e.SetConfigValue(v.node, v.key, v.value); err != nil {
			return fmt.Errorf("apply: could not set %v/%v: %w", v.node,
				v.key, err)
		}
	}
	return nil
}

// ReadScenario reads the Scenario currently held by the engine
// configuration
func ReadScenario(e Engine) (Scenario, error) {
	var s Scenario
	fields := []struct {
		node, key string
		dst       *float64
	}{
		{TrimNode, GroundAltitudeKey, &s.GroundAltitude},
		{TrimNode, NorthKey, &s.North},
		{TrimNode, EastKey, &s.East},
		{HeliNode, WeightKey, &s.Weight},
		{HeliNode, LongitudinalCGKey, &s.LongitudinalCG},
		{HeliNode, LateralCGKey, &s.LateralCG},
	}

	for _, f := range fields {
		v, err := e.ConfigValue(f.node, f.key)
		if err != nil {
			return Scenario{}, fmt.Errorf("readScenario: could not read "+
				"%v/%v: %w", f.node, f.key, err)
		}
		*f.dst = v
	}
	return s, nil
}

// StartParams configures the start point draw. If Point is set it is
// used verbatim as (north, east, ground altitude).
type StartParams struct {
	Point     *[3]float64
	AltLow    float64
	AltHigh   float64
	Deviation float64
}

// Randomizer draws scenarios and targets. Every draw comes from one
// source, so a Randomizer built from a seeded source reproduces the
// same sequence of scenarios.
type Randomizer struct {
	uniform  distuv.Uniform
	normal   distuv.Normal
	weightCG environment.UniformStarter
}

// NewRandomizer returns a Randomizer drawing from src
func NewRandomizer(src rand.Source) *Randomizer {
	return &Randomizer{
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: src},
		normal:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		weightCG: environment.NewUniformStarter([]r1.Interval{
			WeightBounds,
			LongitudinalCGBounds,
			LateralCGBounds,
		}, src),
	}
}

// NewSeededRandomizer returns a Randomizer with its own seeded source
func NewSeededRandomizer(seed uint64) *Randomizer {
	return NewRandomizer(rand.NewSource(seed))
}

// StartPoint draws a start ground altitude and horizontal position.
// Negative altitudes are clamped to 0 and the altitude is rounded to
// 2 decimals.
func (r *Randomizer) StartPoint(p StartParams) (groundAlt, north,
	east float64) {
	if p.Point != nil {
		north, east, groundAlt = p.Point[0], p.Point[1], p.Point[2]
	} else {
		deviation := p.Deviation
		if deviation == 0 {
			deviation = DefaultStartDeviation
		}

		alt, low := r.uniform.Rand(), r.uniform.Rand()
		if low < LowStartProbability {
			alt *= LowStartCompression
		}
		groundAlt = p.AltLow + (p.AltHigh-p.AltLow)*alt
		north = r.normal.Rand() * deviation
		east = r.normal.Rand() * deviation
	}

	if groundAlt < 0 {
		groundAlt = 0
	}
	groundAlt = floatutils.Round(groundAlt, 2)

	return groundAlt, north, east
}

// TargetAltitudeBand returns the band of target altitudes reachable in
// half of maxTime from a start at groundAlt.
func TargetAltitudeBand(groundAlt, maxTime float64) r1.Interval {
	halfTime := maxTime / 2
	start := groundAlt + TerrainOffset

	low := start - MaxClimbRate*halfTime
	if low < MinTargetAltitude {
		low = MinTargetAltitude
	}
	return r1.Interval{Min: low, Max: start + MaxClimbRate*halfTime}
}

// TargetPoint draws a position target on the xyz channel, normalized
// by TargetNormalizer. The down component is the negated altitude.
func (r *Randomizer) TargetPoint(groundAlt, maxTime float64) Target {
	band := TargetAltitudeBand(groundAlt, maxTime)
	alt := band.Min + (band.Max-band.Min)*r.uniform.Rand()
	north := r.normal.Rand() * TargetDeviation
	east := r.normal.Rand() * TargetDeviation

	return Target{
		Channel: XYZ,
		Values: []float64{
			north / TargetNormalizer,
			east / TargetNormalizer,
			-alt / TargetNormalizer,
		},
	}
}

// WeightAndCG draws a gross weight and CG position
func (r *Randomizer) WeightAndCG() (weight, longitudinalCG,
	lateralCG float64) {
	v := r.weightCG.Start()
	return v.AtVec(0), v.AtVec(1), v.AtVec(2)
}
