package helicopter

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Observation channel names registered by the helicopter dynamics
// engine, in engine order.
const (
	TotalHP         = "totalhp"
	UVWAir          = "uvwair"
	UVW             = "uvw"
	Acceleration    = "acc"
	NEDVel          = "nedvel"
	EulerAngles     = "eulerangles"
	PQR             = "pqr"
	XYZ             = "xyz"
	GroundAltitude  = "gralt"
	SwashDeflection = "swashdef"
	SwashRate       = "swashrate"
	Wind            = "wind"
)

// Channel is a named, contiguous slice of an observation vector
type Channel struct {
	Name   string
	Offset int
	Len    int
}

// Schema describes the layout of an engine observation vector. It maps
// channel names to their position and is fixed for the life of an
// engine.
type Schema struct {
	channels []Channel
	index    map[string]int
	size     int
}

// NewSchema returns a Schema of consecutive channels with the given
// names and lengths. NewSchema panics if the names and lengths do not
// pair up or if a name repeats.
func NewSchema(names []string, lens []int) Schema {
	if len(names) != len(lens) {
		panic(fmt.Sprintf("newSchema: %v names given for %v lengths",
			len(names), len(lens)))
	}

	s := Schema{
		channels: make([]Channel, len(names)),
		index:    make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, ok := s.index[name]; ok {
			panic(fmt.Sprintf("newSchema: channel %v repeated", name))
		}
		s.channels[i] = Channel{Name: name, Offset: s.size, Len: lens[i]}
		s.index[name] = i
		s.size += lens[i]
	}
	return s
}

// HelicopterSchema is the observation layout of the helicopter
// dynamics engine.
var HelicopterSchema = NewSchema(
	[]string{TotalHP, UVWAir, UVW, Acceleration, NEDVel, EulerAngles, PQR,
		XYZ, GroundAltitude, SwashDeflection, SwashRate, Wind},
	[]int{1, 3, 3, 3, 3, 3, 3, 3, 1, 4, 4, 3},
)

// Len returns the length of observation vectors with this Schema
func (s Schema) Len() int {
	return s.size
}

// Channels returns the channels of the Schema in order
func (s Schema) Channels() []Channel {
	out := make([]Channel, len(s.channels))
	copy(out, s.channels)
	return out
}

// Channel returns the named channel
func (s Schema) Channel(name string) (Channel, bool) {
	i, ok := s.index[name]
	if !ok {
		return Channel{}, false
	}
	return s.channels[i], true
}

// Index returns the position in the observation vector of element i of
// the named channel. Index panics if the channel does not exist or i is
// out of its range.
func (s Schema) Index(name string, i int) int {
	c, ok := s.Channel(name)
	if !ok {
		panic(fmt.Sprintf("index: no such channel %v", name))
	}
	if i < 0 || i >= c.Len {
		panic(fmt.Sprintf("index: element %v out of range for channel %v "+
			"of length %v", i, name, c.Len))
	}
	return c.Offset + i
}

// Slice returns a copy of the named channel of v. Slice panics if the
// channel does not exist.
func (s Schema) Slice(v mat.Vector, name string) []float64 {
	c, ok := s.Channel(name)
	if !ok {
		panic(fmt.Sprintf("slice: no such channel %v", name))
	}

	out := make([]float64, c.Len)
	for i := range out {
		out[i] = v.AtVec(c.Offset + i)
	}
	return out
}
