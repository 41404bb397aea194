//go:build !dynag

package dynag

// Dynamics is a handle to a helicopter dynamics instance
type Dynamics struct{}

// New returns ErrUnavailable
func New(string, float64) (*Dynamics, error) {
	return nil, ErrUnavailable
}

func (d *Dynamics) Ready() bool { return false }
func (d *Dynamics) Reset() {}
func (d *Dynamics) Step([]float64) {}
func (d *Dynamics) All(Kind, bool) []float64 { return nil }
func (d *Dynamics) Get(Kind, string, bool) []float64 { return nil }
func (d *Dynamics) Value(string, string) float64 { return 0 }
func (d *Dynamics) SetValue(string, string, float64) {}
func (d *Dynamics) NumberOfObservations() int { return 0 }
func (d *Dynamics) Close() {}
