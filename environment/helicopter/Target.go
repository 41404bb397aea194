package helicopter

import (
	"fmt"
)

// Target is a task goal: a fixed-length vector in the engine's
// normalized coordinates for one observation channel. The zero Target
// is the empty goal.
type Target struct {
	Channel string
	Values  []float64
}

// NewTarget returns a Target for the named channel of s, checking that
// the channel exists and that values has the channel's length.
func NewTarget(s Schema, channel string, values ...float64) (Target, error) {
	t := Target{Channel: channel, Values: append([]float64(nil), values...)}
	if err := t.Validate(s); err != nil {
		return Target{}, fmt.Errorf("newTarget: %w", err)
	}
	return t, nil
}

// Empty returns whether the Target sets no goal
func (t Target) Empty() bool {
	return t.Channel == "" && len(t.Values) == 0
}

// Validate checks the Target against an observation schema
func (t Target) Validate(s Schema) error {
	if t.Empty() {
		return nil
	}

	c, ok := s.Channel(t.Channel)
	if !ok {
		return fmt.Errorf("%w: no such channel %q", ErrInvalidTarget,
			t.Channel)
	}
	if len(t.Values) != c.Len {
		return fmt.Errorf("%w: channel %v \n\twant(%v) \n\thave(%v)",
			ErrInvalidTarget, t.Channel, c.Len, len(t.Values))
	}
	return nil
}

// Copy returns a deep copy of the Target
func (t Target) Copy() Target {
	if t.Values == nil {
		return Target{Channel: t.Channel}
	}
	return Target{
		Channel: t.Channel,
		Values:  append([]float64(nil), t.Values...),
	}
}
