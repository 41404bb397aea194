package trackers

import (
	"fmt"
	"strings"

	ts "github.com/dynag/heligym/timestep"
)

// Outcome tracks and saves why each episode of an experiment ended.
// Each episode is saved as its end reasons joined by "|", e.g.
// "Failed|TimeUp".
type Outcome struct {
	outcomes []string
	counts   map[ts.EndType]int
	filename string
}

// NewOutcome returns a new Outcome Tracker saving to filename
func NewOutcome(filename string) *Outcome {
	return &Outcome{counts: make(map[ts.EndType]int), filename: filename}
}

// Track records the end reasons of the last timestep of an episode
func (o *Outcome) Track(t ts.TimeStep) {
	if !t.Last() {
		return
	}

	ends := t.EndTypes()
	names := make([]string, len(ends))
	for i, e := range ends {
		names[i] = e.String()
		o.counts[e]++
	}
	o.outcomes = append(o.outcomes, strings.Join(names, "|"))
}

// Data returns the end reasons of all finished episodes
func (o *Outcome) Data() []string {
	return append([]string(nil), o.outcomes...)
}

// Count returns the number of episodes which ended for reason e. An
// episode ending for more than one reason is counted for each.
func (o *Outcome) Count(e ts.EndType) int {
	return o.counts[e]
}

// Save saves the data tracked by the Outcome Tracker to disk.
func (o *Outcome) Save() error {
	if err := save(o.filename, o.outcomes); err != nil {
		return fmt.Errorf("outcome: %w", err)
	}
	return nil
}
