package data

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/temporaldebt/core/internal/geom"
)

// Op is a scripted player command.
type Op string

const (
	OpFreeze        Op = "freeze"
	OpUnfreeze      Op = "unfreeze"
	OpPlaceAnchor   Op = "place_anchor"
	OpRecall        Op = "recall"
	OpRecallNearest Op = "recall_nearest"
	OpMove          Op = "move"
	OpUseSink       Op = "use_sink"
	OpUseMirror     Op = "use_mirror"
	OpEmitMirror    Op = "emit_mirror"
	OpClearAnchors  Op = "clear_anchors"
)

func (o Op) valid() bool {
	switch o {
	case OpFreeze, OpUnfreeze, OpPlaceAnchor, OpRecall, OpRecallNearest,
		OpMove, OpUseSink, OpUseMirror, OpEmitMirror, OpClearAnchors:
		return true
	}
	return false
}

// Command fires once the simulation's real clock reaches At seconds.
type Command struct {
	At      float64   `yaml:"at"`
	Op      Op        `yaml:"op"`
	Index   int       `yaml:"index"`   // recall
	Target  geom.Vec2 `yaml:"target"`  // move
	Seconds float64   `yaml:"seconds"` // use_mirror deposit time
}

// Spawn places one actor at scenario start.
type Spawn struct {
	Kind      string      `yaml:"kind"` // drone, hunter, sink, mirror, bomb
	Position  geom.Vec2   `yaml:"position"`
	Mode      string      `yaml:"mode"` // drone: linear, circular, seeker
	Waypoints []geom.Vec2 `yaml:"waypoints"`
	Speed     float64     `yaml:"speed"`
	Uses      int         `yaml:"uses"`    // sink
	Amount    float64     `yaml:"amount"`  // sink; 0 uses the configured amount
	Facing    geom.Vec2   `yaml:"facing"`  // mirror
	Payload   float64     `yaml:"payload"` // bomb; 0 uses the configured payload
	Radius    float64     `yaml:"radius"`  // bomb blast; 0 uses the configured radius
}

// Scenario drives a headless run: spawns, then timed commands.
type Scenario struct {
	Name     string    `yaml:"name"`
	Duration float64   `yaml:"duration"` // real seconds; 0 ends after the last command
	Player   geom.Vec2 `yaml:"player"`
	Spawns   []Spawn   `yaml:"spawns"`
	Commands []Command `yaml:"commands"`
}

// LoadScenario loads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := ParseScenario(raw)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes a scenario and sorts its commands by time. Commands
// sharing a time keep file order.
func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(sc.Commands, func(a, b Command) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return &sc, nil
}

// End is the real time at which the scenario is over.
func (s *Scenario) End() float64 {
	end := s.Duration
	for _, c := range s.Commands {
		end = max(end, c.At)
	}
	return end
}

// Count returns the number of spawns.
func (s *Scenario) Count() int { return len(s.Spawns) }

func (s *Scenario) validate() error {
	var errs []error
	for i, sp := range s.Spawns {
		switch sp.Kind {
		case "drone":
			switch sp.Mode {
			case "", "linear", "circular", "seeker":
			default:
				errs = append(errs, fmt.Errorf("spawn %d: unknown drone mode %q", i, sp.Mode))
			}
		case "hunter", "sink", "mirror", "bomb":
		default:
			errs = append(errs, fmt.Errorf("spawn %d: unknown kind %q", i, sp.Kind))
		}
	}
	for i, c := range s.Commands {
		if !c.Op.valid() {
			errs = append(errs, fmt.Errorf("command %d: unknown op %q", i, c.Op))
		}
		if c.At < 0 {
			errs = append(errs, fmt.Errorf("command %d: negative time %.2f", i, c.At))
		}
	}
	if s.Duration < 0 {
		errs = append(errs, errors.New("negative duration"))
	}
	return errors.Join(errs...)
}
