package rxs

import (
	"io"

	"gopkg.in/yaml.v3"
)

// EngineConfig collects the tunables spec.md §6 calls out as "Configuration
// knobs": priority level count, runaway handling, invariant checking, and
// whether debug names are populated.
//
// Grounded on cuemby-warren's config pattern (its top-level Config struct
// loaded via gopkg.in/yaml.v3 and passed down to constructors) generalized
// from cluster/runtime settings to rxs's engine settings; field names follow
// the teacher's LoopOption nomenclature (options.go) where a corresponding
// knob exists there (e.g. MaxRounds mirrors the teacher's per-tick budget).
type EngineConfig struct {
	// PriorityLevels is the number of priority buckets a TaskQueue maintains
	// (P in spec.md §3). Must be >= 1.
	PriorityLevels int `yaml:"priorityLevels"`

	// MaxRounds bounds the executor's round-based draining before runaway
	// detection fires (spec.md §4.D). <= 0 defaults to 100.
	MaxRounds int `yaml:"maxRounds"`

	// PurgeTasksWhenRunawayDetected selects the default RunawayPolicy when
	// RunawayPolicy itself is left nil: true -> PurgeOnRunaway, false ->
	// ToleratingRunaway.
	PurgeTasksWhenRunawayDetected bool `yaml:"purgeTasksWhenRunawayDetected"`

	// NamesEnabled controls whether operators/sources populate Task.Name and
	// stream debug names (spec.md §6 "Debug names"). Disabled by default
	// since name formatting has a small but nonzero per-task cost.
	NamesEnabled bool `yaml:"namesEnabled"`

	// ValidateSubscriptions enables the subscription protocol validator
	// (spec.md §4.G / §8): double-subscribe, signal-after-terminal, and
	// similar violations raise a *ProtocolViolationError instead of being
	// silently tolerated.
	ValidateSubscriptions bool `yaml:"validateSubscriptions"`

	// CheckInvariants is loaded and stored but not read by the engine: task
	// double-enqueue and processor nesting always panic, and out-of-range
	// priority indices are always clamped, whatever its value.
	CheckInvariants bool `yaml:"checkInvariants"`

	// Logger receives all internal diagnostic output (task panics, including
	// protocol violations raised inside a task body, and runaway detection).
	// Defaults to a stumpy-backed logger at Warn level; see logging.go.
	Logger Logger `yaml:"-"`

	// RunawayPolicy overrides the policy derived from
	// PurgeTasksWhenRunawayDetected when non-nil.
	RunawayPolicy RunawayPolicy `yaml:"-"`

	// Metrics, when non-nil, is attached to every Processor's Executor via
	// AttachMetrics (see metrics.go). Left nil by default: metrics
	// collection is opt-in since it requires the caller to own a
	// prometheus.Registerer.
	Metrics *ExecutorMetrics `yaml:"-"`
}

// DefaultEngineConfig returns the configuration used when NewProcessor is
// given a nil *EngineConfig: four priority levels (spec.md §3's illustrative
// default), a 100-round runaway budget, purge-on-runaway, names disabled,
// subscription validation enabled (fail fast during development), and the
// default stumpy logger.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		PriorityLevels:                4,
		MaxRounds:                     100,
		PurgeTasksWhenRunawayDetected: true,
		NamesEnabled:                  false,
		ValidateSubscriptions:         true,
		CheckInvariants:               false,
	}
}

// LoadEngineConfig reads a YAML document from r into a new EngineConfig
// seeded with DefaultEngineConfig's values, so a partial document only
// overrides the fields it sets. Logger/RunawayPolicy/Metrics are never
// populated from YAML (they carry `yaml:"-"`) and must be set by the caller
// afterward.
func LoadEngineConfig(r io.Reader) (*EngineConfig, error) {
	cfg := DefaultEngineConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	if cfg.PriorityLevels < 1 {
		cfg.PriorityLevels = 1
	}
	return cfg, nil
}
