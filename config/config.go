// Package config loads a simulation run's parameters from YAML, in the same
// viper-then-yaml.v3 two-stage decode pattern the teacher's training config uses:
// viper unwraps an outer "kind/def" envelope, then the inner "def" blob is
// re-marshaled and decoded a second time into a concrete, strongly-typed struct.
//
// Grounded on niceyeti-tabular/tabular/reinforcement/learning.go's TrainingConfig and
// FromYaml.
package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// outerConfig mirrors learning.go's OuterConfig envelope: "kind" names the run
// variant (e.g. "ramp", "churn"), "def" holds its parameters as a nested YAML map.
type outerConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// HyperParameter is a single named numeric knob, e.g. churn rate or frame length.
type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// RunConfig describes one simulation run: which protocol(s) populate the network,
// how many slots per frame, how long to run, and any experiment-specific knobs.
type RunConfig struct {
	// Seed seeds the single deterministic draw stream the whole run consumes from.
	Seed int64 `mapstructure:"seed"`
	// Protocol selects the player implementation: "eb-aloha", "aloha-q", "aloha-qt",
	// "aloha-qtf", or "at-aloha".
	Protocol string `mapstructure:"protocol"`
	// Experiment selects the activity schedule driver: "ramp", "reverse-ramp",
	// "ramp-up", "ramp-down", "churn", or "" for a flat, always-active population.
	Experiment string `mapstructure:"experiment"`
	// NumPlayers is the population size for drivers that don't hard-code one.
	NumPlayers int `mapstructure:"numPlayers"`
	// HyperParams is a key-val list of numeric tuning knobs (frameLen, statLen,
	// churnRate, maxPeriodExponent, bottomFraction, ...), looked up by name.
	HyperParams []HyperParameter `mapstructure:"hyperParams"`
	// TrainingDeadline reuses the teacher's naming for a run's wall-clock budget.
	TrainingDeadline map[string]string `mapstructure:"trainingDeadline"`
	// Liveview optionally configures a websocket status server for this run.
	Liveview *LiveviewConfig `mapstructure:"liveview"`
}

// LiveviewConfig configures the optional websocket status server.
type LiveviewConfig struct {
	Addr string `mapstructure:"addr"`
}

// GetHyperParamOrDefault looks up a named hyperparameter, returning defaultVal if
// absent.
func (cfg *RunConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// WithTrainingDeadline returns a context bounded by the configured deadline
// duration, if any, else a plain cancelable context.
func (cfg *RunConfig) WithTrainingDeadline(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.TrainingDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, err
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// FromYaml loads a RunConfig from path via viper's outer envelope, then a second
// yaml.v3 decode of the inner "def" blob into RunConfig proper.
func FromYaml(path string) (*RunConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, err
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, err
	}

	inner := &RunConfig{}
	if err := yaml.Unmarshal(spec, inner); err != nil {
		return nil, err
	}
	return inner, nil
}
