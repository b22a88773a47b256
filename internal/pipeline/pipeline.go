// Package pipeline runs configurable stages over assets.
//
// Stages are defined in the pipeline config and run for every asset that
// matches their trigger. They communicate with later stages, and with
// future runs, by attaching metadata to the asset.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"maps"
	"slices"
	"time"

	"github.com/dnswlt/yamlasset/internal/asset"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Definition defines the YAML structure of a stage definition.
type Definition struct {
	Kind string `yaml:"kind"`
	// CEL expression that must evaluate to true for the stage to run.
	// An empty trigger matches every asset.
	Trigger string `yaml:"trigger"`
	// CEL expression that prevents the stage from running if true.
	Inhibit string `yaml:"inhibit"`
	// Label selector that assets must match, e.g. "team=graphics".
	Selector string    `yaml:"selector"`
	Spec     yaml.Node `yaml:"spec"`
}

// Config is the pipeline section of the application config.
type Config struct {
	Stages map[string]*Definition `yaml:"stages"`
}

type StageArgs struct {
	// The registry which initiated the stage execution.
	Registry *Registry
	// Identifies the current pipeline run. All stages executed by the same
	// Registry see the same RunID.
	RunID string
	// Returns the current time.
	Now func() time.Time
}

type Stage interface {
	Execute(ctx context.Context, a *asset.Asset, args *StageArgs) error
}

type Registry struct {
	config   *Config
	triggers map[string]*Trigger
	runID    string
	now      func() time.Time
}

// NewRegistry creates the stages defined in config.
// Each registry gets a fresh run ID.
func NewRegistry(config *Config) (*Registry, error) {
	r := &Registry{
		config:   config,
		triggers: make(map[string]*Trigger),
		runID:    uuid.NewString(),
		now:      time.Now,
	}
	for n, d := range config.Stages {
		if err := r.registerStage(n, d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) RunID() string {
	return r.runID
}

// SetClock replaces the clock passed to stages.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// StageNames returns the names of all stages in execution order.
func (r *Registry) StageNames() []string {
	return slices.Sorted(maps.Keys(r.triggers))
}

// Matches returns true if the trigger of any stage in the registry matches a.
func (r *Registry) Matches(a *asset.Asset) bool {
	for _, t := range r.triggers {
		if ok, _ := t.Matches(a); ok {
			return true
		}
	}
	return false
}

// Run executes all stages whose triggers match a, ordered by stage name.
func (r *Registry) Run(ctx context.Context, a *asset.Asset) error {
	args := &StageArgs{
		Registry: r,
		RunID:    r.runID,
		Now:      r.now,
	}
	for _, n := range r.StageNames() {
		t := r.triggers[n]
		ok, err := t.Matches(a)
		if err != nil {
			return fmt.Errorf("failed to evaluate trigger of stage %s for %s: %v", n, a.GetRef(), err)
		}
		if !ok {
			continue
		}
		log.Printf("Executing stage %s for %s", n, a.GetRef())
		if err := t.stage.Execute(ctx, a, args); err != nil {
			return fmt.Errorf("failed to execute stage %s for %s: %w", n, a.GetRef(), err)
		}
	}
	return nil
}

// RunAll runs the pipeline for each asset in turn.
// It stops at the first error or when ctx is done.
func (r *Registry) RunAll(ctx context.Context, assets []*asset.Asset) error {
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Run(ctx, a); err != nil {
			return err
		}
	}
	log.Printf("Pipeline run %s processed %d assets", r.runID, len(assets))
	return nil
}

func (r *Registry) registerStage(name string, def *Definition) error {
	if def == nil {
		return fmt.Errorf("empty definition for stage %s", name)
	}
	trigger, err := newTrigger(def)
	if err != nil {
		return fmt.Errorf("invalid trigger for stage %s: %v", name, err)
	}
	switch def.Kind {
	case "SourceLineStage":
		trigger.stage, err = newSourceLineStage(name, &def.Spec)
	case "FormatHintStage":
		trigger.stage, err = newFormatHintStage(name, &def.Spec)
	case "ProvenanceStage":
		trigger.stage, err = newProvenanceStage(name, &def.Spec)
	default:
		return fmt.Errorf("invalid stage kind %q for stage %s", def.Kind, name)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s %s: %w", def.Kind, name, err)
	}
	r.triggers[name] = trigger
	return nil
}
