package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/fulfillment/pkg/application/services/session"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
)

// PlanFile is a scripted allocation: a list of steps replayed through a session
type PlanFile struct {
	// Demand is used when --demand is not given
	Demand string `yaml:"demand,omitempty"`
	Steps  []Step `yaml:"steps"`
}

// Step is one allocation operation
type Step struct {
	Op         string `yaml:"op"`
	LocationID int64  `yaml:"location_id,omitempty"`
	Channel    string `yaml:"channel,omitempty"`
	Qty        string `yaml:"qty,omitempty"`
}

// LoadPlanFile reads a plan script with strict field checking
func LoadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan PlanFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}
	for i, step := range plan.Steps {
		if _, _, err := step.resolve(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &plan, nil
}

func (s Step) resolve() (allocation.Operation, allocation.Target, error) {
	op := allocation.Operation(s.Op)
	switch op {
	case allocation.OpAddLocation, allocation.OpEditLocation, allocation.OpRemoveLocation:
		if s.LocationID <= 0 {
			return op, allocation.Target{}, fmt.Errorf("%s needs a positive location_id", op)
		}
		return op, allocation.LocationTarget(entities.LocationID(s.LocationID)), nil
	case allocation.OpSetExternal:
		if s.Channel == "" {
			return op, allocation.Target{}, fmt.Errorf("%s needs a channel", op)
		}
		return op, allocation.ChannelTarget(entities.Channel(s.Channel)), nil
	default:
		return op, allocation.Target{}, fmt.Errorf("unknown op %q", s.Op)
	}
}

// Apply runs the step against a session
func (s Step) Apply(sess *session.Session) error {
	op, target, err := s.resolve()
	if err != nil {
		return err
	}
	if op == allocation.OpRemoveLocation {
		return sess.RemoveLocation(target.Location)
	}

	qty, err := decimal.NewFromString(s.Qty)
	if err != nil {
		return fmt.Errorf("invalid qty %q: %w", s.Qty, err)
	}
	return sess.Apply(op, target, qty)
}
