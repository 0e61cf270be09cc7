// Package solver implements functionality to wrap Gorgonia Solvers
// so that they can be JSON serialized into configuration files and
// checkpoints.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// LearnRate returns the solver's current learning rate
func (s *Solver) LearnRate() float64 {
	return s.Config.LearnRate()
}

// SetLearnRate sets the solver's learning rate. The wrapped Gorgonia
// solver is recreated at the new rate from its configuration; its
// internal moment estimates are not exposed by the engine and are
// rebuilt on the following steps.
func (s *Solver) SetLearnRate(lr float64) {
	s.Config = s.Config.WithLearnRate(lr)
	s.Solver = s.Config.Create()
}

// State is the serializable snapshot of a Solver, embedded as the
// optimizer sub-record of a checkpoint. Data holds the JSON encoding
// of the solver's type and configuration.
type State struct {
	Data []byte
}

// State snapshots the solver's type and configuration
func (s *Solver) State() (State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return State{}, fmt.Errorf("state: could not marshal solver: %v",
			err)
	}
	return State{Data: data}, nil
}

// Restore rebuilds the solver from a snapshot
func (s *Solver) Restore(state State) error {
	if err := s.UnmarshalJSON(state.Data); err != nil {
		return fmt.Errorf("restore: could not unmarshal solver: %v", err)
	}
	return nil
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(Vanilla): reflect.TypeOf(VanillaConfig{}),
			string(Adam):    reflect.TypeOf(AdamConfig{}),
			string(RMSProp): reflect.TypeOf(RMSPropConfig{}),
		})
	if err != nil {
		return err
	}

	s.Type = typeName
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalconfig: no %v field",
			typeJsonField)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalconfig: unknown solver type %v",
			typeName)
	}
	value := reflect.New(ty).Interface().(Config)

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, &value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// Config implements a Gorgonia Solver configuration and can be used to
// create the Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// LearnRate returns the configured learning rate
	LearnRate() float64

	// WithLearnRate returns a copy of the Config with a new learning
	// rate
	WithLearnRate(float64) Config
}
