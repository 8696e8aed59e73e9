package gnarkbackend

import (
	"fmt"

	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
)

// CircuitRegistry stores loaded circuits by name
type CircuitRegistry struct {
	Circuits map[models.Circuit]*Circuit
}

// NewCircuitRegistry creates a new registry
func NewCircuitRegistry() *CircuitRegistry {
	return &CircuitRegistry{
		Circuits: make(map[models.Circuit]*Circuit),
	}
}

// LoadAll loads every circuit of CircuitList from dir. With compile set,
// missing setups are generated first.
func (cr *CircuitRegistry) LoadAll(dir string, compile bool) error {
	for _, ci := range CircuitList {
		if err := cr.LoadCircuit(dir, ci, compile); err != nil {
			return err
		}
	}
	return nil
}

// LoadCircuit loads one circuit setup from dir
func (cr *CircuitRegistry) LoadCircuit(dir string, ci CircuitInfo, compile bool) error {
	paths := ci.Paths(dir)
	if !paths.Exists() {
		if !compile {
			return fmt.Errorf("circuit %s is not compiled in %s", ci.Circuit, dir)
		}
		if _, err := ci.Compile(dir); err != nil {
			return err
		}
	}

	cs, pk, vk, err := common.LoadSetup(paths)
	if err != nil {
		return fmt.Errorf("failed to load the circuit: %w", err)
	}

	return cr.Register(ci.Circuit, &Circuit{
		CS:           cs,
		ProvingKey:   pk,
		VerifyingKey: vk,
	})
}

// Get returns a circuit by name
func (cr *CircuitRegistry) Get(name models.Circuit) (*Circuit, error) {
	if c, ok := cr.Circuits[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s not loaded", models.ErrUnknownCircuit, name)
}

// Register registers a loaded circuit
func (cr *CircuitRegistry) Register(name models.Circuit, circuit *Circuit) error {
	if _, ok := cr.Circuits[name]; ok {
		return fmt.Errorf("circuit with name %s already exists", name)
	}
	cr.Circuits[name] = circuit
	return nil
}

// Loaded reports whether name is registered
func (cr *CircuitRegistry) Loaded(name models.Circuit) bool {
	_, ok := cr.Circuits[name]
	return ok
}
