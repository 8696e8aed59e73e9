package gnarkbackend

import (
	"fmt"

	ccp "github.com/mynextid/private-score/circuits/credit-predicates"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
)

// CircuitInfo describes a compilable circuit
type CircuitInfo struct {
	Circuit     models.Circuit
	Version     uint
	Description string
}

var CircuitList = []CircuitInfo{
	{
		Circuit:     models.CircuitScoreThreshold,
		Version:     1,
		Description: "committed score is at least a public minimum",
	},
	{
		Circuit:     models.CircuitDTIRatio,
		Version:     1,
		Description: "private debt over private income is at most a public ratio",
	},
	{
		Circuit:     models.CircuitPaymentHistory,
		Version:     1,
		Description: "enough repayments with a minimum on-time share",
	},
	{
		Circuit:     models.CircuitCreditworthy,
		Version:     1,
		Description: "score, debt-to-income and payment history in one proof",
	},
}

// Paths returns the setup files of ci under dir
func (ci CircuitInfo) Paths(dir string) common.SetupPaths {
	return common.NewSetupPaths(dir, string(ci.Circuit), ci.Version)
}

// Compile compiles the circuit, runs the setup and stores the result in
// dir. It returns the number of constraints.
func (ci CircuitInfo) Compile(dir string) (int, error) {
	tmpl, err := ccp.Template(ci.Circuit)
	if err != nil {
		return 0, err
	}
	n, err := common.SetupAndSave(tmpl, ci.Paths(dir))
	if err != nil {
		return 0, fmt.Errorf("failed to compile %s: %w", ci.Circuit, err)
	}
	return n, nil
}

// Lookup finds the entry for c
func Lookup(c models.Circuit) (CircuitInfo, bool) {
	for _, ci := range CircuitList {
		if ci.Circuit == c {
			return ci, true
		}
	}
	return CircuitInfo{}, false
}
