package server

import (
	"fmt"
	"os"

	"github.com/mynextid/private-score/models"
	"gopkg.in/yaml.v3"
)

// DefaultPools are served when no pool file is configured
var DefaultPools = []models.LendingPool{
	{
		PoolID:              1,
		Name:                "stable",
		MinCreditScore:      models.DefaultMinCreditScore,
		BaseCollateralBps:   models.DefaultBaseCollateralBps,
		CreditCollateralBps: models.DefaultCreditCollateralBps,
	},
	{
		PoolID:              2,
		Name:                "prime",
		MinCreditScore:      740,
		BaseCollateralBps:   models.DefaultBaseCollateralBps,
		CreditCollateralBps: 11000,
	},
}

type poolFile struct {
	Pools []models.LendingPool `yaml:"pools"`
}

// LoadPools reads lending pools from a YAML file. An empty path yields
// DefaultPools.
func LoadPools(path string) ([]models.LendingPool, error) {
	if path == "" {
		return DefaultPools, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pools file: %w", err)
	}
	return ParsePools(b)
}

// ParsePools decodes and validates a YAML pool list
func ParsePools(b []byte) ([]models.LendingPool, error) {
	var f poolFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pools: %w", err)
	}
	if len(f.Pools) == 0 {
		return nil, fmt.Errorf("no pools defined")
	}

	seen := make(map[uint64]bool, len(f.Pools))
	for _, p := range f.Pools {
		if seen[p.PoolID] {
			return nil, fmt.Errorf("duplicate pool id %d", p.PoolID)
		}
		seen[p.PoolID] = true
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("pool %d: %w", p.PoolID, err)
		}
	}
	return f.Pools, nil
}
