package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// PlanSeedFile lists the plans inserted at startup when missing.
//
//	[[plan]]
//	name = "Hourly"
//	validity = "1 Hour"
//	amount = "10.00"
type PlanSeedFile struct {
	Plans []PlanSeed `toml:"plan"`
}

type PlanSeed struct {
	Name     string `toml:"name"`
	Validity string `toml:"validity"`
	Amount   string `toml:"amount"`
}

// LoadPlanSeed loads plan definitions from a TOML file
func LoadPlanSeed(filename string) (*PlanSeedFile, error) {
	seed := &PlanSeedFile{}
	if _, err := toml.DecodeFile(filename, seed); err != nil {
		return nil, fmt.Errorf("failed to load plan seed file: %w", err)
	}
	return seed, nil
}
