package application

import (
	"encoding/json"
	"fmt"

	simdomain "github.com/aysen-hub/glpsim/internal/simulation/domain"
)

// ToSimulationConfig decodes a Configuracion's stored parameter map into a
// simulation.Config. It round-trips through JSON rather than mapping fields
// one by one, so simulation.Config's JSON field tags are the only contract
// between the stored parameter map and the simulation's config layout.
func ToSimulationConfig(parameters map[string]any) (simdomain.Config, error) {
	raw, err := json.Marshal(parameters)
	if err != nil {
		return simdomain.Config{}, fmt.Errorf("encoding parameters: %w", err)
	}
	var cfg simdomain.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return simdomain.Config{}, fmt.Errorf("decoding parameters into simulation config: %w", err)
	}
	return cfg, nil
}
