// config/programs.go
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProgramMap maps currency codes to Tapfiliate program ids
type ProgramMap map[string]string

// DefaultPrograms returns the built-in currency to program mapping.
func DefaultPrograms() ProgramMap {
	return ProgramMap{
		"EUR": "partner-program-eur",
		"GBP": "partner-program-gbp",
		"USD": "partner-program-usd",
	}
}

type programsFile struct {
	Programs map[string]string `yaml:"programs"`
}

// LoadPrograms returns the default mapping overlaid with the entries of the
// YAML file at path. An empty path returns the defaults.
func LoadPrograms(path string) (ProgramMap, error) {
	programs := DefaultPrograms()
	if path == "" {
		return programs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read programs file: %w", err)
	}
	var file programsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse programs file: %w", err)
	}
	for currency, program := range file.Programs {
		currency = strings.ToUpper(strings.TrimSpace(currency))
		program = strings.TrimSpace(program)
		if currency == "" || program == "" {
			continue
		}
		programs[currency] = program
	}
	return programs, nil
}

// Resolve returns the program id for a currency code. Values that are not a
// known currency are assumed to already be a program id and pass through.
func (m ProgramMap) Resolve(input string) string {
	input = strings.TrimSpace(input)
	if program, ok := m[strings.ToUpper(input)]; ok {
		return program
	}
	return input
}
