// Package config assembles component configurations from CLI flags and
// environment for the tutorimport command.
package config

import (
	"fmt"
	"time"

	"tutor-import-service/internal/importer"
	"tutor-import-service/internal/validator"
)

// CreateValidatorConfig builds the validation thresholds with CLI overrides
// applied on top of the defaults.
func CreateValidatorConfig(locationMinScore, bankMinScore, subjectMinScore int) (validator.Config, error) {
	config := validator.DefaultConfig()

	if locationMinScore > 0 {
		config.LocationMinScore = locationMinScore
	}
	if bankMinScore > 0 {
		config.BankMinScore = bankMinScore
	}
	if subjectMinScore > 0 {
		config.SubjectMinScore = subjectMinScore
	}

	if err := config.Validate(); err != nil {
		return validator.Config{}, fmt.Errorf("invalid validation config: %w", err)
	}
	return config, nil
}

// CreateImporterConfig builds the batch orchestrator configuration.
func CreateImporterConfig(recordTimeout time.Duration) (importer.Config, error) {
	config := importer.DefaultConfig()

	if recordTimeout > 0 {
		config.RecordTimeout = recordTimeout
	}

	if err := config.Validate(); err != nil {
		return importer.Config{}, fmt.Errorf("invalid importer config: %w", err)
	}
	return config, nil
}
