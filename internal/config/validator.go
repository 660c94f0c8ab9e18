package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "storage.adapter")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateStorage()...)
	errors = append(errors, c.validateSession()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateStorage validates the storage backend selection. Whether the
// adapter name is registered is checked at construction time by the
// factory, which knows the registered kinds.
func (c *Config) validateStorage() []ValidationError {
	var errors []ValidationError

	if c.Storage.Adapter == "" {
		errors = append(errors, ValidationError{
			Field:   "storage.adapter",
			Value:   c.Storage.Adapter,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateSession validates the SessionConfig
func (c *Config) validateSession() []ValidationError {
	var errors []ValidationError

	if c.Session.MachineID == "" {
		errors = append(errors, ValidationError{
			Field:   "session.machine_id",
			Value:   c.Session.MachineID,
			Message: `must be "auto" or a machine name`,
		})
	}

	if !slices.Contains(ValidProjectDetectionModes(), c.Session.ProjectDetection) {
		errors = append(errors, ValidationError{
			Field:   "session.project_detection",
			Value:   c.Session.ProjectDetection,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProjectDetectionModes(), ", ")),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
