package errors

import "strings"

// Violation describes a single geometric constraint that a configuration
// breaks. RequiredMM is what the content demands, AvailableMM what the
// geometry offers.
type Violation struct {
	Dimension   string  // e.g., "label width", "usable height"
	RequiredMM  float64 // space the content needs
	AvailableMM float64 // space the configuration provides
	Detail      string  // human-readable explanation
}

// ConfigError aggregates every geometric violation found during
// configuration validation, so the user can correct all of them in one pass
// instead of fixing and re-running per violation.
type ConfigError struct {
	Code       Code
	Violations []Violation
}

// Error implements the error interface. All violations are listed, one per
// line after the summary.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": configuration is not geometrically feasible")
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.Detail)
	}
	return b.String()
}

// NewConfigError creates an aggregated configuration error.
// Returns nil when violations is empty, so callers can return the result
// unconditionally after collecting.
func NewConfigError(code Code, violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ConfigError{Code: code, Violations: violations}
}
