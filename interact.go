package chatrelay

import (
	"fmt"
	"strings"
)

// DefaultTemperature is used when a request carries no temperature.
const DefaultTemperature = 0.5

// InteractRequest is a prompt submitted to the relay.
type InteractRequest struct {
	Input       string
	Temperature *float64 // nil = DefaultTemperature
}

// Validate checks the request before any provider is called.
func (r InteractRequest) Validate() error {
	if strings.TrimSpace(r.Input) == "" {
		return fmt.Errorf("input is required: %w", ErrValidation)
	}
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	return nil
}

// TemperatureOrDefault returns the requested temperature or DefaultTemperature.
func (r InteractRequest) TemperatureOrDefault() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// InteractResponse is the relay's combined answer. Images is nil unless the
// prompt asked for an image.
type InteractResponse struct {
	Text   string
	Images [][]byte
}
