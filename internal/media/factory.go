package media

import (
	"errors"
	"fmt"
	"log/slog"
)

// OutputFactory creates Output instances based on configuration
type OutputFactory interface {
	CreateOutput(outputType string) (Output, error)
	GetSupportedOutputs() []string
	IsValidOutputType(outputType string) bool
}

// ErrInvalidOutputType is returned for unknown output names
var ErrInvalidOutputType = errors.New("invalid output type")

// DefaultOutputFactory implements OutputFactory with build-time detection
type DefaultOutputFactory struct {
	malgoAvailable bool
}

// NewOutputFactory creates a factory using the outputs compiled into this binary
func NewOutputFactory() *DefaultOutputFactory {
	return &DefaultOutputFactory{malgoAvailable: malgoAvailable}
}

// NewOutputFactoryWithDependencies creates a factory with injected availability for testing
func NewOutputFactoryWithDependencies(malgoAvailable bool) *DefaultOutputFactory {
	return &DefaultOutputFactory{malgoAvailable: malgoAvailable}
}

// CreateOutput creates an Output for the given type; empty means "auto"
func (f *DefaultOutputFactory) CreateOutput(outputType string) (Output, error) {
	if outputType == "" {
		outputType = "auto"
	}

	slog.Debug("creating audio output", "type", outputType)

	switch outputType {
	case "auto":
		if f.malgoAvailable {
			return newMalgoOutput()
		}
		slog.Debug("malgo not compiled in, using oto output")
		return NewOtoOutput(), nil
	case "malgo":
		if !f.malgoAvailable {
			return nil, fmt.Errorf("%w: malgo", ErrOutputNotAvailable)
		}
		return newMalgoOutput()
	case "oto":
		return NewOtoOutput(), nil
	case "null":
		return NewNullOutput(), nil
	default:
		slog.Error("invalid output type requested", "type", outputType)
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutputType, outputType)
	}
}

// GetSupportedOutputs returns a list of all supported output types
func (f *DefaultOutputFactory) GetSupportedOutputs() []string {
	return SupportedOutputs()
}

// IsValidOutputType checks if an output type is supported
func (f *DefaultOutputFactory) IsValidOutputType(outputType string) bool {
	return IsValidOutputType(outputType)
}

// SupportedOutputs lists every output type name
func SupportedOutputs() []string {
	return []string{"auto", "malgo", "oto", "null"}
}

// IsValidOutputType reports whether outputType names a known output; empty means auto
func IsValidOutputType(outputType string) bool {
	if outputType == "" {
		return true
	}
	for _, supported := range SupportedOutputs() {
		if outputType == supported {
			return true
		}
	}
	return false
}
