package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a width or operation outside the catalog.
	ErrConfiguration = errors.New("configuration error")

	// ErrRange marks an operand that does not fit its width.
	ErrRange = errors.New("operand out of range")
)

// ConfigurationError reports an unknown width, operation or backend name.
type ConfigurationError struct {
	Value string
	What  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.What, e.Value)
}

// Is makes ConfigurationError match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// RangeError reports an operand larger than its width allows.
type RangeError struct {
	Value uint64
	Width Width
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("operand %d does not fit in %s (max %d)",
		e.Value, e.Width, e.Width.Max())
}

// Is makes RangeError match ErrRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}
