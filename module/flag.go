package module

import (
	"fmt"
	"strings"
)

// Flag controls how an entry's result affects the chain.
type Flag uint8

const (
	Required Flag = iota + 1
	Requisite
	Sufficient
	Optional
)

func (f Flag) String() string {
	switch f {
	case Required:
		return "required"
	case Requisite:
		return "requisite"
	case Sufficient:
		return "sufficient"
	case Optional:
		return "optional"
	default:
		return fmt.Sprintf("flag(%d)", uint8(f))
	}
}

func (f Flag) valid() bool {
	return f >= Required && f <= Optional
}

// ParseFlag parses a case-insensitive flag name. An empty string means
// [Required].
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "required":
		return Required, nil
	case "requisite":
		return Requisite, nil
	case "sufficient":
		return Sufficient, nil
	case "optional":
		return Optional, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFlag, s)
	}
}
