package jsx

import (
	"fmt"
	"strings"
)

// Mode selects the flavour of JSX the pipeline emits.
type Mode int

const (
	React Mode = iota
	ReactNative
)

func (m Mode) String() string {
	switch m {
	case ReactNative:
		return "react-native"
	default:
		return "react"
	}
}

// ParseMode accepts "react" or "react-native" (case-insensitive). An empty
// string yields React.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "react":
		return React, nil
	case "react-native":
		return ReactNative, nil
	default:
		return React, fmt.Errorf("jsx: unknown mode %q (want react or react-native)", s)
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
