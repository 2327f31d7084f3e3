package common

import (
	"errors"
	"fmt"
	"strings"
)

type Method int

const (
	MethodExternal Method = iota
	MethodLocal
)

// ParseMethod maps configuration input to a Method. Callers decide what to
// do with unrecognized input; this never selects a strategy silently.
func ParseMethod(s string) (Method, bool) {
	switch strings.ToLower(s) {
	case "external":
		return MethodExternal, true
	case "local":
		return MethodLocal, true
	default:
		return MethodExternal, false
	}
}

func (m *Method) UnmarshalText(b []byte) error {
	parsed, ok := ParseMethod(string(b))
	if !ok {
		return errors.New("invalid IPv6 method")
	}

	*m = parsed
	return nil
}

func (m Method) String() string {
	switch m {
	case MethodExternal:
		return "external"
	case MethodLocal:
		return "local"
	default:
		return fmt.Sprintf("unknown<%d>", int(m))
	}
}
