package config

import (
	"fmt"
	"os"
	"strings"
)

// MissingConfigError reports every missing variable from a RequireAll call
// so operators see the complete gap in one report.
type MissingConfigError struct {
	Names []string
}

// Error implements the error interface.
func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Names, ", "))
}

// Value reads an environment variable and trims it.
// The second return is false when the variable is unset or blank.
func Value(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", false
	}
	return v, true
}

// Boolean reads an environment variable as a boolean.
// Accepts 1/true/yes/on and 0/false/no/off (case-insensitive);
// anything else is treated as absent, not an error.
func Boolean(name string) (bool, bool) {
	v, ok := Value(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// RequireAll reads every named variable and fails with a MissingConfigError
// listing all missing names, not just the first.
func RequireAll(names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v, ok := Value(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return nil, &MissingConfigError{Names: missing}
	}
	return values, nil
}
