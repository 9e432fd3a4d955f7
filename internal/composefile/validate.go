package composefile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ValidationResult collects the problems found in a compose file.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) addError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

func (r *ValidationResult) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Validate checks the structure of a loaded compose file.
// Missing env files are warnings: setup creates them later.
func Validate(f *File) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(f.Services) == 0 {
		result.addError("no services declared")
		return result
	}

	for _, name := range f.ServiceNames() {
		svc := f.Services[name]

		if svc.Image == "" && svc.Build == nil {
			result.addError(fmt.Sprintf("service %q: needs image or build", name))
		}

		for _, p := range svc.Ports {
			if err := validatePort(p); err != nil {
				result.addError(fmt.Sprintf("service %q: %v", name, err))
			}
		}

		for _, dep := range svc.dependencies() {
			if _, ok := f.Services[dep]; !ok {
				result.addError(fmt.Sprintf("service %q: depends on undeclared service %q", name, dep))
			}
		}

		for _, envPath := range f.EnvFiles(name) {
			if _, err := os.Stat(envPath); err != nil {
				result.addWarning(fmt.Sprintf("service %q: env_file %s not found", name, envPath))
			}
		}
	}

	return result
}

// validatePort accepts compose short syntax ([ip:][host:]container[/proto])
// and long syntax mappings with a target.
func validatePort(p any) error {
	switch v := p.(type) {
	case int:
		return validatePortNumber(strconv.Itoa(v))
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("invalid port %v", v)
		}
		return validatePortNumber(strconv.Itoa(int(v)))
	case string:
		return validatePortString(v)
	case map[string]any:
		target, ok := v["target"]
		if !ok {
			return fmt.Errorf("port mapping without target")
		}
		return validatePort(target)
	default:
		return fmt.Errorf("unsupported port entry %v", p)
	}
}

func validatePortString(s string) error {
	// interpolated mappings are resolved by compose
	if strings.Contains(s, "$") {
		return nil
	}
	spec := s
	if i := strings.LastIndex(spec, "/"); i >= 0 {
		switch spec[i+1:] {
		case "tcp", "udp", "sctp":
		default:
			return fmt.Errorf("invalid protocol in port %q", s)
		}
		spec = spec[:i]
	}

	var parts []string
	if strings.HasPrefix(spec, "[") {
		// [ipv6]:host:container
		end := strings.Index(spec, "]")
		if end < 0 {
			return fmt.Errorf("invalid port %q", s)
		}
		parts = strings.Split(strings.TrimPrefix(spec[end+1:], ":"), ":")
	} else {
		parts = strings.Split(spec, ":")
		if len(parts) == 3 {
			parts = parts[1:] // drop the ip
		}
	}

	switch len(parts) {
	case 1:
		return validatePortNumber(parts[0])
	case 2:
		if parts[0] != "" {
			if err := validatePortNumber(parts[0]); err != nil {
				return fmt.Errorf("invalid host port in %q: %w", s, err)
			}
		}
		if err := validatePortNumber(parts[1]); err != nil {
			return fmt.Errorf("invalid container port in %q: %w", s, err)
		}
		return nil
	default:
		return fmt.Errorf("invalid port %q", s)
	}
}

// validatePortNumber accepts a port or a range like 3000-3005.
func validatePortNumber(s string) error {
	lo, hi, isRange := strings.Cut(s, "-")
	if err := checkPort(lo); err != nil {
		return err
	}
	if isRange {
		if err := checkPort(hi); err != nil {
			return err
		}
		a, _ := strconv.Atoi(lo)
		b, _ := strconv.Atoi(hi)
		if a > b {
			return fmt.Errorf("port range %s is reversed", s)
		}
	}
	return nil
}

func checkPort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("port %q is not a number", s)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port %d out of range", n)
	}
	return nil
}
