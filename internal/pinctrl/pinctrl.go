// Package pinctrl wraps the Raspberry Pi pinctrl utility for pin reads and
// writes.
package pinctrl

import (
	"fmt"
	"os/exec"
	"strings"
)

// ReadLevel performs a fast read of the logic level of a pin using
// `pinctrl lev <pin>`.
func ReadLevel(pin int) (bool, error) {
	cmd := exec.Command("pinctrl", "lev", fmt.Sprint(pin))
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to read level for pin %d: %w", pin, err)
	}
	trimmed := strings.TrimSpace(string(out))
	switch trimmed {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected output from pinctrl lev: %q", trimmed)
	}
}

// SetPin applies one or more pinctrl set options to the specified GPIO pin.
// Example: SetPin(10, "op", "pn", "dh") sets pin 10 as output, no pull,
// drive high.
func SetPin(pin int, opts ...string) error {
	args := []string{"set", fmt.Sprint(pin)}
	args = append(args, opts...)
	cmd := exec.Command("pinctrl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pinctrl set failed: %s (output: %s)", err, string(out))
	}
	return nil
}
