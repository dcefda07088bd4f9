package extension

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Capabilities is the baseline set of primitives installed into every fresh
// execution context. Instances are isolated, so each one receives its own
// value; the defaults cover logging, OS access, string/sequence formatting,
// time and debug dumps.
type Capabilities struct {
	// Logf writes a diagnostic line on behalf of the running instance.
	Logf func(format string, args ...any)

	// Getenv resolves an environment variable.
	Getenv func(key string) string

	// Sprintf formats values without side effects.
	Sprintf func(format string, args ...any) string

	// Dump renders a value for debugging.
	Dump func(value any) string

	// Now reads the runtime clock.
	Now func() time.Time
}

// NewCapabilities returns the default capability set.
func NewCapabilities() *Capabilities {
	return &Capabilities{
		Logf:    log.Printf,
		Getenv:  os.Getenv,
		Sprintf: fmt.Sprintf,
		Dump:    func(value any) string { return fmt.Sprintf("%+v", value) },
		Now:     time.Now,
	}
}
