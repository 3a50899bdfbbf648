package cli

import (
	"testing"

	"go.uber.org/goleak"
)

// TestPackageLeaks runs goleak verification for the entire package
func TestPackageLeaks(t *testing.T) {
	defer goleak.VerifyNone(t,
		// Ignore known goroutines that are not leaks
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)

	// This test verifies that no goroutines are leaked
	// It will automatically run with other tests and detect any leaks
}
