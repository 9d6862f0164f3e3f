package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TestModeEnv switches the binaries into a no-op startup.
const TestModeEnv = "COCKPIT_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether the entry points should return before dialing
// Postgres, Redis or the data sources. The flag is read once and cached.
func InTestMode() bool {
	if on := testMode.Load(); on != nil {
		return *on
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the flag after environment changes. Any value
// strconv.ParseBool accepts is understood.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	testMode.Store(&on)
	return on
}
