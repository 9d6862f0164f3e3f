// Package guard switches the binaries into test mode when imported by a
// test, so calling main does not dial Postgres or Redis.
package guard

import (
	"os"

	"github.com/retail-cockpit/cockpit/internal/app"
)

func init() {
	if os.Getenv(app.TestModeEnv) == "" {
		_ = os.Setenv(app.TestModeEnv, "1")
	}
	app.RefreshTestMode()
}
