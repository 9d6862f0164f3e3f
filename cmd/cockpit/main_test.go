package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retail-cockpit/cockpit/internal/app"
	_ "github.com/retail-cockpit/cockpit/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
