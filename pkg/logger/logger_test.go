package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBeforeSetup(t *testing.T) {
	// The package-level logger must be usable without Setup.
	assert.NotNil(t, Log)
	assert.NotPanics(t, func() {
		Warn("warn before setup", "key", "value")
		Info("info before setup")
		Error("error before setup")
		Debug("debug before setup")
	})
}

func TestSetupSwitchesHandler(t *testing.T) {
	Setup("production")
	assert.NotNil(t, Log)
	assert.NotPanics(t, func() { Info("after production setup") })

	Setup("development")
	assert.NotNil(t, Log)
	assert.NotPanics(t, func() { Info("after development setup") })
}
