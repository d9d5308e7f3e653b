package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withColorMode(t *testing.T, mode string) {
	t.Helper()
	orig := colorMode
	t.Cleanup(func() {
		colorMode = orig
		enableColors()
	})
	colorMode = mode
}

func TestApplyColorMode_Always(t *testing.T) {
	withColorMode(t, "always")

	disableColors()
	applyColorMode()

	assert.NotEmpty(t, colorRed, "always should enable colors even when auto would disable them")
	assert.NotEmpty(t, colorReset)
}

func TestApplyColorMode_Never(t *testing.T) {
	withColorMode(t, "never")

	enableColors()
	applyColorMode()

	assert.Empty(t, colorRed)
	assert.Empty(t, colorBold)
	assert.Empty(t, colorReset)
}

func TestApplyColorMode_AutoNoColor(t *testing.T) {
	withColorMode(t, "auto")
	t.Setenv("NO_COLOR", "1")

	enableColors()
	applyColorMode()

	assert.Empty(t, colorGreen)
}

func TestApplyColorMode_AutoDumbTerminal(t *testing.T) {
	withColorMode(t, "auto")
	t.Setenv("NO_COLOR", "")
	t.Setenv("TERM", "dumb")

	enableColors()
	applyColorMode()

	assert.Empty(t, colorCyan)
}

func TestOutputWidth_Columns(t *testing.T) {
	t.Setenv("COLUMNS", "73")

	// Under go test stdout is not a terminal, so COLUMNS decides.
	if termWidth() == 0 {
		assert.Equal(t, 73, outputWidth())
	}
}
