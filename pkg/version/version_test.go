package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersion(t *testing.T) {
	full := GetFullVersion()

	assert.Contains(t, full, GetVersion())
	assert.Contains(t, full, "build: "+GetBuildID())
	assert.Contains(t, full, runtime.Version())
}
