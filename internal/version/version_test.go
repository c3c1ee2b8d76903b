package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestStringShortensCommit(t *testing.T) {
	info := Info{Version: "1.2.3", GitCommit: "0123456789abcdef", BuildTime: "2026-01-01"}
	assert.Equal(t, "nerveanalyze 1.2.3 (0123456, built 2026-01-01)", info.String())
}
