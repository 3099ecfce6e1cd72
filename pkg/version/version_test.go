package version_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/phpast/pkg/version"
)

func TestCurrent(t *testing.T) {
	t.Parallel()

	info := version.Current()

	assert.Equal(t, version.Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.GitHash)
	assert.Contains(t, info.String(), "phpast "+version.Version)
}
