package sysinfo

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	info := Collect()

	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)

	if runtime.GOOS == "windows" {
		assert.Equal(t, "windows", info.Family)
	} else {
		assert.Equal(t, "unix", info.Family)
	}
}

func TestInfoJSONShape(t *testing.T) {
	raw, err := json.Marshal(Info{OS: "linux", Arch: "amd64", Family: "unix"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"os":"linux","arch":"amd64","family":"unix"}`, string(raw))
}
