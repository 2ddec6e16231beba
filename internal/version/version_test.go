package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRelease(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.2.0", true},
		{"v0.3.1", true},
		{"0.0.0-dev", false},
		{"1.0.0+dev", false},
		{"1.0.0-rc.1", false},
		{"not-a-version", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRelease(tt.version), tt.version)
	}
}

func TestGetCurrentVersion(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "1.4.0"

	assert.Equal(t, "1.4.0+dev", GetCurrentVersion("dev"))
	assert.Equal(t, "1.4.0", GetCurrentVersion("prod"))
}
