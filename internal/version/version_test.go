package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = oldV, oldC, oldD
	})
}

func TestInfo(t *testing.T) {
	info := Info()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.String(), "tamarin "+Version)
}

func TestBuildInfoString(t *testing.T) {
	withVersion(t, "v1.2.0", "abcdef0123456789", "2024-01-01T00:00:00Z")

	s := Info().String()
	assert.Contains(t, s, "tamarin v1.2.0\n")
	assert.Contains(t, s, "git commit: abcdef0\n")
	assert.Contains(t, s, "build date: 2024-01-01T00:00:00Z")
	assert.NotContains(t, s, "dirty")
}

func TestBuildInfoStringDirty(t *testing.T) {
	withVersion(t, "v1.2.0", "abcdef0-dirty", unknownValue)

	s := Info().String()
	assert.Contains(t, s, "(dirty)")
	assert.NotContains(t, s, "build date")
}

func TestUserAgentAndAppID(t *testing.T) {
	withVersion(t, "v1.0.0+meta/x", unknownValue, unknownValue)
	assert.Equal(t, "tamarin/v1.0.0+meta/x", UserAgent())
	assert.Equal(t, "tamarin-v1.0.0metax", AppID())
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"dev", false},
		{"v1.0.0", true},
		{"v1.0.0-rc.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withVersion(t, tt.version, unknownValue, unknownValue)
			assert.Equal(t, tt.want, IsRelease())
		})
	}
}
