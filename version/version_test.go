package version

import "testing"

func TestGetUsesLdflags(t *testing.T) {
	origVersion, origCommit, origTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = origVersion, origCommit, origTime })

	Version = "1.2.0"
	GitCommit = "abcdef0123"
	BuildTime = "2026-01-15T10:30:00Z"

	info := Get()
	if info.Version != "1.2.0" {
		t.Errorf("expected 1.2.0, got %q", info.Version)
	}
	if info.GitCommit != "abcdef0" {
		t.Errorf("expected commit truncated to abcdef0, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-15T10:30:00Z" {
		t.Errorf("unexpected build time %q", info.BuildTime)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
