package version

import (
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	origVersion, origBuildTime := Version, BuildTime
	defer func() { Version, BuildTime = origVersion, origBuildTime }()

	Version = "0.2.0"
	BuildTime = "2026-01-15T10:30:00Z"

	info := Get()
	if info.Version != "0.2.0" {
		t.Errorf("expected version '0.2.0', got %q", info.Version)
	}
	want := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	if !info.BuildDate.Equal(want) {
		t.Errorf("expected build date %v, got %v", want, info.BuildDate)
	}
	if info.GoVersion == "" {
		t.Error("expected go version from build info")
	}
}

func TestGetIgnoresBadBuildTime(t *testing.T) {
	origBuildTime := BuildTime
	defer func() { BuildTime = origBuildTime }()
	BuildTime = "yesterday"

	// Must not panic; the date may still come from VCS settings.
	_ = Get()
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "0.2.0", Commit: "1a2b3c4"}, "0.2.0-1a2b3c4"},
		{Info{Version: "dev", Commit: "1a2b3c4", Dirty: true}, "dev-1a2b3c4-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.String(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestInfoFields(t *testing.T) {
	info := Info{Version: "0.2.0", GoVersion: "go1.26.0"}
	f := info.Fields()
	if f["version"] != "0.2.0" {
		t.Errorf("unexpected version field %v", f["version"])
	}
	if _, ok := f["build_date"]; ok {
		t.Error("expected no build_date for a zero date")
	}

	info.BuildDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if info.Fields()["build_date"] != "2026-01-15T00:00:00Z" {
		t.Errorf("unexpected build_date %v", info.Fields()["build_date"])
	}
}
