package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func TestCurrentPrefersBuildVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v1.2.3+dirty"
	t.Cleanup(func() { buildVersion = old })

	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected build version without dirty suffix, got %q", got)
	}
	if got := CurrentWithDirty(); got != "v1.2.3+dirty" {
		t.Fatalf("expected build version with dirty suffix, got %q", got)
	}
}

func TestPseudoFromBuildInfo(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: ts.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	got := pseudoFromBuildInfo(info)
	if wantPrefix := "v0.0.0-20250102030405-1234567890ab"; !strings.HasPrefix(got, wantPrefix) {
		t.Fatalf("unexpected version prefix: %q", got)
	}
	if !strings.HasSuffix(got, "+dirty") {
		t.Fatalf("expected dirty suffix, got %q", got)
	}
	if pseudoFromBuildInfo(nil) != "" {
		t.Fatalf("expected empty version for nil build info")
	}
}

func TestPseudoFromBuildInfoRequiresTime(t *testing.T) {
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}},
	}
	if got := pseudoFromBuildInfo(info); got != "" {
		t.Fatalf("expected empty version without vcs.time, got %q", got)
	}
}

func TestDescribe(t *testing.T) {
	old := buildVersion
	buildVersion = "v2.0.0"
	t.Cleanup(func() { buildVersion = old })

	info := Describe()
	if info.Version != "v2.0.0" {
		t.Fatalf("unexpected version %q", info.Version)
	}
	if info.Module == "" || !strings.HasPrefix(info.GoVersion, "go") {
		t.Fatalf("unexpected info %+v", info)
	}
}
