package misc

import "testing"

func TestIdentity(t *testing.T) {
	if GetAppName() != "dphtml" {
		t.Errorf("GetAppName() = %q, want %q", GetAppName(), "dphtml")
	}
	if GetVersion() == "" {
		t.Error("GetVersion() returned empty string")
	}
	if GetGitHash() == "" {
		t.Error("GetGitHash() returned empty string")
	}
}

func TestGetGitHash_LinkerOverride(t *testing.T) {
	saved := gitHash
	t.Cleanup(func() { gitHash = saved })

	gitHash = "abc123"
	if got := GetGitHash(); got != "abc123" {
		t.Errorf("GetGitHash() = %q, want %q", got, "abc123")
	}
}
