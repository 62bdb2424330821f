package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplateUsesString(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.2.3", "abc1234", "2026-01-02T03:04:05Z"

	want := "version v1.2.3\ncommit: abc1234\nbuilt: 2026-01-02T03:04:05Z"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := Template(); got != "{{.Name}} "+want+"\n" {
		t.Errorf("Template() = %q", got)
	}
	if strings.Contains(String(), "{{") {
		t.Error("String() contains template actions")
	}
}
