package stack

import (
	"strings"
	"testing"
)

func TestDerive_IsPure(t *testing.T) {
	ids := []string{"/a/plugins", "/home/dev/wp/plugins", "/a/plugins/tec-fix-issue-123", ""}

	for _, id := range ids {
		first := Derive(id)
		for i := 0; i < 5; i++ {
			if got := Derive(id); got != first {
				t.Fatalf("Derive(%q) not stable: %+v != %+v", id, got, first)
			}
		}
	}
}

func TestDerive_Values(t *testing.T) {
	// md5("/a/plugins") is computed once here so the expectation does not depend on Derive itself.
	id := "/a/plugins"
	h := Hash(id)

	if len(h) != 8 {
		t.Fatalf("expected 8 hex chars, got %q", h)
	}
	if strings.Trim(h, "0123456789abcdef") != "" {
		t.Fatalf("hash %q is not lowercase hex", h)
	}

	got := Derive(id)
	if got.XDebugKey != "slic_"+h {
		t.Errorf("XDebugKey = %q, want %q", got.XDebugKey, "slic_"+h)
	}
	if got.ProjectName != "slic_"+h {
		t.Errorf("ProjectName = %q, want %q", got.ProjectName, "slic_"+h)
	}
	if got.XDebugPort < XDebugPortBase || got.XDebugPort >= XDebugPortBase+XDebugPortSlots {
		t.Errorf("XDebugPort %d out of range", got.XDebugPort)
	}
}

func TestHash_KnownDigest(t *testing.T) {
	// md5("") = d41d8cd98f00b204e9800998ecf8427e
	if got := Hash(""); got != "d41d8cd9" {
		t.Errorf("Hash(\"\") = %q, want d41d8cd9", got)
	}

	// 0xd41d8cd9 = 3558706393; 3558706393 % 10000 = 6393
	if got := Derive("").XDebugPort; got != 49000+6393 {
		t.Errorf("XDebugPort = %d, want %d", got, 49000+6393)
	}
}

func TestStateFileName(t *testing.T) {
	if got := StateFileName(""); got != "d41d8cd9.env" {
		t.Errorf("StateFileName = %q", got)
	}
}
