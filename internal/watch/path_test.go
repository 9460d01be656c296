package watch

import "testing"

func TestToVaultRelPath_AbsolutePathInsideVault(t *testing.T) {
	rel, ok := toVaultRelPath("/vault", "/vault/a/b.md")
	if !ok || rel != "a/b.md" {
		t.Fatalf("got (%q, %v), want (a/b.md, true)", rel, ok)
	}
}

func TestToVaultRelPath_AbsolutePathOutsideVault(t *testing.T) {
	_, ok := toVaultRelPath("/vault", "/other/a.md")
	if ok {
		t.Fatal("expected path outside vault to be rejected")
	}
}

func TestToVaultRelPath_RelativePath(t *testing.T) {
	rel, ok := toVaultRelPath("/vault", "a/b.md")
	if !ok || rel != "a/b.md" {
		t.Fatalf("got (%q, %v), want (a/b.md, true)", rel, ok)
	}
}

func TestToVaultRelPath_ParentTraversalRejected(t *testing.T) {
	_, ok := toVaultRelPath("/vault", "../outside.md")
	if ok {
		t.Fatal("expected parent traversal to be rejected")
	}
}

func TestToVaultRelPath_RootItselfRejected(t *testing.T) {
	_, ok := toVaultRelPath("/vault", "/vault")
	if ok {
		t.Fatal("expected the vault root itself to produce no rel path")
	}
}
