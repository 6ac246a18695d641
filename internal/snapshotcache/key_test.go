package snapshotcache

import "testing"

func TestFingerprintNormalizeDefaultsAppliesDocumentedDefaults(t *testing.T) {
	fp := Fingerprint{SourceURL: "https://github.com/acme/demo"}
	fp = fp.NormalizeDefaults(false, false, false)
	if !fp.IncludeWorkspaces || !fp.Transform || !fp.TransformProjectSources {
		t.Fatalf("expected defaults applied, got %+v", fp)
	}
}

func TestFingerprintNormalizeDefaultsHonorsExplicitFalse(t *testing.T) {
	fp := Fingerprint{IncludeWorkspaces: false}
	fp = fp.NormalizeDefaults(true, true, true)
	if fp.IncludeWorkspaces {
		t.Fatal("explicit false for a set field should not be overridden")
	}
}

func TestCanonicalJSONIsStableAcrossFieldOrderChanges(t *testing.T) {
	a := Fingerprint{SourceURL: "u", Ref: "r", Subdir: "s"}
	b := Fingerprint{Subdir: "s", Ref: "r", SourceURL: "u"}
	if a.canonicalJSON() != b.canonicalJSON() {
		t.Fatal("expected canonical JSON independent of struct field order")
	}
}

func TestMutableRefClassification(t *testing.T) {
	cases := map[string]bool{
		"HEAD":                         true,
		"main":                         true,
		"v1.2.3":                       true,
		"a1b2c3d":                      false, // 7 hex chars
		"abcdef0123456789abcdef0123456789abcdef01": false,
	}
	for ref, wantMutable := range cases {
		if got := MutableRef(ref); got != wantMutable {
			t.Errorf("MutableRef(%q) = %v, want %v", ref, got, wantMutable)
		}
	}
}

func TestDefaultTTLPicksPinnedVsMutable(t *testing.T) {
	if DefaultTTL("main") != MutableTTL {
		t.Fatal("expected mutable TTL for branch ref")
	}
	if DefaultTTL("a1b2c3d") != PinnedTTL {
		t.Fatal("expected pinned TTL for commit-like ref")
	}
}
