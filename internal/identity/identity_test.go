package identity

import "testing";

func TestParseCanonicalURL(t *testing.T) {
	id, err := Parse("https://github.com/acme/demo")
	if err != nil {
		t.Fatal(err)
	}
	if id.Owner != "acme" || id.Repo != "demo" || id.Ref != "HEAD" {
		t.Fatalf("got %+v", id)
	}
	if id.ArchiveURL != "https://codeload.github.com/acme/demo/tar.gz/HEAD" {
		t.Fatalf("got %s", id.ArchiveURL)
	}
}

func TestParseGitPrefixed(t *testing.T) {
	id, err := Parse("git+https://github.com/acme/demo.git#v1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if id.Owner != "acme" || id.Repo != "demo" || id.Ref != "v1.2.3" {
		t.Fatalf("got %+v", id)
	}
}

func TestParseShorthand(t *testing.T) {
	id, err := Parse("acme/demo#main")
	if err != nil {
		t.Fatal(err)
	}
	if id.Owner != "acme" || id.Repo != "demo" || id.Ref != "main" {
		t.Fatalf("got %+v", id)
	}
}

func TestParseTreeSubdir(t *testing.T) {
	id, err := Parse("https://github.com/o/r/tree/main/examples/demo")
	if err != nil {
		t.Fatal(err)
	}
	if id.Ref != "main" || id.Subdir != "examples/demo" {
		t.Fatalf("got %+v", id)
	}
	if id.Owner != "o" || id.Repo != "r" {
		t.Fatalf("got %+v", id)
	}
}

func TestParseTreeNoRefSubdirDefaultsHead(t *testing.T) {
	id, err := Parse("https://github.com/o/r/tree")
	if err != nil {
		t.Fatal(err)
	}
	if id.Ref != "HEAD" || id.Subdir != "" {
		t.Fatalf("got %+v", id)
	}
}

func TestParseRejectsNonGitHubHost(t *testing.T) {
	_, err := Parse("https://gitlab.com/o/r")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse("   ")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRejectsSingleSegment(t *testing.T) {
	_, err := Parse("just-a-name")
	if err == nil {
		t.Fatal("expected error for single path segment")
	}
}

func TestMutableRef(t *testing.T) {
	cases := map[string]bool{
		"main":                         true,
		"HEAD":                         true,
		"v1.2.3":                       true,
		"a1b2c3d":                      false,
		"0123456789abcdef0123456789abcdef01234567": false,
	}
	for ref, want := range cases {
		if got := MutableRef(ref); got != want {
			t.Errorf("MutableRef(%q) = %v, want %v", ref, got, want)
		}
	}
}
