package vfs

import "testing"

func TestSplitKnownPrefixes(t *testing.T) {
	cases := []struct {
		in       string
		wantPfx  Prefix
		wantRest string
	}{
		{"/Root/textures/rock.tex", PrefixRoot, "textures/rock.tex"},
		{"/FS/tmp/scratch.bin", PrefixFS, "tmp/scratch.bin"},
		{"/Embedded/shaders/lit.spv", PrefixEmbedded, "shaders/lit.spv"},
		{"weird://nonsense", PrefixUnknown, ""},
	}
	for _, c := range cases {
		pfx, rest := Split(c.in)
		if pfx != c.wantPfx || rest != c.wantRest {
			t.Errorf("Split(%q) = (%v, %q), want (%v, %q)", c.in, pfx, rest, c.wantPfx, c.wantRest)
		}
	}
}

func TestSplitTruncatesAtSubResourceSelector(t *testing.T) {
	pfx, rest := Split("/Root/mesh.fbx#armature")
	if pfx != PrefixRoot || rest != "mesh.fbx" {
		t.Errorf("Split with selector = (%v, %q), want (PrefixRoot, \"mesh.fbx\")", pfx, rest)
	}
}
