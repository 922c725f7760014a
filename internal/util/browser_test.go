package util

import "testing"

func TestLocalURL(t *testing.T) {
	t.Parallel()

	if got := LocalURL(20261); got != "http://localhost:20261" {
		t.Fatalf("LocalURL=%q", got)
	}
}

func TestBrowserCommands(t *testing.T) {
	t.Parallel()

	const url = "http://localhost:1"
	cases := []struct {
		goos  string
		first string
		n     int
	}{
		{"windows", "rundll32", 2},
		{"darwin", "open", 1},
		{"linux", "xdg-open", 5},
	}
	for _, tc := range cases {
		cmds := browserCommands(tc.goos, url)
		if len(cmds) != tc.n || cmds[0][0] != tc.first {
			t.Fatalf("%s: unexpected commands %v", tc.goos, cmds)
		}
		for _, c := range cmds {
			if c[len(c)-1] != url {
				t.Fatalf("%s: url not last arg in %v", tc.goos, c)
			}
		}
	}
}
