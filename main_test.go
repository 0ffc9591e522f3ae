// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type session struct {
	t    *testing.T
	root string
}

func newSession(t *testing.T) *session {
	t.Helper()
	t.Setenv("HUFFBIN_STORE", filepath.Join(t.TempDir(), "store"))
	t.Setenv("HUFFBIN_JOBS", "")
	return &session{t: t, root: t.TempDir()}
}

func (s *session) path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

func (s *session) write(name, content string) string {
	s.t.Helper()
	p := s.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		s.t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		s.t.Fatal(err)
	}
	return p
}

func (s *session) read(name string) string {
	s.t.Helper()
	b, err := os.ReadFile(s.path(name))
	if err != nil {
		s.t.Fatal(err)
	}
	return string(b)
}

// run invokes the command line and returns its exit status and output.
func (s *session) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (s *session) mustRun(args ...string) string {
	s.t.Helper()
	code, stdout, stderr := s.run(args...)
	if code != 0 {
		s.t.Fatalf("%q exited %d: %s", args, code, stderr)
	}
	return stdout
}

func TestRoundTripGlob(t *testing.T) {
	s := newSession(t)
	texts := map[string]string{
		"a.txt":          "abracadabra, said the magician",
		"sub/b.txt":      strings.Repeat("mississippi ", 50),
		"sub/deep/c.txt": "",
	}
	for name, text := range texts {
		s.write(filepath.Join("in", name), text)
	}
	s.write("in/skip.dat", "not a text file")

	out := s.mustRun("compress", "-o", s.path("packed"), s.path("in", "**", "*.txt"))
	if n := strings.Count(out, "Successfully compressed"); n != 3 {
		t.Errorf("%d files reported:\n%s", n, out)
	}
	if !strings.Contains(out, "b.txt by ") {
		t.Errorf("no ratio reported:\n%s", out)
	}

	s.mustRun("decompress", "-o", s.path("unpacked"), s.path("packed", "*-compressed.bin"))
	for name, text := range texts {
		got := s.read(filepath.Join("unpacked", strings.TrimSuffix(filepath.Base(name), ".txt")+"-uncompressed.txt"))
		if got != text {
			t.Errorf("%s came back as %q", name, got)
		}
	}
}

func TestDirectoryArgument(t *testing.T) {
	s := newSession(t)
	s.write("in/x.txt", "xxxxy")
	s.write("in/more/y.txt", "yyyyx")

	out := s.mustRun("compress", "-header", "freqs", "-o", s.path("packed"), s.path("in"))
	if n := strings.Count(out, "Successfully compressed"); n != 2 {
		t.Errorf("%d files reported:\n%s", n, out)
	}
	s.mustRun("decompress", "-header", "freqs", "-o", s.path("packed"), s.path("packed"))
	if got := s.read("packed/y-uncompressed.txt"); got != "yyyyx" {
		t.Errorf("got %q", got)
	}
}

func TestTables(t *testing.T) {
	s := newSession(t)
	s.write("one.txt", "the rain in spain falls mainly on the plain")
	s.write("two.txt", "the plain rain in spain")

	out := s.mustRun("compress", "-save-table", "spain", "-write-table", s.path("one.txt"))
	if !strings.Contains(out, "Saved table spain") {
		t.Errorf("no save reported:\n%s", out)
	}
	if _, err := os.Stat(s.path("one-encoder.tbl")); err != nil {
		t.Error(err)
	}

	s.mustRun("compress", "-table", "spain", s.path("two.txt"))
	s.mustRun("decompress", "-o", s.path("out"), s.path("two-compressed.bin"))
	// every symbol of two.txt also appears in one.txt
	if got := s.read("out/two-uncompressed.txt"); got != "the plain rain in spain" {
		t.Errorf("got %q", got)
	}

	// the table file works as well as the stored name
	s.mustRun("compress", "-f", "-table", s.path("one-encoder.tbl"), s.path("two.txt"))

	list := s.mustRun("tables", "list")
	if !strings.Contains(list, "spain") {
		t.Errorf("list lacks the table:\n%s", list)
	}
	show := s.mustRun("tables", "show", "spain")
	if !strings.Contains(show, "' '") {
		t.Errorf("show lacks the space symbol:\n%s", show)
	}

	s.mustRun("tables", "export", "spain", s.path("spain.tbl"))
	s.mustRun("tables", "import", "copy", s.path("spain.tbl"))
	s.mustRun("tables", "rm", "spain")
	list = s.mustRun("tables", "list")
	lines := strings.Split(strings.TrimSpace(list), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "copy ") {
		t.Errorf("after rm and import:\n%s", list)
	}

	if code, _, _ := s.run("tables", "show", "spain"); code != exitFail {
		t.Errorf("showing a removed table exited %d", code)
	}
}

func TestFallbackWarning(t *testing.T) {
	s := newSession(t)
	s.write("small.txt", "aab")
	s.write("other.txt", "abc")
	s.mustRun("compress", "-save-table", "ab", s.path("small.txt"))

	code, _, stderr := s.run("compress", "-table", "ab", s.path("other.txt"))
	if code != 0 {
		t.Fatalf("exited %d: %s", code, stderr)
	}
	if !strings.Contains(stderr, "fallbackSubstituted") {
		t.Errorf("no warning logged:\n%s", stderr)
	}
	s.mustRun("decompress", "-o", s.path("out"), s.path("other-compressed.bin"))
	if got := s.read("out/other-uncompressed.txt"); got != "ab_" {
		t.Errorf("got %q", got)
	}
}

func TestFailures(t *testing.T) {
	s := newSession(t)
	good := s.write("good.txt", "hello")
	s.mustRun("compress", good)
	s.mustRun("compress", "-header", "freqs", s.write("freqs.txt", "hello"))

	cases := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{"no command", nil, exitUsage, "usage"},
		{"unknown command", []string{"squash"}, exitUsage, "unknown command"},
		{"bad header flag", []string{"compress", "-header", "auto", good}, exitUsage, "unknown header format"},
		{"no inputs", []string{"compress"}, exitUsage, "no input files"},
		{"glob without matches", []string{"compress", s.path("*.nothing")}, exitUsage, "no files match"},
		{"missing input", []string{"compress", s.path("missing.txt")}, exitFail, "Failed to compress"},
		{"existing output", []string{"compress", good}, exitFail, "use -f"},
		{"wrong header format", []string{"decompress", s.path("freqs-compressed.bin")}, exitFail, "different -header"},
		{"not compressed", []string{"decompress", good}, exitFail, "Failed to decompress"},
		{"missing table", []string{"compress", "-f", "-table", "nothing", good}, exitFail, "no such table"},
		{"save-table with many", []string{"compress", "-save-table", "x", good, good}, exitUsage, "-save-table"},
		{"tables arity", []string{"tables", "show"}, exitUsage, "usage"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, _, stderr := s.run(c.args...)
			if code != c.code {
				t.Errorf("exited %d, want %d: %s", code, c.code, stderr)
			}
			if !strings.Contains(stderr, c.stderr) {
				t.Errorf("stderr lacks %q:\n%s", c.stderr, stderr)
			}
		})
	}
}

func TestPartialFailure(t *testing.T) {
	s := newSession(t)
	good := s.write("good.txt", "fine")
	code, stdout, stderr := s.run("compress", good, s.path("missing.txt"))
	if code != exitFail {
		t.Errorf("exited %d", code)
	}
	if !strings.Contains(stdout, "Successfully compressed "+good) || !strings.Contains(stderr, "missing.txt") {
		t.Errorf("stdout:\n%s\nstderr:\n%s", stdout, stderr)
	}
}

func TestConfig(t *testing.T) {
	t.Setenv("HUFFBIN_STORE", "/somewhere")
	t.Setenv("HUFFBIN_JOBS", "3")
	c, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if c.store != "/somewhere" || c.jobs != 3 {
		t.Errorf("got %+v", c)
	}

	for _, bad := range []string{"0", "-2", "many"} {
		t.Setenv("HUFFBIN_JOBS", bad)
		if _, err := loadConfig(); err == nil {
			t.Errorf("HUFFBIN_JOBS=%s accepted", bad)
		}
		if code, _, _ := (&session{t: t}).run("tables", "list"); code != exitUsage {
			t.Errorf("HUFFBIN_JOBS=%s: exited %d", bad, code)
		}
	}
}

func TestExpandKeepsOrder(t *testing.T) {
	s := newSession(t)
	for _, n := range []string{"b.txt", "a.txt", "c.md"} {
		s.write(n, n)
	}
	got, err := expand([]string{s.path("c.md"), s.path("*.txt"), s.path("zz.txt")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{s.path("c.md"), s.path("a.txt"), s.path("b.txt"), s.path("zz.txt")}
	if !slices.Equal(got, want) {
		t.Errorf("got %q want %q", got, want)
	}
}
