package sequence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.jpg", true},
		{"a.JPG", true},
		{"b.jpeg", true},
		{"c.png", true},
		{"d.webp", true},
		{"e.bmp", true},
		{"f.GIF", true},
		{"g.txt", false},
		{"h.pdf", false},
		{"noext", false},
		{"dir/page.010.PNG", true},
	}
	for _, tt := range tests {
		if got := IsImageFile(tt.path); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNaturalSort(t *testing.T) {
	paths := []string{
		"page10.png",
		"page2.png",
		"Page1.png",
		"page002b.png",
		"cover.png",
		"page2a.png",
	}
	SortNatural(paths)

	want := []string{
		"cover.png",
		"Page1.png",
		"page2.png",
		"page2a.png",
		"page002b.png",
		"page10.png",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("natural order mismatch (-want +got):\n%s", diff)
	}
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2", "10", true},
		{"10", "2", false},
		{"a2", "a10", true},
		{"a", "b", true},
		{"A", "b", true},
		{"img", "img1", true},
		{"01", "1", false}, // equal values, longer string wins the tie
	}
	for _, tt := range tests {
		if got := NaturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("NaturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCollectDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"p10.jpg", "p2.jpg", "p1.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := CollectDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "p1.jpg"),
		filepath.Join(dir, "p2.jpg"),
		filepath.Join(dir, "p10.jpg"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CollectDir mismatch (-want +got):\n%s", diff)
	}

	if _, err := CollectDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("CollectDir on a missing directory succeeded")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(`vol<1>: "two"/three\|?*`); got != `vol_1__ _two__three____` {
		t.Errorf("SanitizeFilename = %q", got)
	}
	if got := SanitizeFilename("plain name.pdf"); got != "plain name.pdf" {
		t.Errorf("SanitizeFilename left plain name = %q", got)
	}
}

func TestSequenceEditing(t *testing.T) {
	s := &Sequence{Name: "vol1"}
	s.Add("a.png", "b.png", "c.png")

	s.Move(2, 0)
	if diff := cmp.Diff([]string{"c.png", "a.png", "b.png"}, s.Paths); diff != "" {
		t.Errorf("after Move (-want +got):\n%s", diff)
	}

	s.Remove(1)
	if diff := cmp.Diff([]string{"c.png", "b.png"}, s.Paths); diff != "" {
		t.Errorf("after Remove (-want +got):\n%s", diff)
	}

	// Out-of-range edits are no-ops.
	s.Remove(5)
	s.Move(-1, 1)
	s.Move(0, 9)
	if len(s.Paths) != 2 {
		t.Errorf("out-of-range edits changed the sequence: %v", s.Paths)
	}
}

func TestWithTail(t *testing.T) {
	s := &Sequence{Paths: []string{"a.png", "b.png"}}

	got := s.WithTail("tail.png")
	want := []string{"a.png", "b.png", "tail.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WithTail (-want +got):\n%s", diff)
	}
	if len(s.Paths) != 2 {
		t.Errorf("WithTail modified the sequence: %v", s.Paths)
	}

	got[0] = "mutated.png"
	if s.Paths[0] != "a.png" {
		t.Error("WithTail returned a slice aliasing the sequence")
	}

	if diff := cmp.Diff([]string{"a.png", "b.png"}, s.WithTail("")); diff != "" {
		t.Errorf("WithTail with empty tail (-want +got):\n%s", diff)
	}
}
