// Package sequence holds named ordered image lists and the file helpers
// shared by the CLI: supported-extension filtering, natural sort and
// directory collection.
package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".gif":  true,
}

// IsImageFile reports whether path has a supported image extension,
// case-insensitively.
func IsImageFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// NaturalLess compares two strings so that embedded digit runs order
// numerically: "page2" sorts before "page10". Non-digit runs compare
// case-insensitively.
func NaturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		aTok, aNum, aRest := nextToken(a)
		bTok, bNum, bRest := nextToken(b)

		if aNum && bNum {
			av := trimLeadingZeros(aTok)
			bv := trimLeadingZeros(bTok)
			if len(av) != len(bv) {
				return len(av) < len(bv)
			}
			if av != bv {
				return av < bv
			}
		} else {
			al := strings.ToLower(aTok)
			bl := strings.ToLower(bTok)
			if al != bl {
				// A digit run sorts before any non-digit run, matching the
				// tokenized comparison of the split-on-digits key.
				if aNum != bNum {
					return aNum
				}
				return al < bl
			}
		}
		a, b = aRest, bRest
	}
	return len(a) < len(b)
}

func nextToken(s string) (token string, isNum bool, rest string) {
	isNum = isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == isNum {
		i++
	}
	return s[:i], isNum, s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func trimLeadingZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}

// SortNatural sorts paths in natural order by base name.
func SortNatural(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return NaturalLess(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
}

// CollectDir returns the supported image files directly inside dir, in
// natural order. It does not recurse.
func CollectDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsImageFile(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	SortNatural(paths)
	return paths, nil
}

// FormatFileSize renders a byte count for display.
func FormatFileSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}

// SanitizeFilename replaces characters that are illegal in file names.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)
}

// Sequence is a named ordered group of images intended to become one output
// document. The zero value is usable.
type Sequence struct {
	Name  string
	Paths []string
}

// Add appends paths to the end of the sequence.
func (s *Sequence) Add(paths ...string) {
	s.Paths = append(s.Paths, paths...)
}

// Remove deletes the path at index i. Out-of-range indexes are ignored.
func (s *Sequence) Remove(i int) {
	if i < 0 || i >= len(s.Paths) {
		return
	}
	s.Paths = append(s.Paths[:i], s.Paths[i+1:]...)
}

// Move reorders the path at index from to index to, shifting the elements in
// between. Out-of-range indexes are ignored.
func (s *Sequence) Move(from, to int) {
	if from < 0 || from >= len(s.Paths) || to < 0 || to >= len(s.Paths) || from == to {
		return
	}
	p := s.Paths[from]
	s.Paths = append(s.Paths[:from], s.Paths[from+1:]...)
	s.Paths = append(s.Paths[:to], append([]string{p}, s.Paths[to:]...)...)
}

// WithTail returns a copy of the sequence's paths with the tail page
// appended, if one is set. The sequence itself is not modified.
func (s *Sequence) WithTail(tailPath string) []string {
	paths := make([]string, len(s.Paths), len(s.Paths)+1)
	copy(paths, s.Paths)
	if tailPath != "" {
		paths = append(paths, tailPath)
	}
	return paths
}
