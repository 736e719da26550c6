package watch

import (
	"path/filepath"
	"strings"
)

// Filter decides whether a changed path is worth a sync.
type Filter func(path string) bool

// scratchSuffixes are left behind by editors while a document is being saved.
var scratchSuffixes = []string{"~", ".swp", ".swx", ".tmp", ".part"}

// DocumentFilter accepts the markdown files discovery looks at and skips
// hidden files and editor scratch files. Atomic saves show up as a rename of a
// scratch file onto the document, so the document itself still passes.
func DocumentFilter() Filter {
	return func(path string) bool {
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") {
			return false
		}
		for _, suffix := range scratchSuffixes {
			if strings.HasSuffix(base, suffix) {
				return false
			}
		}
		return strings.EqualFold(filepath.Ext(base), ".md")
	}
}

// GlobFilter accepts base names matching any include glob and no exclude
// glob. An empty include list accepts everything not excluded.
func GlobFilter(include, exclude []string) Filter {
	return func(path string) bool {
		base := filepath.Base(path)
		for _, pattern := range exclude {
			if matched, _ := filepath.Match(pattern, base); matched {
				return false
			}
		}
		if len(include) == 0 {
			return true
		}
		for _, pattern := range include {
			if matched, _ := filepath.Match(pattern, base); matched {
				return true
			}
		}
		return false
	}
}
