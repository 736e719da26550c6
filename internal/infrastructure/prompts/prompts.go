// Package prompts serves the instruction texts handed to agents for each
// workflow phase.
package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed templates/*.md
var templatesFS embed.FS

// Library resolves prompts by name. Files in the override directory replace
// the embedded templates of the same name.
type Library struct {
	overrideDir string
}

// NewLibrary returns a library backed by the embedded templates. overrideDir
// may be empty.
func NewLibrary(overrideDir string) *Library {
	return &Library{overrideDir: overrideDir}
}

// Prompt returns the text of the named prompt.
func (l *Library) Prompt(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return "", fmt.Errorf("invalid prompt name %q", name)
	}

	if l.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(l.overrideDir, name+".md"))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read prompt override %s: %w", name, err)
		}
	}

	data, err := templatesFS.ReadFile("templates/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("prompt %s not found", name)
	}
	return string(data), nil
}

// Names lists the embedded prompts.
func (l *Library) Names() []string {
	entries, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}
