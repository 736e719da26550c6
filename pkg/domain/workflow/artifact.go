package workflow

import (
	"fmt"
	"strings"
	"time"
)

// ArtifactKind identifies a document produced by a phase.
type ArtifactKind string

const (
	ArtifactResearch ArtifactKind = "research"
	ArtifactPlan     ArtifactKind = "plan"
)

// ArtifactExtension is the file extension every artifact carries.
const ArtifactExtension = ".md"

// DateStampLayout is the date prefix of artifact filenames.
const DateStampLayout = "2006-01-02"

const maxSlugLength = 50

// Dir returns the artifact directory name under the docs directory.
func (k ArtifactKind) Dir() string {
	switch k {
	case ArtifactResearch:
		return "research"
	case ArtifactPlan:
		return "plans"
	default:
		return string(k)
	}
}

// Phase returns the phase that produces this artifact.
func (k ArtifactKind) Phase() Phase {
	switch k {
	case ArtifactResearch:
		return PhaseResearch
	case ArtifactPlan:
		return PhasePlan
	default:
		return ""
	}
}

func (k ArtifactKind) String() string {
	return string(k)
}

// DateStamp returns the UTC date prefix used for artifacts created at t.
func DateStamp(t time.Time) string {
	return t.UTC().Format(DateStampLayout)
}

// Slugify lowercases s, collapses every run of characters outside [a-z0-9]
// into a single '-', trims leading and trailing dashes and truncates the
// result to 50 bytes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug
}

// ArtifactFilename builds "YYYY-MM-DD[-<ticketID>]-<slug>.md".
func ArtifactFilename(t time.Time, ticketID, description string) string {
	ticketPart := ""
	if ticketID != "" {
		ticketPart = "-" + ticketID
	}
	return fmt.Sprintf("%s%s-%s%s", DateStamp(t), ticketPart, Slugify(description), ArtifactExtension)
}

// MatchesDiscovery reports whether name follows the artifact convention for
// the given date stamp.
func MatchesDiscovery(name, dateStamp string) bool {
	return strings.HasPrefix(name, dateStamp) && strings.HasSuffix(name, ArtifactExtension)
}
