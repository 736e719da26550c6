// Package events defines the workflow transition history.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
)

// Event types recorded besides the phase machine events.
const (
	EventTypePlanApproved       = "plan_approved"
	EventTypePlanRejected       = "plan_rejected"
	EventTypeArtifactDiscovered = "artifact_discovered"
	EventTypeSynced             = "synced"
)

// Event is one entry in the transition history. Events are hash-chained so
// edits to the history file can be detected.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	From      workflow.Phase         `json:"from"`
	To        workflow.Phase         `json:"to"`
	TaskID    string                 `json:"task_id,omitempty"`
	Actor     string                 `json:"actor,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	PrevHash  string                 `json:"prev_hash,omitempty"`
	Hash      string                 `json:"hash,omitempty"`
}

// PhaseChanged reports whether the event moved the workflow to another phase.
func (e *Event) PhaseChanged() bool {
	return e.From != e.To
}

// CalculateHash generates a deterministic SHA256 hash of the event.
func (e *Event) CalculateHash() string {
	h := sha256.New()
	h.Write([]byte(e.PrevHash))
	h.Write([]byte(e.ID))
	h.Write([]byte(e.Timestamp.Format(time.RFC3339Nano)))
	h.Write([]byte(e.Type))
	h.Write([]byte(e.From))
	h.Write([]byte(e.To))
	h.Write([]byte(e.TaskID))
	h.Write([]byte(e.Actor))
	h.Write([]byte(canonicalJSON(e.Metadata)))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON produces a deterministic JSON representation.
func canonicalJSON(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valJSON, _ := json.Marshal(m[k])
		ordered = append(ordered, keyJSON...)
		ordered = append(ordered, ':')
		ordered = append(ordered, valJSON...)
	}
	ordered = append(ordered, '}')
	return string(ordered)
}
