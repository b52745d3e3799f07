package toolcall

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Emission is a tool-call payload as it arrived from the model, before any
// validation. Args may be a structured mapping, an encoded string, or junk.
type Emission struct {
	ID   string
	Name string
	Args any
}

// Repairer validates tool-call emissions and salvages the coercible ones.
// It runs at most once per emission and never loops.
type Repairer struct {
	mu    sync.RWMutex
	known map[string]bool
}

func NewRepairer(names []string) *Repairer {
	r := &Repairer{known: make(map[string]bool)}
	r.SetKnownTools(names)
	return r
}

// SetKnownTools replaces the recognized tool-name set, usually from a fresh
// tools/list response.
func (r *Repairer) SetKnownTools(names []string) {
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	r.mu.Lock()
	r.known = known
	r.mu.Unlock()
}

func (r *Repairer) recognized(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.known[name]
}

// Repair checks an emission and returns a runnable call, or ok=false when
// the emission must be dropped. Order: unrecognized name drops immediately;
// a malformed argument payload gets exactly one coercion attempt; anything
// else drops as the conservative default.
func (r *Repairer) Repair(em Emission) (Call, bool) {
	if !r.recognized(em.Name) {
		slog.Debug("dropping tool call with unrecognized name", "tool", em.Name)
		return Call{}, false
	}

	if args, ok := em.Args.(map[string]any); ok {
		return Call{ID: em.ID, Name: em.Name, Args: args}, true
	}

	// One coercion attempt: the payload may be an encoded-string form,
	// possibly wrapping the real name/args pair.
	decoded, ok := decodeArgs(em.Args)
	if !ok {
		slog.Debug("dropping uncoercible tool call", "tool", em.Name)
		return Call{}, false
	}

	if name, args, ok := splitWrapper(decoded); ok && r.recognized(name) {
		return Call{ID: em.ID, Name: name, Args: args}, true
	}

	// Not a usable wrapper: the mapping is bare args for the emission's
	// own (already recognized) name.
	return Call{ID: em.ID, Name: em.Name, Args: decoded}, true
}

// decodeArgs recovers a structured mapping from an encoded-string payload.
func decodeArgs(v any) (map[string]any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// splitWrapper detects a {name, arguments} wrapper around the real pair. A
// mapping without an argument sub-object is bare args, even when it carries
// a "name" key of its own.
func splitWrapper(m map[string]any) (string, map[string]any, bool) {
	name, _ := m["name"].(string)
	if name == "" {
		return "", nil, false
	}
	if args, ok := m["arguments"].(map[string]any); ok {
		return name, args, true
	}
	if args, ok := m["args"].(map[string]any); ok {
		return name, args, true
	}
	return "", nil, false
}
