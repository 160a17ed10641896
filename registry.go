package equipment

import (
	"github.com/MSLNZ/msl-equipment-sub004/internal/semantic"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
)

// registry maps equipment identifiers to where they were first seen. The
// first insertion wins and entries are never removed.
type registry struct {
	first map[string]Location
}

func newRegistry() *registry {
	return &registry{first: map[string]Location{}}
}

// reconcile merges ids into the registry. Every id already present is a
// duplicate that cites the first location.
func (r *registry) reconcile(ids []semantic.ID, sess *session.Session) {
	for _, id := range ids {
		prev, dup := r.first[id.Value]
		if !dup {
			r.first[id.Value] = id.Location
			continue
		}
		if sess.Stop() {
			continue
		}
		sess.Errorf(id.Location, CodeDuplicateID,
			"Duplicate equipment ID '%s' also found in %s, line %d", id.Value, prev.File, prev.Line)
	}
}
