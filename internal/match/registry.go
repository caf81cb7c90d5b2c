package match

// registry is the authoritative in-memory store of live engagements.
// It is not safe for concurrent use on its own; Service serializes access.
type registry struct {
	byID map[string]*Engagement
}

func newRegistry() *registry {
	return &registry{byID: map[string]*Engagement{}}
}

// hasActive reports whether the player appears in any current entry.
func (r *registry) hasActive(player int64) bool {
	return r.findByPlayer(player) != nil
}

func (r *registry) findByPlayer(player int64) *Engagement {
	for _, e := range r.byID {
		if e.Involves(player) {
			return e
		}
	}
	return nil
}

// insert adds e, refusing entries that would give either participant a
// second live engagement.
func (r *registry) insert(e *Engagement) error {
	if r.hasActive(e.Initiator) {
		return ErrDuplicateEngagement
	}
	if e.State == StateConfirmed && r.hasActive(e.Responder) {
		return ErrDuplicateEngagement
	}
	r.byID[e.ID] = e
	return nil
}

func (r *registry) get(id string) (*Engagement, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// remove is an idempotent no-op when id is absent.
func (r *registry) remove(id string) {
	delete(r.byID, id)
}

func (r *registry) all() []*Engagement {
	out := make([]*Engagement, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	return out
}
