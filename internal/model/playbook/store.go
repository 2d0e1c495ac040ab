package playbook

// Store exposes playbook retrieval for the agent responder.
type Store interface {
	List() []Playbook
	FindByTopic(topic string) (Playbook, bool)
}

// MemoryStore implements Store with an in-memory slice, suitable for the
// canned-reply responder.
type MemoryStore struct {
	items []Playbook
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied playbooks.
func NewMemoryStore(items []Playbook) *MemoryStore {
	return &MemoryStore{items: append([]Playbook(nil), items...)}
}

// List returns the configured playbooks.
func (s *MemoryStore) List() []Playbook {
	return append([]Playbook(nil), s.items...)
}

// FindByTopic looks up a playbook by its topic label.
func (s *MemoryStore) FindByTopic(topic string) (Playbook, bool) {
	for _, item := range s.items {
		if item.Topic == topic {
			return item, true
		}
	}
	return Playbook{}, false
}
