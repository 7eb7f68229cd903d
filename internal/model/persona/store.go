package persona

// Store exposes persona retrieval for the router and HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	FindByType(t AgentType) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the registered personas.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// FindByType looks up the persona serving an agent type.
func (s *MemoryStore) FindByType(t AgentType) (Persona, bool) {
	for _, item := range s.items {
		if item.Type == t {
			return item, true
		}
	}
	return Persona{}, false
}
