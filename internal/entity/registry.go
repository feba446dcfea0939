package entity

import (
	"sort"
	"sync"

	"github.com/voxsat/satellite/internal/proto"
)

// Registry holds every entity the satellite exposes and dispatches
// ListEntities/command traffic to them. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entities map[uint32]Entity
	order    []uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[uint32]Entity)}
}

// Register adds e, keyed by e.Key(). Registering the same key twice
// replaces the previous entity.
func (r *Registry) Register(e Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[e.Key()]; !exists {
		r.order = append(r.order, e.Key())
	}
	r.entities[e.Key()] = e
}

// Get returns the entity registered under key, if any.
func (r *Registry) Get(key uint32) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[key]
	return e, ok
}

// List returns every registered entity in registration order.
func (r *Registry) List() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entities[k])
	}
	return out
}

// DescribeAll returns the ListEntities* response for every entity,
// followed by a terminating ListEntitiesDoneResponse.
func (r *Registry) DescribeAll() []struct {
	Type    proto.MsgType
	Payload []byte
} {
	entities := r.List()
	out := make([]struct {
		Type    proto.MsgType
		Payload []byte
	}, 0, len(entities)+1)
	for _, e := range entities {
		t, p := e.Describe()
		out = append(out, struct {
			Type    proto.MsgType
			Payload []byte
		}{t, p})
	}
	out = append(out, struct {
		Type    proto.MsgType
		Payload []byte
	}{proto.MsgListEntitiesDoneResponse, nil})
	return out
}

// Dispatch routes an incoming command message to every entity until
// one claims it (by key match). It returns false if no entity claimed
// it, whether because no entity recognized the message type or because
// no entity has the command's key.
func (r *Registry) Dispatch(msgType proto.MsgType, payload []byte) (handled bool, err error) {
	entities := r.List()
	sort.Slice(entities, func(i, j int) bool { return entities[i].Key() < entities[j].Key() })
	for _, e := range entities {
		h, err := e.HandleCommand(msgType, payload)
		if err != nil {
			return true, err
		}
		if h {
			return true, nil
		}
	}
	return false, nil
}
