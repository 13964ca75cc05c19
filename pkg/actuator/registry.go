package actuator

import "sync"

// Registry holds the fixed table of actuator channels. Channels are never
// added or removed after construction; only their current values change.
// All access goes through the registry's mutex so a gesture firing from an
// auto-repeat timer cannot interleave with a direct operator event.
type Registry struct {
	mu       sync.Mutex
	channels []*Channel
	index    map[string]*Channel
}

// NewRegistry builds the registry from the fixed channel table.
func NewRegistry() *Registry {
	table := channelTable()
	r := &Registry{
		channels: make([]*Channel, 0, len(table)),
		index:    make(map[string]*Channel, len(table)),
	}
	for i := range table {
		ch := table[i]
		r.channels = append(r.channels, &ch)
		r.index[ch.ID] = &ch
	}
	return r
}

// Get returns a copy of the channel, if it exists.
func (r *Registry) Get(id string) (Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.index[id]
	if !ok {
		return Channel{}, false
	}
	return *ch, true
}

// Snapshot returns copies of all channels in table order.
func (r *Registry) Snapshot() []Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Channel, len(r.channels))
	for i, ch := range r.channels {
		out[i] = *ch
	}
	return out
}

// IDs returns the ids of channels matching category and axis, in table
// order. A zero value matches everything.
func (r *Registry) IDs(category Category, axis Axis) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ch := range r.channels {
		if category != "" && ch.Category != category {
			continue
		}
		if axis != "" && ch.Axis != axis {
			continue
		}
		out = append(out, ch.ID)
	}
	return out
}

// setCurrent stores v as the channel's current value. False if unknown.
func (r *Registry) setCurrent(id string, v int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.index[id]
	if !ok {
		return false
	}
	ch.Current = v
	return true
}
