package checkout

import "sync"

type terminal struct {
	mu   sync.Mutex
	cart *Cart
}

// Registry hands out one cart per terminal. Calls for the same terminal run
// one at a time; different terminals do not block each other.
type Registry struct {
	mu        sync.Mutex
	terminals map[string]*terminal
}

func NewRegistry() *Registry {
	return &Registry{terminals: make(map[string]*terminal)}
}

func (r *Registry) get(id string) *terminal {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.terminals[id]
	if !ok {
		t = &terminal{cart: NewCart()}
		r.terminals[id] = t
	}
	return t
}

// WithCart runs fn holding the terminal's cart lock.
func (r *Registry) WithCart(terminalID string, fn func(*Cart) error) error {
	t := r.get(terminalID)
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.cart)
}
