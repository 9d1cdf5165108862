package notify

import (
	"sync"

	"barter-trade-go/internal/models"
)

// Registry tracks live recipients. It replaces a bare shared session map with
// a lock-guarded structure; subscribers receive on buffered channels and slow
// consumers are skipped, never blocked on.
type Registry struct {
	mu   sync.RWMutex
	next int64
	subs map[int64]map[int64]chan models.Notification
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[int64]map[int64]chan models.Notification)}
}

// Subscribe registers a live channel for a recipient. The returned cancel
// function must be called when the consumer goes away.
func (r *Registry) Subscribe(recipientId int64) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, 16)

	r.mu.Lock()
	r.next++
	handle := r.next
	if r.subs[recipientId] == nil {
		r.subs[recipientId] = make(map[int64]chan models.Notification)
	}
	r.subs[recipientId][handle] = ch
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if chans, ok := r.subs[recipientId]; ok {
			if c, ok := chans[handle]; ok {
				delete(chans, handle)
				close(c)
			}
			if len(chans) == 0 {
				delete(r.subs, recipientId)
			}
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers to every live channel of the recipient without blocking.
func (r *Registry) Publish(n models.Notification) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs[n.RecipientId] {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribers returns the number of live channels for a recipient.
func (r *Registry) Subscribers(recipientId int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[recipientId])
}
