package session

import "sync"

// notifier is an in-process pub/sub for state changes. Sends never
// block: a subscriber that falls behind misses updates and catches up
// from the next one.
type notifier struct {
	mu   sync.RWMutex
	subs map[chan State]struct{}
}

func newNotifier() *notifier {
	return &notifier{
		subs: make(map[chan State]struct{}),
	}
}

func (n *notifier) subscribe() chan State {
	ch := make(chan State, 16)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan State) {
	n.mu.Lock()
	delete(n.subs, ch)
	n.mu.Unlock()
}

func (n *notifier) publish(st State) {
	n.mu.RLock()
	for ch := range n.subs {
		select {
		case ch <- st:
		default:
			// Drop if subscriber is slow.
		}
	}
	n.mu.RUnlock()
}
