package chat

import "sync"

// conversationLocks serializes requests within one conversation so that two
// concurrent sends cannot interleave their turn appends. Distinct
// conversations do not contend. Entries are reference-counted and removed
// once the last holder releases, so the map does not grow with the number of
// conversations ever seen.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[string]*convLock)}
}

func (c *conversationLocks) lock(id string) {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &convLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
}

func (c *conversationLocks) unlock(id string) {
	c.mu.Lock()
	l := c.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(c.locks, id)
	}
	c.mu.Unlock()

	l.mu.Unlock()
}
