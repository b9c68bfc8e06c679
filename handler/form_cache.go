package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// pendingForm carries what the slash command knew that the modal submit no
// longer sees: the resolved sample attachment, if one was given.
type pendingForm struct {
	SampleImageURL *string
	CreatedAt      time.Time
}

// FormCache stashes pending forms between the /yuri command and its modal
// submit, keyed by a uuid embedded in the modal's custom id. Entries that
// are never submitted are dropped by the janitor.
type FormCache struct {
	mu      sync.Mutex
	entries map[string]pendingForm
	ttl     time.Duration
}

const formCacheTTL = 15 * time.Minute

func NewFormCache() *FormCache {
	return &FormCache{
		entries: make(map[string]pendingForm),
		ttl:     formCacheTTL,
	}
}

// Put stores a pending form and returns its key.
func (c *FormCache) Put(sampleImageURL *string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New().String()
	c.entries[id] = pendingForm{
		SampleImageURL: sampleImageURL,
		CreatedAt:      time.Now(),
	}
	return id
}

// Take removes and returns the pending form for a key.
func (c *FormCache) Take(id string) (pendingForm, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	form, found := c.entries[id]
	if found {
		delete(c.entries, id)
	}
	return form, found
}

// Janitor drops abandoned entries until ctx is cancelled.
func (c *FormCache) Janitor(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		for id, form := range c.entries {
			if time.Since(form.CreatedAt) > c.ttl {
				delete(c.entries, id)
			}
		}
		c.mu.Unlock()
	}
}
