package controller

import (
	"sync"

	"github.com/anime-shed/notes-ai-go/internal/language"
	"github.com/anime-shed/notes-ai-go/internal/observer"
	"github.com/anime-shed/notes-ai-go/internal/vision"
)

// Registry owns one Controller per signed-in user. It lives as long as the
// application container.
type Registry struct {
	vision   vision.Adapter
	language language.Adapter
	events   observer.Subject

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(v vision.Adapter, l language.Adapter, events observer.Subject) *Registry {
	return &Registry{
		vision:      v,
		language:    l,
		events:      events,
		controllers: make(map[string]*Controller),
	}
}

// ForUser returns the user's controller, creating it on first use.
func (r *Registry) ForUser(userID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[userID]; ok {
		return c
	}
	c := New(r.vision, r.language, r.events, userID)
	r.controllers[userID] = c
	return c
}

// Drop discards the user's controller and its state.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.controllers, userID)
}

// Len reports how many controllers are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
