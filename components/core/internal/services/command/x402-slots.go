package command

import (
	"sync"

	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/google/uuid"
)

// ResponseSlots holds the HTTP response slots kept open by the payment gate: one
// channel per in-flight x402 generation, resolved by the notification dispatcher.
type ResponseSlots struct {
	mu    sync.Mutex
	slots map[uuid.UUID]chan *mmodel.Generation
}

// NewResponseSlots builds an empty slot registry.
func NewResponseSlots() *ResponseSlots {
	return &ResponseSlots{
		slots: make(map[uuid.UUID]chan *mmodel.Generation),
	}
}

// Open registers a slot for the generation and returns the channel its terminal
// record will arrive on.
func (s *ResponseSlots) Open(generationID uuid.UUID) <-chan *mmodel.Generation {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *mmodel.Generation, 1)
	s.slots[generationID] = ch

	return ch
}

// Resolve hands the terminal record to the waiting slot, if one is still open.
// It reports whether a waiter was found.
func (s *ResponseSlots) Resolve(generationID uuid.UUID, gen *mmodel.Generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.slots[generationID]
	if !ok {
		return false
	}

	delete(s.slots, generationID)

	ch <- gen
	close(ch)

	return true
}

// Close abandons a slot after a timeout; a late Resolve becomes a no-op.
func (s *ResponseSlots) Close(generationID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, generationID)
}
