package repository

import (
	"context"
	"sync"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

// MemoryEventRepository implements EventCatalog using in-memory storage.
// Useful for testing and development.
type MemoryEventRepository struct {
	events map[string]*domain.Event
	mu     sync.RWMutex
}

// NewMemoryEventRepository creates a new in-memory event catalog
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[string]*domain.Event),
	}
}

// Add stores an event (for testing and seeding)
func (r *MemoryEventRepository) Add(event *domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := *event
	e.Tickets = append([]domain.TicketTier(nil), event.Tickets...)
	r.events[event.ID] = &e
}

// GetEvent retrieves an event with its ticket tiers
func (r *MemoryEventRepository) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, domain.ErrEventNotFound
	}

	e := *event
	e.Tickets = append([]domain.TicketTier(nil), event.Tickets...)
	return &e, nil
}

// GetTicket retrieves a single ticket tier of an event
func (r *MemoryEventRepository) GetTicket(ctx context.Context, eventID, ticketID string) (*domain.TicketTier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[eventID]
	if !exists {
		return nil, domain.ErrEventNotFound
	}

	for i := range event.Tickets {
		if event.Tickets[i].ID == ticketID {
			tier := event.Tickets[i]
			return &tier, nil
		}
	}
	return nil, domain.ErrTicketNotFound
}

// consume atomically commits capacity on a tier. Returns the tier's
// event id and a SoldOutError when the cap would be exceeded.
func (r *MemoryEventRepository) consume(ticketID string, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.events {
		for i := range event.Tickets {
			tier := &event.Tickets[i]
			if tier.ID != ticketID {
				continue
			}
			if tier.SoldCount+count > tier.TotalQuantity {
				return &domain.SoldOutError{
					EventID:   event.ID,
					TicketID:  ticketID,
					Requested: count,
					Available: tier.Remaining(),
				}
			}
			tier.SoldCount += count
			return nil
		}
	}
	return domain.ErrTicketNotFound
}

// Clear clears all data (for testing)
func (r *MemoryEventRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make(map[string]*domain.Event)
}

// Ensure MemoryEventRepository implements EventCatalog
var _ EventCatalog = (*MemoryEventRepository)(nil)
