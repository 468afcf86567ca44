package domain

import "time"

// Event represents an organizer-owned event with priced ticket tiers.
type Event struct {
	ID          string       `json:"id"`
	OrganizerID string       `json:"organizer_id"`
	Title       string       `json:"title"`
	IsTicketed  bool         `json:"is_ticketed"`
	Tickets     []TicketTier `json:"tickets"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TicketTier is a priced category of admission within an event. The tier
// id stays stable once bookings reference it; price and quantity may change.
type TicketTier struct {
	ID            string  `json:"id"`
	EventID       string  `json:"event_id"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price"`
	TotalQuantity int     `json:"total_quantity"`
	// SoldCount is the confirmed-consumption counter backing the atomic
	// capacity check. It only counts payment-settled bookings.
	SoldCount int `json:"sold_count"`
}

// Remaining returns the unsold capacity of the tier.
func (t *TicketTier) Remaining() int {
	remaining := t.TotalQuantity - t.SoldCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FindTicket returns the tier with the given id, or nil if the event
// has no such tier.
func (e *Event) FindTicket(ticketID string) *TicketTier {
	for i := range e.Tickets {
		if e.Tickets[i].ID == ticketID {
			return &e.Tickets[i]
		}
	}
	return nil
}
