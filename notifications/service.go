package notifications

import (
	"sync"
	"time"
)

// EventType represents the type of notification event
type EventType string

const (
	EventConnected        EventType = "connected"
	EventReviewsImported  EventType = "reviews-imported"
	EventSummaryGenerated EventType = "summary-generated"
)

// Event represents a notification event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	AppID     string    `json:"appId,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Service fans events out to stream subscribers
type Service struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// NewService creates a new notification service
func NewService() *Service {
	return &Service{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe creates a new subscription channel
// Returns the event channel and an unsubscribe function
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 10)

	s.mu.Lock()
	if s.closed {
		close(ch)
	} else {
		s.subscribers[ch] = struct{}{}
	}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// Only close if the channel is still in subscribers map
		if _, exists := s.subscribers[ch]; exists {
			delete(s.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe
}

// Notify broadcasts an event to all subscribers
func (s *Service) Notify(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip this subscriber
		}
	}
}

// NotifyReviewsImported sends a reviews-imported event
func (s *Service) NotifyReviewsImported(appID string, data any) {
	s.Notify(Event{Type: EventReviewsImported, AppID: appID, Data: data})
}

// NotifySummaryGenerated sends a summary-generated event
func (s *Service) NotifySummaryGenerated(appID string, data any) {
	s.Notify(Event{Type: EventSummaryGenerated, AppID: appID, Data: data})
}

// Shutdown closes every subscriber channel; later subscriptions are
// closed immediately.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Event]struct{})
}

// SubscriberCount returns the number of active subscribers
func (s *Service) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
