package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RealtimeEvent is an event pushed to connected workshop clients
type RealtimeEvent struct {
	Type       string    `json:"type"`
	WorkshopID uuid.UUID `json:"workshopId"`
	Data       any       `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
}

// Subscriber is one connected client
type Subscriber struct {
	ID         string
	WorkshopID uuid.UUID
	Channel    chan *RealtimeEvent
	Done       chan struct{}
}

// RealtimeService fans workshop events out to SSE subscribers
type RealtimeService struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

// NewRealtimeService creates a new realtime service
func NewRealtimeService() *RealtimeService {
	return &RealtimeService{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe registers a client for one workshop's events. The subscription
// is removed when the context ends or Unsubscribe is called.
func (s *RealtimeService) Subscribe(ctx context.Context, workshopID uuid.UUID) *Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Subscriber{
		ID:         uuid.New().String(),
		WorkshopID: workshopID,
		Channel:    make(chan *RealtimeEvent, 100),
		Done:       make(chan struct{}),
	}

	s.subscribers[sub.ID] = sub

	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe(sub.ID)
		case <-sub.Done:
		}
	}()

	return sub
}

// Unsubscribe removes a subscription
func (s *RealtimeService) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subscribers[id]; ok {
		close(sub.Done)
		close(sub.Channel)
		delete(s.subscribers, id)
	}
}

// Publish sends an event to every subscriber of the workshop. A subscriber
// whose buffer is full misses the event rather than blocking the publisher.
func (s *RealtimeService) Publish(ctx context.Context, workshopID uuid.UUID, eventType string, data any) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event := &RealtimeEvent{
		Type:       eventType,
		WorkshopID: workshopID,
		Data:       data,
		Timestamp:  time.Now(),
	}

	for _, sub := range s.subscribers {
		if sub.WorkshopID == workshopID {
			select {
			case sub.Channel <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of clients watching a workshop
func (s *RealtimeService) SubscriberCount(workshopID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sub := range s.subscribers {
		if sub.WorkshopID == workshopID {
			n++
		}
	}
	return n
}

// FormatSSE renders an event as a server-sent-events frame
func FormatSSE(event *RealtimeEvent) string {
	data, err := json.Marshal(event)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, data)
}
