package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/aidledger/backend/internal/domain/shared"
)

// ErrUnknownEventType is returned for event types the serializer was never told about.
var ErrUnknownEventType = errors.New("unknown event type")

// EventSerializer turns ledger events into the JSON payload written to the
// audit trail, and rebuilds them from a payload plus its event type.
// Only registered events are encoded, so everything in the trail can be replayed.
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: make(map[string]reflect.Type)}
}

// Register binds eventType to the concrete struct behind sample.
// Binding one name to two different structs is a wiring bug and panics.
func (s *EventSerializer) Register(eventType string, sample shared.DomainEvent) {
	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.types[eventType]; ok && existing != t {
		panic(fmt.Sprintf("event type %s already bound to %s", eventType, existing))
	}
	s.types[eventType] = t
}

func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if !s.IsRegistered(event.EventType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, event.EventType())
	}
	return json.Marshal(event)
}

func (s *EventSerializer) Deserialize(eventType string, payload []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	target := reflect.New(t).Interface()
	if err := json.Unmarshal(payload, target); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
	}
	event, ok := target.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s is registered with a type that is not a domain event", eventType)
	}
	return event, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[eventType]
	return ok
}

// RegisteredTypes lists the bound event types in name order.
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
