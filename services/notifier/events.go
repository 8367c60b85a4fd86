package notifier

import (
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Critical events
	EventCircuitBreakerOpen  EventType = "circuit_breaker_open"
	EventUpstreamDegraded    EventType = "upstream_degraded"
	EventServerStartupFailed EventType = "server_startup_failed"

	// Info events
	EventCircuitBreakerRecovered EventType = "circuit_breaker_recovered"
	EventServerStarted           EventType = "server_started"
)

// Severity represents the severity level of an event
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Event represents a system event
type Event struct {
	Type      EventType
	Severity  Severity
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, severity Severity, message string) *Event {
	return &Event{
		Type:      eventType,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// WithData adds data to the event (chainable)
func (e *Event) WithData(key string, value interface{}) *Event {
	e.Data[key] = value
	return e
}

// EventHandler is a function that handles events
type EventHandler func(event *Event)

// EventBus manages event publishing and subscription
type EventBus struct {
	handlers    map[EventType][]EventHandler
	allHandlers []EventHandler // handlers that receive all events
	mu          sync.RWMutex
}

// Global event bus instance
var globalBus *EventBus
var busOnce sync.Once

// GetEventBus returns the global event bus instance
func GetEventBus() *EventBus {
	busOnce.Do(func() {
		globalBus = &EventBus{
			handlers:    make(map[EventType][]EventHandler),
			allHandlers: make([]EventHandler, 0),
		}
	})
	return globalBus
}

// Subscribe adds a handler for a specific event type
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll adds a handler that receives all events
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Publish sends an event to all subscribed handlers
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Call specific handlers
	if handlers, ok := b.handlers[event.Type]; ok {
		for _, handler := range handlers {
			go handler(event)
		}
	}

	// Call handlers subscribed to all events
	for _, handler := range b.allHandlers {
		go handler(event)
	}
}

// Helper functions for publishing common events

// PublishCircuitBreakerOpen publishes a circuit breaker open event
func PublishCircuitBreakerOpen(name string, cooldown time.Duration) {
	event := NewEvent(EventCircuitBreakerOpen, SeverityCritical,
		"Circuit breaker has opened; search is degraded to empty results").
		WithData("name", name).
		WithData("cooldown", cooldown.String())
	GetEventBus().Publish(event)
}

// PublishCircuitBreakerRecovered publishes a circuit breaker recovery event
func PublishCircuitBreakerRecovered(name string) {
	event := NewEvent(EventCircuitBreakerRecovered, SeverityInfo,
		"Circuit breaker has recovered and is operational").
		WithData("name", name)
	GetEventBus().Publish(event)
}

// PublishUpstreamDegraded publishes a warning about repeated upstream errors
func PublishUpstreamDegraded(operation string, err error) {
	event := NewEvent(EventUpstreamDegraded, SeverityWarning,
		"Upstream API calls are failing after retries").
		WithData("operation", operation).
		WithData("error", err.Error())
	GetEventBus().Publish(event)
}

// PublishServerStartupFailed publishes a fatal startup failure event
func PublishServerStartupFailed(component string, err error) {
	event := NewEvent(EventServerStartupFailed, SeverityCritical,
		"Server failed to start").
		WithData("component", component).
		WithData("error", err.Error())
	GetEventBus().Publish(event)
}

// PublishServerStarted publishes a server startup event
func PublishServerStarted(port string) {
	event := NewEvent(EventServerStarted, SeverityInfo,
		"Server started successfully").
		WithData("port", port)
	GetEventBus().Publish(event)
}
