package notifier

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"playlist-api-go/logcolors"
)

const (
	// Default cooldown between alerts of the same type
	DefaultAlertCooldown = 15 * time.Minute
)

// AlertHandler handles events and sends notifications
type AlertHandler struct {
	notifiers        []Notifier
	cooldowns        map[EventType]time.Time // last alert time per event type
	cooldownDuration time.Duration
	mu               sync.RWMutex
}

// AlertConfig holds configuration for the alert handler
type AlertConfig struct {
	Notifiers        []Notifier
	CooldownDuration time.Duration
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(config AlertConfig) *AlertHandler {
	cooldown := config.CooldownDuration
	if cooldown == 0 {
		cooldown = DefaultAlertCooldown
	}

	return &AlertHandler{
		notifiers:        config.Notifiers,
		cooldowns:        make(map[EventType]time.Time),
		cooldownDuration: cooldown,
	}
}

// Start subscribes the handler to the event bus
func (h *AlertHandler) Start() {
	bus := GetEventBus()
	bus.SubscribeAll(h.handleEvent)
	log.Infof("%s Alert handler started (cooldown: %v, notifiers: %d)",
		logcolors.LogNotifier, h.cooldownDuration, len(h.notifiers))
}

// handleEvent processes incoming events
func (h *AlertHandler) handleEvent(event *Event) {
	if !h.shouldAlert(event.Type) {
		log.Debugf("%s Skipping alert for %s (cooldown active)", logcolors.LogNotifier, event.Type)
		return
	}

	subject, message := h.formatAlert(event)
	if subject == "" {
		return // Unknown event type
	}

	h.sendAlert(subject, message)
}

// shouldAlert checks if we should send an alert based on cooldown
func (h *AlertHandler) shouldAlert(eventType EventType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	lastAlert, exists := h.cooldowns[eventType]
	if !exists || time.Since(lastAlert) >= h.cooldownDuration {
		h.cooldowns[eventType] = time.Now()
		return true
	}
	return false
}

// formatAlert formats an event into a notification message
func (h *AlertHandler) formatAlert(event *Event) (subject, message string) {
	switch event.Type {
	case EventCircuitBreakerOpen:
		name := event.Data["name"].(string)
		cooldown := event.Data["cooldown"].(string)
		subject = "Circuit Breaker OPEN"
		message = fmt.Sprintf(
			"The %s circuit breaker has tripped.\n\n"+
				"Searches will return empty results for %s while the upstream recovers.\n\n"+
				"Action: check Spotify API status.",
			name, cooldown)

	case EventUpstreamDegraded:
		operation := event.Data["operation"].(string)
		errMsg := event.Data["error"].(string)
		subject = "Upstream API Degraded"
		message = fmt.Sprintf(
			"Operation %q is failing after retries.\n\n"+
				"Last error: %s",
			operation, errMsg)

	case EventServerStartupFailed:
		component := event.Data["component"].(string)
		errMsg := event.Data["error"].(string)
		subject = "Server Startup FAILED"
		message = fmt.Sprintf(
			"The server failed to start.\n\n"+
				"Component: %s\n"+
				"Error: %s",
			component, errMsg)

	case EventCircuitBreakerRecovered:
		name := event.Data["name"].(string)
		subject = "Circuit Breaker Recovered"
		message = fmt.Sprintf("The %s circuit breaker has recovered and is now operational.", name)

	case EventServerStarted:
		port := event.Data["port"].(string)
		subject = "Server Started"
		message = fmt.Sprintf("Server started successfully on port %s.", port)
	}

	return subject, message
}

// sendAlert delivers the notification through every configured notifier
func (h *AlertHandler) sendAlert(subject, message string) {
	for _, n := range h.notifiers {
		if err := n.Send(subject, message); err != nil {
			log.Errorf("%s Failed to send alert %q: %v", logcolors.LogNotifier, subject, err)
		}
	}
}
