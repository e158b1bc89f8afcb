package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/greenstack-labs/envmon-controller/internal/env"
)

// Priority levels understood by ntfy.sh.
const (
	PriorityDefault = "default"
	PriorityUrgent  = "urgent"
)

var client *http.Client
var topic string
var initialized bool

// Init initializes the ntfy.sh notification client. Without a configured
// topic the monitor runs with notifications disabled.
func Init() {
	if env.Cfg.NtfyTopic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return
	}

	client = &http.Client{
		Timeout: 10 * time.Second,
	}
	topic = env.Cfg.NtfyTopic
	initialized = true

	log.Info().
		Str("topic", topic).
		Msg("Ntfy notifications initialized")
}

// Send publishes a default-priority notification.
func Send(title, message string) error {
	return SendWithPriority(title, message, PriorityDefault)
}

// SendWithPriority publishes a notification to ntfy.sh. Emergency
// transitions use urgent priority so they bypass client-side muting.
func SendWithPriority(title, message, priority string) error {
	if !initialized {
		return fmt.Errorf("notifications not initialized")
	}

	payload := map[string]interface{}{
		"topic":    topic,
		"title":    title,
		"message":  message,
		"priority": priority,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	url := fmt.Sprintf("https://ntfy.sh/%s", topic)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Str("priority", priority).
		Int("status", resp.StatusCode).
		Msg("Notification sent")

	return nil
}
