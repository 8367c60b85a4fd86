package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	log "github.com/sirupsen/logrus"

	"playlist-api-go/logcolors"
)

// Notifier delivers an operational alert (breaker trips, upstream
// degradation, startup events) through one channel. Implementations
// are assembled at startup from whatever credentials are configured.
type Notifier interface {
	Send(subject, message string) error
}

// EmailNotifier delivers alerts over plain SMTP. Subject and body map
// directly onto the mail headers.
type EmailNotifier struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	ToEmail      string
}

func (e *EmailNotifier) Send(subject, message string) error {
	auth := smtp.PlainAuth("", e.SMTPUsername, e.SMTPPassword, e.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", e.FromEmail, e.ToEmail, subject, message))

	addr := e.SMTPHost + ":" + e.SMTPPort
	if err := smtp.SendMail(addr, auth, e.FromEmail, []string{e.ToEmail}, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %v", err)
	}

	log.Infof("%s Alert emailed to %s", logcolors.LogNotifier, e.ToEmail)
	return nil
}

// TelegramNotifier posts alerts to a chat via the Bot API. The subject
// becomes a bold first line.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
}

func (t *TelegramNotifier) Send(subject, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)

	payload := map[string]interface{}{
		"chat_id":    t.ChatID,
		"text":       fmt.Sprintf("*%s*\n\n%s", subject, message),
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram alert: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post telegram alert: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	log.Infof("%s Alert sent to telegram chat %s", logcolors.LogNotifier, t.ChatID)
	return nil
}

// NtfyNotifier publishes alerts to an ntfy topic, for push
// notifications without running any infrastructure.
type NtfyNotifier struct {
	Topic  string
	Server string // defaults to https://ntfy.sh
}

func (n *NtfyNotifier) Send(subject, message string) error {
	server := n.Server
	if server == "" {
		server = "https://ntfy.sh"
	}

	req, err := http.NewRequest(http.MethodPost, server+"/"+n.Topic, bytes.NewBufferString(message))
	if err != nil {
		return fmt.Errorf("failed to build ntfy request: %v", err)
	}
	req.Header.Set("Title", subject)
	req.Header.Set("Priority", "high")
	req.Header.Set("Tags", "warning")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish ntfy alert: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy API returned status %d", resp.StatusCode)
	}

	log.Infof("%s Alert published to ntfy topic %s", logcolors.LogNotifier, n.Topic)
	return nil
}
