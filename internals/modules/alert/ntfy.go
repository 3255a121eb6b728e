package alert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	TagChange = "rotating_light"
	TagTest   = "tada"

	PriorityHigh = "high"

	AttachmentName = "screenshot.png"
)

// Notification is one push message. Attachment, when set, becomes the body
// and Message moves to the Message header.
type Notification struct {
	Topic      string
	Title      string
	Message    string
	Priority   string
	Tags       string
	Attachment []byte
}

// NtfyNotifier publishes to an ntfy compatible endpoint: POST {base}/{topic}.
type NtfyNotifier struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewNtfyNotifier(baseURL string, timeout time.Duration, logger *zerolog.Logger) *NtfyNotifier {
	return &NtfyNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "notifier").Logger(),
	}
}

func (n *NtfyNotifier) Send(ctx context.Context, msg Notification) error {
	if msg.Topic == "" {
		return fmt.Errorf("notification topic is empty")
	}

	endpoint := n.baseURL + "/" + url.PathEscape(msg.Topic)

	var body io.Reader = strings.NewReader(msg.Message)
	if len(msg.Attachment) > 0 {
		body = bytes.NewReader(msg.Attachment)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}

	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if msg.Priority != "" {
		req.Header.Set("Priority", msg.Priority)
	}
	if msg.Tags != "" {
		req.Header.Set("Tags", msg.Tags)
	}
	if len(msg.Attachment) > 0 {
		req.Header.Set("Filename", AttachmentName)
		req.Header.Set("Message", headerSafe(msg.Message))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}

	n.logger.Debug().Str("topic", msg.Topic).Int("attachment_bytes", len(msg.Attachment)).Msg("notification sent")
	return nil
}

// headerSafe folds newlines, which are not allowed in header values.
func headerSafe(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
