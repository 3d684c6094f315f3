package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// senderTimeout bounds a single delivery attempt. Notifications are fire and
// forget at the end of a run; a slow channel must not stall shutdown.
const senderTimeout = 10 * time.Second

func newSenderClient() *http.Client {
	return &http.Client{Timeout: senderTimeout}
}

// postJSON delivers payload to url as a JSON POST and treats any non-2xx
// response as an error. label prefixes error messages with the channel name.
// Error bodies are truncated to their first kilobyte.
func postJSON(ctx context.Context, client *http.Client, url, label string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: unexpected status %d: %s", label, resp.StatusCode, string(respBody))
	}

	return nil
}
