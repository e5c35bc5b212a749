// Package notifier delivers textual reports to a local HTTP endpoint.
// Delivery failures (e.g. connection refused because no listener is
// configured) are logged and swallowed: the orchestrator's tick must never
// fail because nothing was there to receive the report.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Notifier posts report text to a local endpoint of the form
// "<BaseURL>/send_message/?chat_id=...&text=...".
type Notifier struct {
	BaseURL string
	HTTP    *http.Client
	Log     *slog.Logger
}

// New constructs a Notifier. An empty BaseURL disables delivery entirely.
func New(baseURL string, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Log:     log,
	}
}

// Send delivers text to chatID. deletePrevious and saveToDB map to the
// endpoint's delete_previous/save_msg_to_db query parameters.
func (n *Notifier) Send(ctx context.Context, chatID, text string, deletePrevious, saveToDB bool) {
	if n.BaseURL == "" {
		return
	}

	q := url.Values{"chat_id": {chatID}, "text": {text}}
	if deletePrevious {
		q.Set("delete_previous", "true")
	}
	if saveToDB {
		q.Set("save_msg_to_db", "true")
	}

	endpoint := fmt.Sprintf("%s/send_message/?%s", n.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		n.Log.Warn("notifier: build request failed", "err", err)
		return
	}

	resp, err := n.HTTP.Do(req)
	if err != nil {
		n.Log.Warn("notifier: send failed, continuing", "err", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.Log.Warn("notifier: non-2xx response, continuing", "status", resp.StatusCode)
	}
}
