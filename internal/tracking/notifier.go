package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shoplocal/directory-service/internal/config"
	"github.com/shoplocal/directory-service/internal/domain"
	"github.com/shoplocal/directory-service/internal/log"
)

// Event is the payload accepted by the behavior-tracking endpoint.
type Event struct {
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	EntityName string         `json:"entity_name"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Notifier posts behavior events fire-and-forget. A failed or slow
// tracking call must never be observable by the user, so every send
// happens on its own goroutine with its own timeout and failures are
// only logged.
type Notifier struct {
	client   *http.Client
	endpoint string
	enabled  bool
}

func NewNotifier(cfg config.TrackingConfig) *Notifier {
	return &Notifier{
		client:   &http.Client{Timeout: 5 * time.Second},
		endpoint: cfg.Endpoint,
		enabled:  cfg.Enabled && cfg.Endpoint != "",
	}
}

// SearchPerformed emits one search event. loc may be nil.
func (n *Notifier) SearchPerformed(sig, query string, loc *domain.UserLocation) {
	payload := map[string]any{"signature": sig}
	if query != "" {
		payload["query"] = query
	}
	if loc != nil {
		payload["lat"] = loc.Lat
		payload["lng"] = loc.Lng
		payload["city"] = loc.City
	}

	n.send(Event{
		EntityType: "search",
		EntityID:   sig,
		EntityName: query,
		Payload:    payload,
	})
}

func (n *Notifier) send(evt Event) {
	if !n.enabled {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		l := log.L()

		body, err := json.Marshal(evt)
		if err != nil {
			l.Warn().Err(err).Msg("tracking marshal error")
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
		if err != nil {
			l.Warn().Err(err).Msg("tracking request error")
			return
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := n.client.Do(req)
		if err != nil {
			l.Debug().Err(err).Msg("tracking send failed")
			return
		}
		defer res.Body.Close()

		if res.StatusCode >= 300 {
			l.Debug().Err(fmt.Errorf("status %d", res.StatusCode)).Msg("tracking send rejected")
		}
	}()
}
