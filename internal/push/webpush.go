package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/fleetops/sysmgmt/internal/conf"
)

// defaultSendTimeout bounds a single delivery when the config leaves the
// timeout unset, so one slow endpoint cannot stall the fan-out.
const defaultSendTimeout = 5 * time.Second

// WebPushTransport delivers notifications over the Web Push protocol with
// VAPID authentication.
type WebPushTransport struct {
	subscriber      string
	vapidPublicKey  string
	vapidPrivateKey string
	ttl             int
	client          *http.Client
}

// NewWebPushTransport creates a transport from the push configuration.
func NewWebPushTransport(cfg conf.PushConfig) *WebPushTransport {
	timeout := cfg.SendTimeout.Std()
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &WebPushTransport{
		subscriber:      cfg.Subscriber,
		vapidPublicKey:  cfg.VAPIDPublicKey,
		vapidPrivateKey: cfg.VAPIDPrivateKey,
		ttl:             cfg.TTL,
		client:          &http.Client{Timeout: timeout},
	}
}

// Send delivers one message to one subscription descriptor and classifies
// the outcome. A descriptor that does not parse as a Web Push subscription
// can never be delivered to and is reported permanent so the registry gets
// pruned.
func (t *WebPushTransport) Send(ctx context.Context, subscription string, message []byte) (Result, error) {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(subscription), &sub); err != nil {
		return ResultPermanentFailure, fmt.Errorf("invalid subscription descriptor: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, message, &sub, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.subscriber,
		VAPIDPublicKey:  t.vapidPublicKey,
		VAPIDPrivateKey: t.vapidPrivateKey,
		TTL:             t.ttl,
	})
	if err != nil {
		return ResultTransientFailure, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ResultPermanentFailure, fmt.Errorf("push service reported endpoint dead: %s", resp.Status)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ResultDelivered, nil
	default:
		return ResultTransientFailure, fmt.Errorf("push service returned %s", resp.Status)
	}
}
