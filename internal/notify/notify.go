// Package notify escalates critical incidents to external operator
// channels (Slack, ntfy, email, ...) through shoutrrr service URLs.
// Everything here is best-effort: the incident pipeline never waits on or
// fails because of an escalation.
package notify

import (
	"context"
	"fmt"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/fleetops/sysmgmt/internal/conf"
	"github.com/fleetops/sysmgmt/internal/datastore/entities"
	"github.com/fleetops/sysmgmt/internal/logger"
)

// Notifier sends incident escalations through a shoutrrr router.
type Notifier struct {
	sender *router.ServiceRouter
	log    logger.Logger
}

// NewNotifier builds a Notifier from the notify configuration. Returns nil
// when escalation is disabled or no URLs are configured; callers treat a
// nil Notifier as "no escalation".
func NewNotifier(cfg conf.NotifyConfig, log logger.Logger) (*Notifier, error) {
	if !cfg.Enabled || len(cfg.URLs) == 0 {
		return nil, nil
	}
	sender, err := shoutrrr.CreateSender(cfg.URLs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create escalation sender: %w", err)
	}
	return &Notifier{sender: sender, log: log}, nil
}

// EscalateIncident pushes one incident to every configured channel.
// Per-channel failures are logged and dropped.
func (n *Notifier) EscalateIncident(ctx context.Context, inc *entities.Incident) {
	if ctx.Err() != nil {
		return
	}

	message := fmt.Sprintf("%s incident on %s: %s/%s (id %s)",
		inc.Severity, inc.Restaurant, inc.CodeType, inc.CodeValue, inc.ID)
	params := types.Params{"title": "SYS-MGMT incident"}

	for _, err := range n.sender.Send(message, &params) {
		if err != nil {
			n.log.Warn("incident escalation failed",
				logger.String("incident_id", inc.ID),
				logger.Error(err))
		}
	}
}
