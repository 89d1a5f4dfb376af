package alerting

import (
	"github.com/sirupsen/logrus"

	"sensor-anomaly-engine/models"
	"sensor-anomaly-engine/ws"
)

// Alerter forwards new anomaly events to notification channels. Only the
// websocket hub is wired today; email/SMS senders would hang off here.
type Alerter struct {
	hub    *ws.Hub
	logger *logrus.Logger
}

func NewAlerter(hub *ws.Hub, logger *logrus.Logger) *Alerter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Alerter{hub: hub, logger: logger}
}

// Notify dispatches one event. Safe to call from the engine's anomaly
// callback; broadcasting never blocks detection.
func (a *Alerter) Notify(event models.AnomalyEvent) {
	a.logger.WithFields(logrus.Fields{
		"event_id": event.ID,
		"severity": event.Severity,
	}).Info("dispatching anomaly alert")

	if a.hub != nil {
		a.hub.BroadcastEvent(event)
	}
}
