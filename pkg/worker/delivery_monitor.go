package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/pkg/logger"
	"github.com/physiome/admin-api/pkg/messaging"
	"github.com/physiome/admin-api/pkg/metrics"
)

type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// DeliveryMonitor consumes the delivery reports published by the API and
// logs every recipient that did not get its email.
type DeliveryMonitor struct {
	broker  Subscriber
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewDeliveryMonitor(broker Subscriber, logger *logger.Logger, metrics *metrics.Metrics) *DeliveryMonitor {
	return &DeliveryMonitor{
		broker:  broker,
		logger:  logger,
		metrics: metrics,
	}
}

// Start blocks until ctx is cancelled or the subscription closes.
func (m *DeliveryMonitor) Start(ctx context.Context) error {
	reports, err := m.broker.Subscribe(ctx, messaging.ChannelDeliveryReports)
	if err != nil {
		return fmt.Errorf("failed to subscribe to delivery reports: %w", err)
	}
	m.logger.Info("Delivery monitor started", "channel", messaging.ChannelDeliveryReports)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Delivery monitor shutting down")
			return nil
		case payload, ok := <-reports:
			if !ok {
				return nil
			}
			m.Handle(payload)
		}
	}
}

// Handle processes one published report.
func (m *DeliveryMonitor) Handle(payload []byte) {
	var report model.DeliveryReport
	if err := json.Unmarshal(payload, &report); err != nil {
		m.logger.Error(err, "Malformed delivery report")
		if m.metrics != nil {
			m.metrics.ReportsConsumed.WithLabelValues("unknown", "malformed").Inc()
		}
		return
	}

	if m.metrics != nil {
		m.metrics.ReportsConsumed.WithLabelValues(string(report.Kind), metrics.Status(report.OK)).Inc()
	}
	if report.OK {
		m.logger.Debug("Notification delivered", "kind", report.Kind, "recipients", len(report.Recipients))
		return
	}

	for _, r := range report.PerRecipient {
		if r.OK {
			continue
		}
		m.logger.Warn("Notification not delivered",
			"kind", report.Kind, "recipient", r.Role, "address", r.Address, "error", r.Error)
	}
}
