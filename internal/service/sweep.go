package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"invoicing/internal/billing"
	"invoicing/internal/metrics"
	"invoicing/internal/store"
)

// OverdueSweeper persists the OVERDUE status that reads already derive.
type OverdueSweeper struct {
	invoices *store.Invoices
	metrics  *metrics.Metrics
	clock    billing.Clock
}

func NewOverdueSweeper(invoices *store.Invoices, m *metrics.Metrics, clock billing.Clock) *OverdueSweeper {
	return &OverdueSweeper{invoices: invoices, metrics: m, clock: clockOrSystem(clock)}
}

// Run marks every SENT invoice past due as OVERDUE. trigger labels the
// caller in logs and metrics ("cron", "cli").
func (s *OverdueSweeper) Run(ctx context.Context, trigger string) (int64, error) {
	n, err := s.invoices.MarkOverdue(ctx, s.clock())
	if err != nil {
		logrus.WithField("trigger", trigger).WithError(err).Error("Overdue sweep failed")
		return 0, err
	}
	s.metrics.MarkedOverdue(trigger, n)
	logrus.WithFields(logrus.Fields{"trigger": trigger, "marked": n}).Info("Overdue sweep completed")
	return n, nil
}
