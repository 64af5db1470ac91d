package monitor

import (
	"context"
	"fmt"
	"log"

	"risk-core/internal/events"
)

// AlertSink interface for pluggable alert delivery.
type AlertSink interface {
	Send(message string) error
}

// Monitor watches risk alert events and forwards them to a sink.
type Monitor struct {
	Bus     *events.Bus
	AlertFn func(string)
}

func (m *Monitor) Start(ctx context.Context) {
	if m.Bus == nil || m.AlertFn == nil {
		log.Println("monitor not fully configured; skipping")
		return
	}
	stream, unsub := m.Bus.Subscribe(events.EventRiskAlert, 50)
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-stream:
				if !ok {
					return
				}
				m.AlertFn(formatAlert(msg))
			}
		}
	}()
}

func formatAlert(msg any) string {
	if alert, ok := msg.(events.RiskAlert); ok {
		if alert.Reason != "" {
			return fmt.Sprintf("user=%s status=%s %s", alert.UserID, alert.Status, alert.Reason)
		}
		return fmt.Sprintf("user=%s status=%s daily_pnl=%.2f", alert.UserID, alert.Status, alert.DailyPnL)
	}
	return "risk alert triggered"
}
