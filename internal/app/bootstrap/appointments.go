package bootstrap

import (
	"fmt"
	"strings"

	"github.com/wolfman30/vetchart/internal/appointments"
	appconfig "github.com/wolfman30/vetchart/internal/config"
	"github.com/wolfman30/vetchart/internal/observability/metrics"
	"github.com/wolfman30/vetchart/pkg/logging"
)

// BuildAppointmentSource returns the remote appointments API when
// APPOINTMENTS_SOURCE_URL is set and the clinic's own records otherwise.
func BuildAppointmentSource(cfg *appconfig.Config, history *appointments.RecordsHistory, logger *logging.Logger) (appointments.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.AppointmentsSourceURL) == "" {
		logger.Info("appointments served from local records")
		return appointments.NewLocalSource(history), nil
	}
	src, err := appointments.NewRemoteSource(appointments.RemoteConfig{
		BaseURL: cfg.AppointmentsSourceURL,
		Token:   cfg.AppointmentsSourceToken,
		Timeout: cfg.AppointmentsSourceTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	logger.Info("appointments served from remote API", "url", cfg.AppointmentsSourceURL)
	return src, nil
}

// BuildRefresher wires the aggregator and the refresher that keeps the
// appointment index current.
func BuildRefresher(cfg *appconfig.Config, source appointments.Source, history appointments.VisitHistory, m *metrics.AppointmentMetrics, logger *logging.Logger) *appointments.Refresher {
	agg := appointments.NewAggregator(source, history, logger,
		appointments.WithMetrics(m),
		appointments.WithStrictDates(cfg.AppointmentsStrictDates),
	)
	return appointments.NewRefresher(agg, appointments.NewHolder(), cfg.AppointmentsRefreshCron, logger)
}
