package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// RecorderConfig configures the circuit breaker in front of the store.
type RecorderConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
	SaveTimeout      time.Duration
}

// Recorder writes decisions to a Store behind a circuit breaker. While the
// breaker is open, records are dropped instead of waiting on a failing store.
type Recorder struct {
	store       Store
	breaker     *gobreaker.CircuitBreaker
	logger      *logrus.Logger
	saveTimeout time.Duration
}

// NewRecorder wraps store. Zero config fields take defaults.
func NewRecorder(store Store, logger *logrus.Logger, config RecorderConfig) *Recorder {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.SaveTimeout == 0 {
		config.SaveTimeout = 2 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "DecisionAudit",
		Timeout: config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from,
				"to_state":        to,
			}).Warn("Circuit breaker state changed")
		},
	}

	return &Recorder{
		store:       store,
		breaker:     gobreaker.NewCircuitBreaker(settings),
		logger:      logger,
		saveTimeout: config.SaveTimeout,
	}
}

// Record persists a decision. Errors are logged, never returned.
func (r *Recorder) Record(ctx context.Context, req domain.Request, d *domain.Decision) {
	record := NewRecord(req, d)

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.saveTimeout)
	defer cancel()

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.store.Save(saveCtx, record)
	})
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"decision_id": record.ID,
			"organism":    record.OrganismCode,
			"antibiotic":  record.AntibioticCode,
			"error":       err.Error(),
		}).Warn("Failed to record decision")
		return
	}

	r.logger.WithField("decision_id", record.ID).Debug("Recorded decision")
}

// State reports the circuit breaker state.
func (r *Recorder) State() gobreaker.State {
	return r.breaker.State()
}
