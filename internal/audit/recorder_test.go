package audit

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgps-group/AMRIE/internal/domain"
)

type flakyStore struct {
	mu    sync.Mutex
	err   error
	saves int
	saved []*Record
}

func (s *flakyStore) Save(ctx context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.err != nil {
		return s.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.saved = append(s.saved, r)
	return nil
}

func (s *flakyStore) Get(context.Context, string) (*Record, error) { return nil, domain.ErrNotFound }

func (s *flakyStore) List(context.Context, int, int) ([]*Record, error) { return nil, nil }

func (s *flakyStore) Count(context.Context) (int64, error) { return int64(len(s.saved)), nil }

func (s *flakyStore) Close() error { return nil }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRecorder_Record(t *testing.T) {
	store := &flakyStore{}
	rec := NewRecorder(store, quietLogger(), RecorderConfig{})

	req, d := sampleDecision()
	rec.Record(context.Background(), req, d)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "AMP_NM", store.saved[0].AntibioticCode)
	assert.Equal(t, gobreaker.StateClosed, rec.State())
}

func TestRecorder_CancelledRequestStillRecorded(t *testing.T) {
	store := &flakyStore{}
	rec := NewRecorder(store, quietLogger(), RecorderConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, d := sampleDecision()
	rec.Record(ctx, req, d)
	assert.Len(t, store.saved, 1)
}

func TestRecorder_OpensAfterRepeatedFailures(t *testing.T) {
	store := &flakyStore{err: errors.New("disk full")}
	rec := NewRecorder(store, quietLogger(), RecorderConfig{FailureThreshold: 3, Timeout: time.Hour})

	req, d := sampleDecision()
	for range 3 {
		rec.Record(context.Background(), req, d)
	}
	assert.Equal(t, gobreaker.StateOpen, rec.State())
	assert.Equal(t, 3, store.saves)

	// Open breaker short-circuits the store.
	rec.Record(context.Background(), req, d)
	assert.Equal(t, 3, store.saves)
	assert.Empty(t, store.saved)
}
