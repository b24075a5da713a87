package services

import (
	"context"
	"log"
	"time"

	"hotspotpay/internal/metrics"
	"hotspotpay/internal/repositories"
)

// PendingTimeout is how long a push may stay unanswered before it is timed out.
const PendingTimeout = 3 * time.Minute

type ReaperService interface {
	// ExpireStale marks every Pending transaction older than PendingTimeout as TimedOut.
	ExpireStale(ctx context.Context) (int64, error)
}

type reaperService struct {
	transactions repositories.TransactionRepository
	timeout      time.Duration
	now          func() time.Time
}

func NewReaperService(transactions repositories.TransactionRepository) ReaperService {
	return &reaperService{
		transactions: transactions,
		timeout:      PendingTimeout,
		now:          time.Now,
	}
}

func (s *reaperService) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.timeout)

	count, err := s.transactions.ExpirePending(ctx, cutoff)
	if err != nil {
		metrics.ReaperRunsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.ReaperRunsTotal.WithLabelValues("ok").Inc()
	metrics.ReaperTimedOutTotal.Add(float64(count))
	if count > 0 {
		log.Printf("Marked %d pending transactions older than %s as timed out", count, s.timeout)
	}
	return count, nil
}
