package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"chatty-backend/internal/repository"
)

// TokenSweeper periodically deletes expired refresh tokens. Without it every
// login appends a row forever; the sweep makes expiry an enforced policy
// instead of issuance-time bookkeeping.
type TokenSweeper struct {
	repo     *repository.RefreshTokenRepository
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTokenSweeper(repo *repository.RefreshTokenRepository, interval time.Duration) *TokenSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenSweeper{
		repo:     repo,
		interval: interval,
	}
}

func (s *TokenSweeper) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				s.SweepOnce()
			}
		}
	}()
}

// SweepOnce deletes every refresh token that has already expired.
func (s *TokenSweeper) SweepOnce() {
	removed, err := s.repo.DeleteExpired(time.Now())
	if err != nil {
		log.Printf("refresh token sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("refresh token sweep removed %d expired tokens", removed)
	}
}

func (s *TokenSweeper) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
