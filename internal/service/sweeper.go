package service

import (
	"context"
	"time"

	"github.com/ovchar/tradejournal/internal/logging"
	"github.com/ovchar/tradejournal/internal/store"
)

// TokenSweeper evicts expired refresh tokens on a schedule. The request path
// only deletes lazily when an expired token is presented, so without the
// sweeper expired, unused tokens would sit in storage forever.
type TokenSweeper struct {
	Store  *store.GormStore
	Period time.Duration
}

func (s *TokenSweeper) Run(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "token_sweeper")

	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Store.DeleteExpiredRefreshTokens(ctx, time.Now())
			if err != nil {
				l.Error("sweep_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("sweep_complete", "deleted", n)
			}
		}
	}
}
