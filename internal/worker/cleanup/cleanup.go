// Package cleanup はセッションの期限切れ処理ジョブを提供する。
// 有効期限を過ぎたactiveセッションのstateをexpiredに更新する。
// レコードは削除せず、履歴として残す。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mssecurity/internal/temporal"
)

// SessionExpirer は期限切れセッションの一括更新インターフェース。
// repository.SessionRepositoryが満たす。
type SessionExpirer interface {
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryRecorder は期限切れ件数と失敗の記録先。metrics.Collectorが満たす。
type ExpiryRecorder interface {
	RecordSessionsExpired(n int64)
	RecordSweepFailure()
}

// SessionSweeper は期限切れセッションを定期的にexpiredへ更新するジョブ。
// 冪等: 対象がない場合でもエラーにならない。
type SessionSweeper struct {
	sessions SessionExpirer
	recorder ExpiryRecorder
	logger   *slog.Logger
	now      temporal.Clock
}

// NewSessionSweeper は新しいSessionSweeperを生成する。
// recorderはnilでもよい。
func NewSessionSweeper(sessions SessionExpirer, recorder ExpiryRecorder, logger *slog.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
		now:      temporal.SystemClock,
	}
}

// WithClock は基準時刻の取得関数を差し替える。
func (s *SessionSweeper) WithClock(clock temporal.Clock) *SessionSweeper {
	s.now = clock
	return s
}

// Run は現在時刻以前に期限切れとなったactiveセッションをexpiredに更新する。
func (s *SessionSweeper) Run(ctx context.Context) error {
	start := time.Now()
	now := s.now()

	expired, err := s.sessions.ExpireBefore(ctx, now)
	if err != nil {
		if s.recorder != nil {
			s.recorder.RecordSweepFailure()
		}
		s.logger.Error("セッション期限切れ処理の実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッション期限切れ処理の実行に失敗: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordSessionsExpired(expired)
	}

	s.logger.Info("セッション期限切れ処理が完了しました",
		slog.Int64("expired_count", expired),
		slog.String("cutoff", temporal.FormatTimestamp(now)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回Runを実行し、その後interval毎に繰り返す。
// ctxがキャンセルされるまでブロックする。個々の実行失敗はログに記録して継続する。
func (s *SessionSweeper) Start(ctx context.Context, interval time.Duration) {
	if err := s.Run(ctx); err != nil {
		s.logger.Error("session sweep failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("session sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
