package app

import (
	"context"
	"fmt"
	"time"

	"github.com/referrio/core/internal/modules/portalsession"
	"github.com/referrio/core/internal/modules/presence"
	pkgcron "github.com/referrio/core/internal/pkg/cron"
	sessionpkg "github.com/referrio/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, registry *presence.Registry, sessions *portalsession.Manager, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "prune_sessions",
		Description: "delete session rows expired for over a day",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := sessionpkg.PruneExpired(db, 24*time.Hour)
			if err != nil {
				cronLogger.Warn("session prune failed", zap.Error(err))
				return err
			}
			if n > 0 {
				cronLogger.Info(fmt.Sprintf("pruned %d expired sessions", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "sweep_presence",
		Description: "drop stale presence entries",
		Interval:    time.Minute,
		Fn: func(ctx context.Context) error {
			registry.Sweep()
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "sweep_session_machines",
		Description: "tear down timeout machines that reached logout",
		Interval:    time.Minute,
		Fn: func(ctx context.Context) error {
			if n := sessions.SweepEnded(); n > 0 {
				cronLogger.Info(fmt.Sprintf("swept %d ended session machines", n))
			}
			return nil
		},
	})
}
