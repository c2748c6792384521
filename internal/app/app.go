package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/purchase-guardian/internal/config"
	"github.com/example/purchase-guardian/internal/pricing"
	"github.com/example/purchase-guardian/internal/repository"
	"github.com/example/purchase-guardian/internal/scanner"
	"github.com/example/purchase-guardian/internal/service"
)

// App coordinates the services and the background loops: the notification
// poller and the scanner-event drain.
type App struct {
	cfg       *config.Config
	log       *zap.Logger
	repo      repository.UserRepository
	users     *service.UserService
	cooling   *service.CoolingService
	notifier  *service.NotificationService
	estimator *pricing.Estimator
	events    *scanner.Queue
}

func New(cfg *config.Config, log *zap.Logger, repo repository.UserRepository,
	garden service.GardenRepository, priceStore pricing.Store, ai pricing.AIClient) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		repo:      repo,
		users:     service.NewUserService(repo, garden),
		cooling:   service.NewCoolingService(),
		notifier:  service.NewNotificationService(repo),
		estimator: pricing.NewEstimator(priceStore, ai, log, cfg.EstimateTimeout),
		events:    scanner.NewQueue(64),
	}
}

// Events is where the external screen detector pushes its signals.
func (a *App) Events() *scanner.Queue { return a.events }

func (a *App) Users() *service.UserService { return a.users }

func (a *App) Cooling() *service.CoolingService { return a.cooling }

func (a *App) Estimator() *pricing.Estimator { return a.estimator }

// Run starts the background loops and blocks until the context is
// canceled or an interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.pollNotifications(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.drainScannerEvents(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	return nil
}

func (a *App) pollNotifications(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.NotifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.notifyTick(ctx)
		}
	}
}

func (a *App) notifyTick(ctx context.Context) {
	users, err := a.repo.ListUsers(ctx)
	if err != nil {
		a.log.Error("list users", zap.Error(err))
		return
	}
	for _, u := range users {
		for _, n := range a.notifier.CheckPending(u) {
			// The in-app channel: surface the reminder, then commit the
			// throttle state.
			a.log.Info("notification",
				zap.String("user", u.Name),
				zap.String("kind", n.Kind),
				zap.String("purchase", n.Purchase.Name),
				zap.String("message", n.Message))
			if err := a.notifier.MarkNotified(ctx, u.Name, n.Purchase.ID); err != nil {
				a.log.Error("mark notified",
					zap.String("user", u.Name),
					zap.String("purchase_id", n.Purchase.ID),
					zap.Error(err))
			}
		}
	}
}

func (a *App) drainScannerEvents(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.ScannerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, e := range a.events.Drain() {
				a.log.Info("purchase page detected",
					zap.String("host", e.Host),
					zap.String("context", e.Context))
			}
		}
	}
}
