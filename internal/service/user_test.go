package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/example/purchase-guardian/internal/model"
	"github.com/example/purchase-guardian/internal/repository"
)

// fakeGarden records credited amounts in memory.
type fakeGarden struct {
	state model.GardenState
}

func (g *fakeGarden) Add(amount float64) error {
	g.state.Saved += amount
	g.state.SavedCount++
	return nil
}

func (g *fakeGarden) State() model.GardenState { return g.state }

func newUserService(t *testing.T) (*UserService, *fakeGarden) {
	t.Helper()
	repo, err := repository.NewFileUserRepository(filepath.Join(t.TempDir(), "users.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	garden := &fakeGarden{}
	return NewUserService(repo, garden), garden
}

func TestUserService_CompleteProfileSetup(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Login(ctx, "max"); err != nil {
		t.Fatalf("login: %v", err)
	}

	u, err := svc.CompleteProfileSetup(ctx, "max", model.PersonalProfile{
		MonthlyIncome:   120000,
		SavingsPerMonth: 15000,
		CurrentSavings:  40000,
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !u.PersonalProfile.FillingCompleted {
		t.Fatalf("filling_completed not set")
	}
	if u.IsFirstTime {
		t.Fatalf("first-time flag not cleared")
	}
	if u.PersonalProfile.SavingsPerMonth != 15000 {
		t.Fatalf("profile not stored: %+v", u.PersonalProfile)
	}
}

func TestUserService_AddSavingsCompletesPurchase(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Login(ctx, "max"); err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := svc.repo.AddPurchase(ctx, "max", &model.Purchase{Name: "TV", Price: 30000})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	upd, err := svc.AddSavings(ctx, "max", p.ID, 20000)
	if err != nil {
		t.Fatalf("add savings: %v", err)
	}
	if upd.CurrentSavings != 20000 || upd.Status != model.StatusCooling {
		t.Fatalf("unexpected state after top-up: %+v", upd)
	}

	upd, err = svc.AddSavings(ctx, "max", p.ID, 10000)
	if err != nil {
		t.Fatalf("add savings: %v", err)
	}
	if upd.Status != model.StatusPurchased {
		t.Fatalf("target reached, expected purchased, got %q", upd.Status)
	}
}

func TestUserService_AddSavingsRejectsNonPositive(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Login(ctx, "max"); err != nil {
		t.Fatalf("login: %v", err)
	}
	_, err := svc.AddSavings(ctx, "max", "whatever", -10)
	var verr *repository.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUserService_DeclineCreditsGarden(t *testing.T) {
	svc, garden := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Login(ctx, "max"); err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := svc.repo.AddPurchase(ctx, "max", &model.Purchase{Name: "TV", Price: 30000})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Decline(ctx, "max", p.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, err := svc.repo.GetPurchase(ctx, "max", p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("purchase should be gone, got %v", err)
	}
	if garden.state.Saved != 30000 || garden.state.SavedCount != 1 {
		t.Fatalf("declined price not credited: %+v", garden.state)
	}
}

func TestUserService_DecliningPurchasedDoesNotCredit(t *testing.T) {
	svc, garden := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Login(ctx, "max"); err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := svc.repo.AddPurchase(ctx, "max", &model.Purchase{Name: "Kettle", Price: 1000, CurrentSavings: 1000})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Decline(ctx, "max", p.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if garden.state.SavedCount != 0 {
		t.Fatalf("already-purchased item must not credit the garden")
	}
}

func TestUserService_ExcludeFromNotifications(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Login(ctx, "max"); err != nil {
		t.Fatalf("login: %v", err)
	}

	u, err := svc.ExcludeFromNotifications(ctx, "max", "item_1")
	if err != nil {
		t.Fatalf("exclude: %v", err)
	}
	if len(u.NotificationSettings.ExcludedItems) != 1 {
		t.Fatalf("exclusion not stored: %+v", u.NotificationSettings)
	}
	if u.NotificationSettings.FrequencyDays != 7 || !u.NotificationSettings.Enabled {
		t.Fatalf("sibling notification settings clobbered: %+v", u.NotificationSettings)
	}

	// Excluding twice is a no-op.
	u, err = svc.ExcludeFromNotifications(ctx, "max", "item_1")
	if err != nil {
		t.Fatalf("exclude again: %v", err)
	}
	if len(u.NotificationSettings.ExcludedItems) != 1 {
		t.Fatalf("duplicate exclusion stored")
	}
}
