package service

import (
	"context"

	"github.com/example/purchase-guardian/internal/model"
	"github.com/example/purchase-guardian/internal/repository"
)

// GardenRepository is the part of the savings garden the service uses.
type GardenRepository interface {
	Add(amount float64) error
	State() model.GardenState
}

// UserService handles the user lifecycle around the repository: login,
// profile setup, savings top-ups and purchase decisions.
type UserService struct {
	repo   repository.UserRepository
	garden GardenRepository
}

func NewUserService(repo repository.UserRepository, garden GardenRepository) *UserService {
	return &UserService{repo: repo, garden: garden}
}

// Login fetches or creates the user record.
func (s *UserService) Login(ctx context.Context, name string) (*model.User, error) {
	return s.repo.Login(ctx, name)
}

// CompleteProfileSetup stores the questionnaire answers and clears the
// first-time flag.
func (s *UserService) CompleteProfileSetup(ctx context.Context, name string, profile model.PersonalProfile) (*model.User, error) {
	return s.repo.UpdateUser(ctx, name, map[string]any{
		"personal_profile": map[string]any{
			"monthly_income":    profile.MonthlyIncome,
			"savings_per_month": profile.SavingsPerMonth,
			"current_savings":   profile.CurrentSavings,
			"filling_completed": true,
		},
		"is_first_time": false,
	})
}

// AddSavings tops up a cooling purchase. When the target is reached the
// repository flips the purchase to purchased on its own.
func (s *UserService) AddSavings(ctx context.Context, name, purchaseID string, amount float64) (*model.Purchase, error) {
	if amount <= 0 {
		return nil, &repository.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	p, err := s.repo.GetPurchase(ctx, name, purchaseID)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdatePurchase(ctx, name, purchaseID, map[string]any{
		"current_savings": p.CurrentSavings + amount,
	})
}

// MarkPurchased confirms a purchase manually.
func (s *UserService) MarkPurchased(ctx context.Context, name, purchaseID string) error {
	return s.repo.MarkPurchased(ctx, name, purchaseID)
}

// Decline removes a purchase; money kept by declining a still-cooling one
// is credited to the savings garden.
func (s *UserService) Decline(ctx context.Context, name, purchaseID string) error {
	p, err := s.repo.GetPurchase(ctx, name, purchaseID)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePurchase(ctx, name, purchaseID); err != nil {
		return err
	}
	if s.garden != nil && p.Status == model.StatusCooling {
		return s.garden.Add(p.Price)
	}
	return nil
}

func (s *UserService) SetForbiddenCategories(ctx context.Context, name string, categories []string) (*model.User, error) {
	return s.repo.UpdateUser(ctx, name, map[string]any{
		"forbidden_categories": categories,
	})
}

func (s *UserService) SetConsiderSavings(ctx context.Context, name string, consider bool) (*model.User, error) {
	return s.repo.UpdateUser(ctx, name, map[string]any{
		"consider_savings": consider,
	})
}

func (s *UserService) UpdateNotificationSettings(ctx context.Context, name string, settings model.NotificationSettings) (*model.User, error) {
	return s.repo.UpdateUser(ctx, name, map[string]any{
		"notification_settings": map[string]any{
			"enabled":        settings.Enabled,
			"frequency_days": settings.FrequencyDays,
			"excluded_items": settings.ExcludedItems,
			"channel":        settings.Channel,
		},
	})
}

// ExcludeFromNotifications silences reminders for one purchase.
func (s *UserService) ExcludeFromNotifications(ctx context.Context, name, purchaseID string) (*model.User, error) {
	u, err := s.repo.GetUser(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, id := range u.NotificationSettings.ExcludedItems {
		if id == purchaseID {
			return u, nil
		}
	}
	excluded := append(u.NotificationSettings.ExcludedItems, purchaseID)
	return s.repo.UpdateUser(ctx, name, map[string]any{
		"notification_settings": map[string]any{
			"excluded_items": excluded,
		},
	})
}
