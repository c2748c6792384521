package service

import (
	"context"
	"fmt"
	"time"

	"github.com/example/purchase-guardian/internal/model"
	"github.com/example/purchase-guardian/internal/repository"
)

// Notification kinds.
const (
	KindReminder     = "reminder"
	KindCoolingEnded = "cooling_ended"
)

// Notification is one due reminder for a cooling purchase.
type Notification struct {
	Purchase *model.Purchase
	Kind     string
	Message  string
	DaysLeft int
}

// NotificationService decides which cooling purchases are due a reminder.
// CheckPending is read-only, so pollers may call it as often as they like;
// MarkNotified commits the throttle state separately once a notification
// was actually delivered.
type NotificationService struct {
	repo repository.UserRepository
	now  func() time.Time
}

func NewNotificationService(repo repository.UserRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

// CheckPending returns the due notifications for the given user snapshot.
func (s *NotificationService) CheckPending(u *model.User) []Notification {
	settings := u.NotificationSettings
	if !settings.Enabled {
		return nil
	}

	excluded := make(map[string]bool, len(settings.ExcludedItems))
	for _, id := range settings.ExcludedItems {
		excluded[id] = true
	}

	now := s.now()
	var pending []Notification
	for _, p := range u.Purchases {
		if p.Status != model.StatusCooling || excluded[p.ID] {
			continue
		}
		if p.LastNotification != nil {
			daysSince := int(now.Sub(p.LastNotification.Time).Hours() / 24)
			if daysSince < settings.FrequencyDays {
				continue
			}
		}
		if !p.CoolingUntil.After(now) {
			pending = append(pending, Notification{
				Purchase: p.Clone(),
				Kind:     KindCoolingEnded,
				Message:  fmt.Sprintf("The cooling period for %q is over. You can make the purchase.", p.Name),
			})
			continue
		}
		daysLeft := int(p.CoolingUntil.Sub(now).Hours() / 24)
		pending = append(pending, Notification{
			Purchase: p.Clone(),
			Kind:     KindReminder,
			Message: fmt.Sprintf("Still cooling: %q until %s, %d days left.",
				p.Name, p.CoolingUntil.Format("02.01.2006"), daysLeft),
			DaysLeft: daysLeft,
		})
	}
	return pending
}

// MarkNotified records that a notification for the purchase was delivered.
func (s *NotificationService) MarkNotified(ctx context.Context, username, purchaseID string) error {
	_, err := s.repo.UpdatePurchase(ctx, username, purchaseID, map[string]any{
		"last_notification": model.NewTimestamp(s.now()).String(),
		"notified":          true,
	})
	return err
}
