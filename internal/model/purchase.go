package model

import "time"

// Purchase statuses. The transition is one-way: a purchased item never
// goes back to cooling.
const (
	StatusCooling   = "cooling"
	StatusPurchased = "purchased"
)

// Purchase is a tracked purchase intention inside a user record.
type Purchase struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Price            float64    `json:"price"`
	Category         string     `json:"category"`
	Status           string     `json:"status"`
	CoolingDays      int        `json:"cooling_days"`
	CoolingUntil     Timestamp  `json:"cooling_until"`
	AddedAt          Timestamp  `json:"added_at"`
	Notified         bool       `json:"notified"`
	LastNotification *Timestamp `json:"last_notification"`
	CurrentSavings   float64    `json:"current_savings"`
	SavingsTarget    float64    `json:"savings_target"`
	PurchasedAt      *Timestamp `json:"purchased_at"`
}

func (p *Purchase) Clone() *Purchase {
	if p == nil {
		return nil
	}
	c := *p
	if p.LastNotification != nil {
		ln := *p.LastNotification
		c.LastNotification = &ln
	}
	if p.PurchasedAt != nil {
		pa := *p.PurchasedAt
		c.PurchasedAt = &pa
	}
	return &c
}

// SettleCompletion flips a purchase to purchased once savings reach the
// target. Returns true when the status changed.
func (p *Purchase) SettleCompletion(now time.Time) bool {
	if p.Status != StatusCooling {
		return false
	}
	if p.CurrentSavings < p.SavingsTarget {
		return false
	}
	p.Status = StatusPurchased
	ts := NewTimestamp(now)
	p.PurchasedAt = &ts
	return true
}

// GardenState is the persisted tally of money kept by declining purchases.
type GardenState struct {
	Saved      float64 `json:"saved"`
	SavedCount int     `json:"saved_count"`
}
