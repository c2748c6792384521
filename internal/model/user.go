package model

import "time"

// User is one entry of the users store. The store is keyed by username;
// Name carries the key at runtime and is never serialized.
type User struct {
	Name                 string               `json:"-"`
	CreatedAt            Timestamp            `json:"created_at"`
	LastLogin            Timestamp            `json:"last_login"`
	IsFirstTime          bool                 `json:"is_first_time"`
	PersonalProfile      PersonalProfile      `json:"personal_profile"`
	ForbiddenCategories  []string             `json:"forbidden_categories"`
	CoolingPeriods       []CoolingBand        `json:"cooling_periods"`
	NotificationSettings NotificationSettings `json:"notification_settings"`
	ConsiderSavings      bool                 `json:"consider_savings"`
	Purchases            []*Purchase          `json:"purchases"`
}

// PersonalProfile holds the financial questionnaire answers.
type PersonalProfile struct {
	MonthlyIncome    float64 `json:"monthly_income"`
	SavingsPerMonth  float64 `json:"savings_per_month"`
	CurrentSavings   float64 `json:"current_savings"`
	FillingCompleted bool    `json:"filling_completed"`
}

// CoolingBand maps an inclusive price range to a number of cooling days.
// Bands are evaluated in stored order; the first one containing the price
// wins, even when bands overlap.
type CoolingBand struct {
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
	Days     int     `json:"days"`
}

type NotificationSettings struct {
	Enabled       bool     `json:"enabled"`
	FrequencyDays int      `json:"frequency_days"`
	ExcludedItems []string `json:"excluded_items"`
	Channel       string   `json:"channel"`
}

const ChannelInApp = "in_app"

// DefaultCoolingPolicy returns the seed price bands for a fresh user.
func DefaultCoolingPolicy() []CoolingBand {
	return []CoolingBand{
		{MinPrice: 0, MaxPrice: 5000, Days: 1},
		{MinPrice: 5001, MaxPrice: 20000, Days: 3},
		{MinPrice: 20001, MaxPrice: 50000, Days: 7},
		{MinPrice: 50001, MaxPrice: 100000, Days: 14},
		{MinPrice: 100001, MaxPrice: 200000, Days: 30},
		{MinPrice: 200001, MaxPrice: 500000, Days: 60},
		{MinPrice: 500001, MaxPrice: 1000000, Days: 90},
	}
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:       true,
		FrequencyDays: 7,
		ExcludedItems: []string{},
		Channel:       ChannelInApp,
	}
}

// NewUser builds the base record created on first login.
func NewUser(name string, now time.Time) *User {
	ts := NewTimestamp(now)
	return &User{
		Name:                 name,
		CreatedAt:            ts,
		LastLogin:            ts,
		IsFirstTime:          true,
		PersonalProfile:      PersonalProfile{},
		ForbiddenCategories:  []string{},
		CoolingPeriods:       DefaultCoolingPolicy(),
		NotificationSettings: DefaultNotificationSettings(),
		ConsiderSavings:      true,
		Purchases:            []*Purchase{},
	}
}

// Clone returns a deep copy; callers may mutate the result freely without
// touching the stored value.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.ForbiddenCategories = append([]string(nil), u.ForbiddenCategories...)
	c.CoolingPeriods = append([]CoolingBand(nil), u.CoolingPeriods...)
	c.NotificationSettings.ExcludedItems = append([]string(nil), u.NotificationSettings.ExcludedItems...)
	c.Purchases = make([]*Purchase, len(u.Purchases))
	for i, p := range u.Purchases {
		c.Purchases[i] = p.Clone()
	}
	return &c
}

// FindPurchase returns the purchase with the given id, or nil.
func (u *User) FindPurchase(id string) *Purchase {
	for _, p := range u.Purchases {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// IsForbidden reports whether the category is on the user's forbidden list.
func (u *User) IsForbidden(category string) bool {
	for _, c := range u.ForbiddenCategories {
		if c == category {
			return true
		}
	}
	return false
}
