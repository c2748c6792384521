package service

import (
	"fmt"
	"time"

	"github.com/example/purchase-guardian/internal/model"
)

// Recommendation reason codes.
const (
	ReasonStandard  = "standard analysis"
	ReasonForbidden = "forbidden category"
	ReasonBuyNow    = "buy now"
	ReasonCooling   = "cooling required"
)

const defaultCoolingDays = 7

// EvaluateRequest describes a purchase the user is considering. User may
// be nil when nobody is logged in.
type EvaluateRequest struct {
	ItemName string
	Category string
	Price    float64
	User     *model.User
}

// Recommendation is the cooling verdict for one contemplated purchase.
type Recommendation struct {
	Recommended bool
	Reason      string
	Message     string
	CoolingDays int // from the price tier
	SavingsDays int // from the savings shortfall
	TotalDays   int
}

// CoolingService decides how long a purchase should wait. It is stateless;
// the user snapshot comes in with the request.
type CoolingService struct {
	now func() time.Time
}

func NewCoolingService() *CoolingService {
	return &CoolingService{now: time.Now}
}

// Evaluate blends the price-tier policy with the savings-shortfall
// projection. The forbidden-category verdict is advisory: it does not stop
// a caller from adding the purchase anyway.
func (s *CoolingService) Evaluate(req EvaluateRequest) Recommendation {
	if req.User == nil {
		return Recommendation{
			Recommended: true,
			Reason:      ReasonStandard,
			Message:     fmt.Sprintf("No profile yet: wait the standard %d days before buying %q.", defaultCoolingDays, req.ItemName),
			CoolingDays: defaultCoolingDays,
			TotalDays:   defaultCoolingDays,
		}
	}

	if req.User.IsForbidden(req.Category) {
		return Recommendation{
			Recommended: false,
			Reason:      ReasonForbidden,
			Message:     fmt.Sprintf("Category %q is on your forbidden list; consider skipping this purchase.", req.Category),
		}
	}

	priceDays := priceTierDays(req.Price, req.User.CoolingPeriods)

	savingsDays := 0
	if req.User.ConsiderSavings {
		savingsDays = savingsShortfallDays(req.Price, req.User.PersonalProfile)
	}

	totalDays := priceDays
	if savingsDays > totalDays {
		totalDays = savingsDays
	}

	if totalDays <= 0 {
		return Recommendation{
			Recommended: true,
			Reason:      ReasonBuyNow,
			Message:     fmt.Sprintf("%q can be bought right away; still worth comparing prices first.", req.ItemName),
			CoolingDays: priceDays,
			SavingsDays: savingsDays,
		}
	}

	until := s.now().AddDate(0, 0, totalDays)
	return Recommendation{
		Recommended: true,
		Reason:      ReasonCooling,
		Message: fmt.Sprintf("Think about %q for %d days (price tier %d, savings %d). You could buy on %s.",
			req.ItemName, totalDays, priceDays, savingsDays, until.Format("02.01.2006")),
		CoolingDays: priceDays,
		SavingsDays: savingsDays,
		TotalDays:   totalDays,
	}
}

// priceTierDays picks the first band whose inclusive range contains the
// price. Overlapping or unsorted bands are legal; first match wins.
func priceTierDays(price float64, bands []model.CoolingBand) int {
	for _, b := range bands {
		if b.MinPrice <= price && price <= b.MaxPrice {
			return b.Days
		}
	}
	return 0
}

// savingsShortfallDays projects how long saving at the profile's monthly
// rate takes to cover the price. A zero or negative rate disables the
// savings dimension entirely; the price tier alone decides then.
func savingsShortfallDays(price float64, profile model.PersonalProfile) int {
	if profile.SavingsPerMonth <= 0 {
		return 0
	}
	shortfall := price - profile.CurrentSavings
	if shortfall <= 0 {
		return 0
	}
	dailyRate := profile.SavingsPerMonth / 30
	return int(shortfall/dailyRate) + 1
}

// BuildPurchase turns an accepted recommendation into a persistable
// purchase. The repository fills id, added_at and the other defaults.
func (s *CoolingService) BuildPurchase(req EvaluateRequest, rec Recommendation) *model.Purchase {
	now := s.now()
	return &model.Purchase{
		Name:          req.ItemName,
		Price:         req.Price,
		Category:      req.Category,
		Status:        model.StatusCooling,
		CoolingDays:   rec.TotalDays,
		CoolingUntil:  model.NewTimestamp(now.AddDate(0, 0, rec.TotalDays)),
		AddedAt:       model.NewTimestamp(now),
		SavingsTarget: req.Price,
	}
}
