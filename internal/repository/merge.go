package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/example/purchase-guardian/internal/model"
)

// toDoc converts a typed value into its JSON document form.
func toDoc(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// fromDoc converts a JSON document back into a typed value. A type
// mismatch in the patch (say, a string where a number belongs) surfaces
// here as a ValidationError.
func fromDoc(m map[string]any, dst any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return &ValidationError{Field: "fields", Reason: err.Error()}
	}
	return nil
}

// mergeDoc applies patch onto dst with one-level-deep object merging:
// when both sides hold an object for the same key, the objects merge key
// by key; anything nested deeper is replaced wholesale.
func mergeDoc(dst, patch map[string]any) {
	for k, v := range patch {
		if cur, ok := dst[k].(map[string]any); ok {
			if pm, ok := v.(map[string]any); ok {
				for nk, nv := range pm {
					cur[nk] = nv
				}
				continue
			}
		}
		dst[k] = v
	}
}

func validateUsername(name string) error {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) < 2 {
		return &ValidationError{Field: "username", Reason: "must be at least 2 characters"}
	}
	if utf8.RuneCountInString(name) > 20 {
		return &ValidationError{Field: "username", Reason: "must not exceed 20 characters"}
	}
	return nil
}

func validateProfile(p model.PersonalProfile) error {
	switch {
	case p.MonthlyIncome < 0:
		return &ValidationError{Field: "monthly_income", Reason: "must not be negative"}
	case p.SavingsPerMonth < 0:
		return &ValidationError{Field: "savings_per_month", Reason: "must not be negative"}
	case p.CurrentSavings < 0:
		return &ValidationError{Field: "current_savings", Reason: "must not be negative"}
	}
	return nil
}

func validatePurchase(p *model.Purchase) error {
	if p.Price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if p.CurrentSavings < 0 {
		return &ValidationError{Field: "current_savings", Reason: "must not be negative"}
	}
	return nil
}

func newPurchaseID(now time.Time) string {
	return fmt.Sprintf("item_%d_%s", now.Unix(), uuid.NewString()[:8])
}

// applyPurchaseDefaults fills the fields every new purchase must carry.
func applyPurchaseDefaults(p *model.Purchase, now time.Time) {
	if p.ID == "" {
		p.ID = newPurchaseID(now)
	}
	if p.Status == "" {
		p.Status = model.StatusCooling
	}
	if p.AddedAt.IsZero() {
		p.AddedAt = model.NewTimestamp(now)
	}
	if p.SavingsTarget == 0 {
		p.SavingsTarget = p.Price
	}
	if p.CoolingUntil.IsZero() {
		p.CoolingUntil = p.AddedAt
	}
}

// mergeUser returns a copy of u with fields merged in, revalidated.
func mergeUser(u *model.User, fields map[string]any) (*model.User, error) {
	doc, err := toDoc(u)
	if err != nil {
		return nil, err
	}
	mergeDoc(doc, fields)
	merged := &model.User{}
	if err := fromDoc(doc, merged); err != nil {
		return nil, err
	}
	merged.Name = u.Name
	if err := validateProfile(merged.PersonalProfile); err != nil {
		return nil, err
	}
	for _, p := range merged.Purchases {
		if err := validatePurchase(p); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// mergePurchase returns a copy of p with fields merged in. The id is not
// patchable; it survives any merge.
func mergePurchase(p *model.Purchase, fields map[string]any) (*model.Purchase, error) {
	doc, err := toDoc(p)
	if err != nil {
		return nil, err
	}
	mergeDoc(doc, fields)
	merged := &model.Purchase{}
	if err := fromDoc(doc, merged); err != nil {
		return nil, err
	}
	merged.ID = p.ID
	if err := validatePurchase(merged); err != nil {
		return nil, err
	}
	return merged, nil
}
