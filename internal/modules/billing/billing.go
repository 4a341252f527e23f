// Package billing keeps agency subscription state in sync with the payment
// provider via signed webhooks.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/referrio/core/internal/models"
	"gorm.io/gorm"
)

// signatureTolerance bounds webhook replay age.
const signatureTolerance = 5 * time.Minute

var (
	ErrBadSignature   = errors.New("invalid webhook signature")
	ErrStaleTimestamp = errors.New("webhook timestamp outside tolerance")
)

// Event is the provider's webhook envelope.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SubscriptionPayload is the data object for subscription.* events.
type SubscriptionPayload struct {
	AgencyID         string `json:"agencyId"`
	CustomerID       string `json:"customerId"`
	SubscriptionID   string `json:"subscriptionId"`
	Status           string `json:"status"`
	Plan             string `json:"plan"`
	CurrentPeriodEnd int64  `json:"currentPeriodEnd"` // unix seconds
}

// VerifySignature checks a "t=<unix>,v1=<hex hmac-sha256>" header over
// "<t>.<body>" and enforces the replay tolerance. now is injected for tests.
func VerifySignature(secret string, header string, body []byte, now time.Time) error {
	var ts string
	var sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return ErrBadSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	age := now.Sub(time.Unix(unix, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	given, err := hex.DecodeString(sig)
	if err != nil {
		return ErrBadSignature
	}
	want, _ := hex.DecodeString(expected)
	if !hmac.Equal(given, want) {
		return ErrBadSignature
	}
	return nil
}

// Service applies webhook events to the subscriptions table.
type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Apply handles one verified event. Unknown event types are ignored so the
// provider can add types without breaking deliveries.
func (s *Service) Apply(evt *Event) error {
	switch evt.Type {
	case "subscription.created", "subscription.updated":
		return s.upsert(evt)
	case "subscription.deleted":
		return s.markCanceled(evt)
	default:
		return nil
	}
}

func (s *Service) upsert(evt *Event) error {
	var p SubscriptionPayload
	if err := json.Unmarshal(evt.Data, &p); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	if p.AgencyID == "" {
		return fmt.Errorf("%s event without agencyId", evt.Type)
	}

	var periodEnd *time.Time
	if p.CurrentPeriodEnd > 0 {
		t := time.Unix(p.CurrentPeriodEnd, 0)
		periodEnd = &t
	}

	var sub models.SubscriptionModel
	err := s.db.Where("agency_id = ?", p.AgencyID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = models.SubscriptionModel{
			AgencyID:         p.AgencyID,
			CustomerID:       p.CustomerID,
			SubscriptionID:   p.SubscriptionID,
			Status:           p.Status,
			Plan:             p.Plan,
			CurrentPeriodEnd: periodEnd,
		}
		return s.db.Create(&sub).Error
	}
	if err != nil {
		return err
	}

	return s.db.Model(&sub).Updates(map[string]interface{}{
		"customer_id":        p.CustomerID,
		"subscription_id":    p.SubscriptionID,
		"status":             p.Status,
		"plan":               p.Plan,
		"current_period_end": periodEnd,
	}).Error
}

func (s *Service) markCanceled(evt *Event) error {
	var p SubscriptionPayload
	if err := json.Unmarshal(evt.Data, &p); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	if p.AgencyID == "" {
		return fmt.Errorf("%s event without agencyId", evt.Type)
	}
	return s.db.Model(&models.SubscriptionModel{}).
		Where("agency_id = ?", p.AgencyID).
		Update("status", models.SubscriptionCanceled).Error
}

// SubscriptionFor returns the agency's mirrored subscription, or nil.
func (s *Service) SubscriptionFor(agencyID string) (*models.SubscriptionModel, error) {
	var sub models.SubscriptionModel
	err := s.db.Where("agency_id = ?", agencyID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
