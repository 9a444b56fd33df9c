// Package payment wraps the external payment capability: authorize an amount
// against a payment method, get approved or declined back. Gateway protocol
// details stay outside the core.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Authorization struct {
	Approved      bool
	TransactionID string
	Reason        string
}

type Authorizer interface {
	Authorize(ctx context.Context, amount decimal.Decimal, methodID string) (*Authorization, error)
}

// Decision lets tests and local runs inject authorization behaviour.
type Decision interface {
	Decide(amount decimal.Decimal, methodID string) (approved bool, reason string)
}

// StubAuthorizer is a deterministic stand-in for the real gateway.
type StubAuthorizer struct {
	decision Decision
}

func NewStubAuthorizer(d Decision) *StubAuthorizer {
	return &StubAuthorizer{decision: d}
}

func (s *StubAuthorizer) Authorize(_ context.Context, amount decimal.Decimal, methodID string) (*Authorization, error) {
	approved, reason := s.decision.Decide(amount, methodID)
	auth := &Authorization{
		Approved: approved,
		Reason:   reason,
	}
	if approved {
		auth.TransactionID = fmt.Sprintf("TXN-%d", time.Now().UnixNano())
	}
	return auth, nil
}

// ApproveUnderLimit approves any amount up to Limit; above it, declines as the
// issuer would on an exceeded limit. A zero Limit approves everything.
type ApproveUnderLimit struct {
	Limit decimal.Decimal
}

func (d ApproveUnderLimit) Decide(amount decimal.Decimal, _ string) (bool, string) {
	if d.Limit.IsZero() || amount.LessThanOrEqual(d.Limit) {
		return true, ""
	}
	return false, fmt.Sprintf("amount %s exceeds authorization limit %s", amount, d.Limit)
}
