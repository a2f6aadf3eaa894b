package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceVector is the canonical balance representation: signed amount per currency code.
// A single scalar is only produced through conversion to an explicit target currency.
type BalanceVector map[string]decimal.Decimal

// NewBalanceVector returns an empty vector.
func NewBalanceVector() BalanceVector {
	return BalanceVector{}
}

// Add accumulates amount into the currency bucket.
func (v BalanceVector) Add(currency string, amount decimal.Decimal) {
	v[currency] = v[currency].Add(amount)
}

// Merge adds every bucket of other into v.
func (v BalanceVector) Merge(other BalanceVector) {
	for cur, amt := range other {
		v.Add(cur, amt)
	}
}

// Get returns the bucket for currency, zero when absent.
func (v BalanceVector) Get(currency string) decimal.Decimal {
	return v[currency]
}

// Currencies returns the currency codes present in v, sorted.
func (v BalanceVector) Currencies() []string {
	codes := make([]string, 0, len(v))
	for cur := range v {
		codes = append(codes, cur)
	}
	sort.Strings(codes)
	return codes
}

// Clone returns an independent copy.
func (v BalanceVector) Clone() BalanceVector {
	out := make(BalanceVector, len(v))
	for cur, amt := range v {
		out[cur] = amt
	}
	return out
}

// Neg returns a vector with every bucket negated.
func (v BalanceVector) Neg() BalanceVector {
	out := make(BalanceVector, len(v))
	for cur, amt := range v {
		out[cur] = amt.Neg()
	}
	return out
}

// EqualWithin compares two vectors bucket by bucket; missing buckets count as zero.
func (v BalanceVector) EqualWithin(other BalanceVector, tolerance decimal.Decimal) bool {
	for cur := range v {
		if v[cur].Sub(other[cur]).Abs().GreaterThan(tolerance) {
			return false
		}
	}
	for cur := range other {
		if v[cur].Sub(other[cur]).Abs().GreaterThan(tolerance) {
			return false
		}
	}
	return true
}

// IsZero reports whether every bucket is exactly zero.
func (v BalanceVector) IsZero() bool {
	for _, amt := range v {
		if !amt.IsZero() {
			return false
		}
	}
	return true
}

// Compact drops zero buckets.
func (v BalanceVector) Compact() BalanceVector {
	out := make(BalanceVector, len(v))
	for cur, amt := range v {
		if !amt.IsZero() {
			out[cur] = amt
		}
	}
	return out
}

// BalanceQuery parameterises an account balance lookup.
type BalanceQuery struct {
	AsOf           *time.Time // nil means unbounded
	IncludeSubtree bool
}

// AccountBalanceNode is one node of a balance tree: the account's own postings and its rolled-up subtree.
type AccountBalanceNode struct {
	Account Account       `json:"account"`
	Own     BalanceVector `json:"own"`
	Subtree BalanceVector `json:"subtree"`
}
