package dto

import (
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Name            string             `json:"name" validate:"required,max=255"`
	AccountType     domain.AccountType `json:"accountType" validate:"required,oneof=assets liabilities equity revenue expense"`
	CurrencyCode    string             `json:"currencyCode" validate:"required,len=3"`
	ParentAccountID *string            `json:"parentAccountID" validate:"omitempty,min=1"` // Optional, nil for a root account
	Description     string             `json:"description" validate:"max=1024"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
// Type, currency and parent are not updatable here; see Reparent for moving an account.
type UpdateAccountRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
	IsActive    *bool   `json:"isActive"`
}
