package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClaimKind enum constants
const (
	ClaimKindReturn   = "RETURN"
	ClaimKindExchange = "EXCHANGE"
	ClaimKindRefund   = "REFUND"
)

// ClaimStatus enum constants
const (
	ClaimPending  = "PENDING"
	ClaimApproved = "APPROVED"
	ClaimRejected = "REJECTED"
)

// Claim represents a return/exchange/refund request against a delivered order.
// Refunds are only paid out after approval.
type Claim struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Order           *Order          `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Kind            string          `gorm:"type:varchar(20);not null;index" json:"kind"` // RETURN, EXCHANGE, REFUND
	Reason          string          `gorm:"type:text;not null" json:"reason"`
	ItemsData       string          `gorm:"type:jsonb" json:"items_data"` // snapshot of the claimed line items
	RefundAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"refund_amount"`
	Status          string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedBy     *uuid.UUID      `gorm:"type:uuid;index" json:"requested_by"`
	Requester       *User           `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	ResolvedBy      *uuid.UUID      `gorm:"type:uuid" json:"resolved_by"`
	Resolver        *User           `gorm:"foreignKey:ResolvedBy" json:"resolver,omitempty"`
	ResolvedAt      *time.Time      `json:"resolved_at"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
