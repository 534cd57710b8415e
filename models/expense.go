package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Expense is a receipt-style draft: scalars plus a flat image list.
type Expense struct {
	ID            string             `json:"id"`
	TenantId      string             `json:"tenantId" validate:"required"`
	Description   string             `json:"description" validate:"required"`
	Amount        decimal.Decimal    `json:"amount"`
	ExpenseDate   Millis             `json:"expenseDate"`
	Category      string             `json:"category"`
	Notes         string             `json:"notes"`
	CreatedAt     Millis             `json:"createdAt"`
	ImageUrls     []string           `json:"imageUrls"`
	PendingImages []*PendingResource `json:"pendingImages"`
}

func NewExpense(tenantId string) *Expense {
	return &Expense{
		TenantId:  tenantId,
		CreatedAt: NowMillis(),
	}
}

// ParseAmountDigits converts the mobile text-field convention of a raw digit
// stream in cents: "1250" means 12.50.
func ParseAmountDigits(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errors.New("amount is required")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return decimal.Zero, fmt.Errorf("amount %q must be digits only", raw)
		}
	}
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q out of range", raw)
	}
	return decimal.New(cents, -2), nil
}

func (e *Expense) Collection() string { return CollectionExpenses }
func (e *Expense) GetID() string      { return e.ID }
func (e *Expense) SetID(id string)    { e.ID = id }
func (e *Expense) Tenant() string     { return e.TenantId }

func (e *Expense) Validate(finalizing bool) error {
	if err := validateStruct(e); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if len(e.ImageUrls)+len(e.PendingImages) < 1 {
		return errors.New("at least one receipt image is required")
	}
	return nil
}

func (e *Expense) Pending() []*PendingResource {
	return e.PendingImages
}

func (e *Expense) PendingUploads(now Millis) []PendingUpload {
	ups := make([]PendingUpload, 0, len(e.PendingImages))
	for i, p := range e.PendingImages {
		ups = append(ups, PendingUpload{
			Resource: p,
			Name:     imageObjectName(now, i, p.FileExt),
			Assign:   func(url string) { e.ImageUrls = append(e.ImageUrls, url) },
		})
	}
	return ups
}

func (e *Expense) ClearPending() {
	e.PendingImages = nil
}

func (e *Expense) Document() map[string]any {
	return map[string]any{
		"tenantId":    e.TenantId,
		"description": e.Description,
		"amount":      e.Amount.String(),
		"expenseDate": e.ExpenseDate,
		"category":    e.Category,
		"notes":       e.Notes,
		"createdAt":   e.CreatedAt,
		"imageUrls":   e.ImageUrls,
	}
}

func (e *Expense) Clone() (Aggregate, error) {
	c, err := cloneAggregate(e)
	if err != nil {
		return nil, err
	}
	copyPendingData(c.PendingImages, e.PendingImages)
	return c, nil
}

func ExpenseFromDocument(id string, doc map[string]any) (*Expense, error) {
	amount, err := decimalFromDoc(doc, "amount")
	if err != nil {
		return nil, err
	}
	return &Expense{
		ID:          id,
		TenantId:    docString(doc, "tenantId"),
		Description: docString(doc, "description"),
		Amount:      amount,
		ExpenseDate: MillisFromAny(doc["expenseDate"]),
		Category:    docString(doc, "category"),
		Notes:       docString(doc, "notes"),
		CreatedAt:   MillisFromAny(doc["createdAt"]),
		ImageUrls:   docStringList(doc, "imageUrls"),
	}, nil
}

// The legacy client wrote amounts as JSON numbers; v2 documents use strings.
func decimalFromDoc(doc map[string]any, key string) (decimal.Decimal, error) {
	switch v := doc[key].(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported %s value %T", key, v)
	}
}
