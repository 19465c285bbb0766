package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"invoicing/internal/apperr"
	"invoicing/internal/domain"
	"invoicing/internal/service"
	"invoicing/internal/store"
)

// Date accepts YYYY-MM-DD or RFC 3339 timestamps.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, _, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// parseDate parses s and reports whether it carried only a calendar date.
func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", s)
}

type itemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type createInvoiceRequest struct {
	ClientID          uint            `json:"clientId" binding:"required"`
	DueDate           Date            `json:"dueDate"`
	Items             []itemRequest   `json:"items"`
	TaxRate           decimal.Decimal `json:"taxRate"`
	Notes             string          `json:"notes"`
	IsRecurring       bool            `json:"isRecurring"`
	RecurringInterval string          `json:"recurringInterval"`
}

type updateInvoiceRequest struct {
	ClientID          *uint            `json:"clientId"`
	DueDate           *Date            `json:"dueDate"`
	Items             []itemRequest    `json:"items"` // present replaces all items
	TaxRate           *decimal.Decimal `json:"taxRate"`
	Notes             *string          `json:"notes"`
	IsRecurring       *bool            `json:"isRecurring"`
	RecurringInterval *string          `json:"recurringInterval"`
}

type statusRequest struct {
	Status domain.InvoiceStatus `json:"status" binding:"required"`
}

type clientRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Name        string `json:"name" binding:"required"`
	CompanyName string `json:"companyName"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	CompanyName *string `json:"companyName"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	LogoURL     *string `json:"logoUrl" binding:"omitempty,url"`
}

type adminUserRequest struct {
	Name        *string      `json:"name" binding:"omitempty,min=1"`
	Email       *string      `json:"email" binding:"omitempty,email"`
	Role        *domain.Role `json:"role" binding:"omitempty,oneof=USER ADMIN"`
	CompanyName *string      `json:"companyName"`
	Address     *string      `json:"address"`
	Phone       *string      `json:"phone"`
}

func items(in []itemRequest) []service.ItemInput {
	if in == nil {
		return nil
	}
	out := make([]service.ItemInput, len(in))
	for i, it := range in {
		out[i] = service.ItemInput{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

func (r createInvoiceRequest) input() service.InvoiceInput {
	return service.InvoiceInput{
		ClientID:          r.ClientID,
		DueDate:           r.DueDate.Time,
		Items:             items(r.Items),
		TaxRate:           r.TaxRate,
		Notes:             r.Notes,
		IsRecurring:       r.IsRecurring,
		RecurringInterval: r.RecurringInterval,
	}
}

func (r updateInvoiceRequest) update() service.InvoiceUpdate {
	upd := service.InvoiceUpdate{
		ClientID:          r.ClientID,
		Items:             items(r.Items),
		TaxRate:           r.TaxRate,
		Notes:             r.Notes,
		IsRecurring:       r.IsRecurring,
		RecurringInterval: r.RecurringInterval,
	}
	if r.DueDate != nil {
		upd.DueDate = &r.DueDate.Time
	}
	return upd
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Field(name, "must be a positive integer")
	}
	return uint(id), nil
}

// invoiceFilter reads status, clientId, userId, dateFrom and dateTo from
// the query string. A date-only dateTo includes the whole day.
func invoiceFilter(c *gin.Context) (store.InvoiceFilter, error) {
	var f store.InvoiceFilter
	if s := c.Query("status"); s != "" {
		f.Status = domain.InvoiceStatus(strings.ToUpper(s))
		if !f.Status.Valid() {
			return f, apperr.Field("status", "unknown status")
		}
	}
	for name, dst := range map[string]*uint{"clientId": &f.ClientID, "userId": &f.UserID} {
		if s := c.Query(name); s != "" {
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return f, apperr.Field(name, "must be a positive integer")
			}
			*dst = uint(v)
		}
	}
	if s := c.Query("dateFrom"); s != "" {
		t, _, err := parseDate(s)
		if err != nil {
			return f, apperr.Field("dateFrom", err.Error())
		}
		f.From = t
	}
	if s := c.Query("dateTo"); s != "" {
		t, dateOnly, err := parseDate(s)
		if err != nil {
			return f, apperr.Field("dateTo", err.Error())
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	return f, nil
}
