package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/services"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		query   string
		want    core.Period
		wantErr bool
	}{
		{"", core.NewPeriod(7, 2025), false},
		{"month=2", core.NewPeriod(2, 2025), false},
		{"year=2024", core.NewPeriod(7, 2024), false},
		{"month=12&year=2023", core.NewPeriod(12, 2023), false},
		{"month=%20", core.NewPeriod(7, 2025), false},
		{"month=0", core.Period{}, true},
		{"month=13", core.Period{}, true},
		{"year=twenty", core.Period{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/budget/items?"+tt.query, nil)
			got, err := parsePeriod(r, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePeriod() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePeriod() = %v, want %v", got, tt.want)
			}
			if err != nil && toAPIError(err).Status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", toAPIError(err).Status)
			}
		})
	}
}

func TestUpdateItemRequestToPatch(t *testing.T) {
	month, name := 5, "  Rent "
	req := updateItemRequest{Month: &month, Name: &name}
	patch := req.toPatch(core.NewPeriod(1, 2024))

	if patch.Period == nil || *patch.Period != core.NewPeriod(5, 2024) {
		t.Fatalf("Period = %v, want 2024-05", patch.Period)
	}
	if patch.Name == nil || *patch.Name != "Rent" {
		t.Fatalf("Name = %v", patch.Name)
	}
	if patch.Amount != nil || patch.CategoryID != nil || patch.Repeat != nil || patch.ItemType != nil {
		t.Fatalf("unset fields must stay nil: %+v", patch)
	}

	if empty := (updateItemRequest{}).toPatch(core.NewPeriod(1, 2024)); empty.Period != nil {
		t.Fatalf("no month or year must keep the anchor, got %v", empty.Period)
	}
}

func TestUpdateTransactionRequestToPatch(t *testing.T) {
	amount := core.NewMoney(decimal.RequireFromString("-12.5"))
	date := time.Date(2025, 11, 30, 23, 0, 0, 0, time.UTC)
	patch := updateTransactionRequest{Amount: &amount, Date: &date}.toPatch()

	if patch.Amount == nil || patch.Amount.String() != "12.50" {
		t.Fatalf("Amount = %v, want 12.50", patch.Amount)
	}
	if patch.Period == nil || *patch.Period != core.NewPeriod(11, 2025) {
		t.Fatalf("Period = %v", patch.Period)
	}
}

func TestValidateStructMessages(t *testing.T) {
	err := validateStruct(&createItemRequest{Name: "x", ItemType: "gift", Month: 13, Year: 2025, Repeat: 1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"categoryId is required", "itemType must be one of: income expense", "month must be at most 12"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", core.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"has items", core.ErrCategoryHasItems, http.StatusBadRequest, "CATEGORY_HAS_ITEMS"},
		{"duplicate", core.ErrDuplicateCategory, http.StatusConflict, "DUPLICATE_CATEGORY"},
		{"default", core.ErrDefaultCategory, http.StatusBadRequest, "DEFAULT_CATEGORY"},
		{"mismatch", core.ErrTypeMismatch, http.StatusBadRequest, "TYPE_MISMATCH"},
		{"amount", core.ErrInvalidAmount, http.StatusBadRequest, ""},
		{"policy", services.ErrInvalidDeletePolicy, http.StatusBadRequest, ""},
		{"period kind", core.ErrInvalidPeriodKind, http.StatusBadRequest, ""},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := toAPIError(tt.err)
			if ae.Status != tt.status || ae.Code != tt.code {
				t.Fatalf("toAPIError() = %+v, want %d %q", ae, tt.status, tt.code)
			}
		})
	}
	if msg := toAPIError(errors.New("secret detail")).Message; strings.Contains(msg, "secret") {
		t.Fatalf("server errors must not leak detail, got %q", msg)
	}
}
