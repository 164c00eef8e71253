package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"budget/internal/core"
	"budget/internal/services"
)

const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

type createCategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=200"`
	Type string `json:"type" validate:"required,oneof=income expense mixed"`
}

type renameCategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=200"`
}

type visibilityRequest struct {
	IsVisible *bool `json:"isVisible" validate:"required"`
}

type createItemRequest struct {
	CategoryID string     `json:"categoryId" validate:"required"`
	Name       string     `json:"name" validate:"required,notblank,max=200"`
	Amount     core.Money `json:"amount"`
	ItemType   string     `json:"itemType" validate:"required,oneof=income expense"`
	Month      int        `json:"month" validate:"required,min=1,max=12"`
	Year       int        `json:"year" validate:"required,min=1900,max=9999"`
	Repeat     int        `json:"repeat" validate:"required,min=1,max=4"`
}

func (req createItemRequest) toInput() services.ItemInput {
	return services.ItemInput{
		CategoryID: req.CategoryID,
		Name:       strings.TrimSpace(req.Name),
		Amount:     req.Amount,
		ItemType:   core.ItemType(req.ItemType),
		Period:     core.NewPeriod(req.Month, req.Year),
		Repeat:     core.Repeat(req.Repeat),
	}
}

// updateItemRequest is a partial update. Month and year move the anchor
// together; a lone month keeps the stored year.
type updateItemRequest struct {
	CategoryID *string     `json:"categoryId" validate:"omitnil,min=1"`
	Name       *string     `json:"name" validate:"omitnil,notblank,max=200"`
	Amount     *core.Money `json:"amount"`
	ItemType   *string     `json:"itemType" validate:"omitnil,oneof=income expense"`
	Month      *int        `json:"month" validate:"omitnil,min=1,max=12"`
	Year       *int        `json:"year" validate:"omitnil,min=1900,max=9999"`
	Repeat     *int        `json:"repeat" validate:"omitnil,min=1,max=4"`
}

func (req updateItemRequest) toPatch(current core.Period) services.ItemPatch {
	var patch services.ItemPatch
	patch.CategoryID = req.CategoryID
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}
	patch.Amount = req.Amount
	if req.ItemType != nil {
		t := core.ItemType(*req.ItemType)
		patch.ItemType = &t
	}
	if req.Month != nil || req.Year != nil {
		p := current
		if req.Month != nil {
			p.Month = *req.Month
		}
		if req.Year != nil {
			p.Year = *req.Year
		}
		patch.Period = &p
	}
	if req.Repeat != nil {
		r := core.Repeat(*req.Repeat)
		patch.Repeat = &r
	}
	return patch
}

// updateTransactionRequest edits an item through its dashboard view. The
// amount sign is ignored and a date moves the anchor to its month.
type updateTransactionRequest struct {
	Name   *string     `json:"name" validate:"omitnil,notblank,max=200"`
	Amount *core.Money `json:"amount"`
	Date   *time.Time  `json:"date"`
}

func (req updateTransactionRequest) toPatch() services.ItemPatch {
	var patch services.ItemPatch
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}
	if req.Amount != nil {
		abs := core.NewMoney(req.Amount.Decimal.Abs())
		patch.Amount = &abs
	}
	if req.Date != nil {
		p := core.PeriodOf(*req.Date)
		patch.Period = &p
	}
	return patch
}

// decodeJSON reads a single JSON object into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return &apiError{Status: http.StatusRequestEntityTooLarge, Message: "request body too large"}
		default:
			return badRequest("invalid JSON: " + err.Error())
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldErrorToString(e))
	}
	return badRequest("invalid input: " + strings.Join(msgs, "; "))
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

// parsePeriod reads month and year from the query, defaulting each to the
// period containing now. Present but malformed values are rejected.
func parsePeriod(r *http.Request, now time.Time) (core.Period, error) {
	p := core.PeriodOf(now)
	var err error
	if p.Year, err = queryInt(r, "year", p.Year); err != nil {
		return core.Period{}, err
	}
	if p.Month, err = queryInt(r, "month", p.Month); err != nil {
		return core.Period{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest(fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}
