package service

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/aldermarket/alder/internal/domain"
)

// createProductInput is the validation view of a create request.
// Fields are trimmed before validation.
type createProductInput struct {
	ID          string          `validate:"omitempty,max=64"`
	Name        string          `validate:"required,max=255"`
	Description string          `validate:"required"`
	Price       decimal.Decimal `validate:"gt=0"`
	CategoryID  string          `validate:"required"`
	Unit        string          `validate:"omitempty,max=32"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(decimalToFloat, decimal.Decimal{})
	return v
}

// decimalToFloat lets validator apply numeric rules (gt, required) to
// decimal.Decimal fields.
func decimalToFloat(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// fieldMessages translates validator tags into the user-facing messages
// surfaced through domain.ValidationError.
var fieldMessages = map[string]map[string]string{
	"Name": {
		"required": "name is required",
		"max":      "name is too long",
	},
	"Description": {
		"required": "description is required",
	},
	"Price": {
		"gt": "price must be positive",
	},
	"CategoryID": {
		"required": "category is required",
	},
	"ID": {
		"max": "id is too long",
	},
	"Unit": {
		"max": "unit is too long",
	},
}

// translateValidation converts a validator error into a field-level
// domain.ValidationError. Non-validator errors pass through wrapped.
func translateValidation(err error, op string) error {
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.Internal(err, op, "validation failed")
	}

	ve := &domain.ValidationError{Op: op, Fields: map[string]string{}}
	for _, fe := range verrs {
		msg := fieldMessages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = "invalid value"
		}
		ve.Fields[fieldName(fe.Field())] = msg
	}
	return ve
}

func fieldName(structField string) string {
	switch structField {
	case "Name":
		return "name"
	case "Description":
		return "description"
	case "Price":
		return "price"
	case "CategoryID":
		return "category_id"
	case "ID":
		return "id"
	case "Unit":
		return "unit"
	}
	return structField
}
