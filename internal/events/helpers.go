package events

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/duocall/backend/internal/validation"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := validation.Register(v, "roomname", validation.ValidateRoomName); err != nil {
		panic(err)
	}
	return v
}

// BindData is a helper to unmarshal and validate an event body
func BindData(data *json.RawMessage, v any) error {
	if data == nil {
		return ErrInvalidData("payload_required")
	}
	if err := json.Unmarshal(*data, v); err != nil {
		return ErrInvalidData("invalid_payload")
	}
	if err := validate.Struct(v); err != nil {
		return ErrInvalidData("invalid_payload")
	}
	return nil
}
