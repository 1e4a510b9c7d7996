package types

import "github.com/go-playground/validator/v10"

// Validate is the shared struct-tag validator for every OCPP payload
// and domain type carrying `validate:"..."` tags in this module. The
// teacher's own types package carried these tags without ever
// instantiating a validator; here they are load-bearing.
var Validate = validator.New()
