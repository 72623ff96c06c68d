package services

import "github.com/go-playground/validator/v10"

// validate checks single values for callers that bypass the HTTP payloads.
var validate = validator.New(validator.WithRequiredStructEnabled())
