package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeStateConflict     Code = "STATE_CONFLICT"
	CodeRender            Code = "RENDER_ERROR"
	CodeStorage           Code = "STORAGE_ERROR"
	CodeTransport         Code = "TRANSPORT_ERROR"
	CodeCredentialMissing Code = "CREDENTIAL_MISSING"
	CodePostCommit        Code = "POST_COMMIT_ERROR"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeConflict: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      true,
		PublicMessage:  "conflict detected, refresh and retry",
		DetailsAllowed: true,
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeRender: {
		HTTPStatus:     http.StatusBadGateway,
		Retryable:      true,
		PublicMessage:  "document rendering failed",
		DetailsAllowed: true,
	},
	CodeStorage: {
		HTTPStatus:     http.StatusBadGateway,
		Retryable:      true,
		PublicMessage:  "document rendered but storage write failed",
		DetailsAllowed: true,
	},
	CodeTransport: {
		HTTPStatus:     http.StatusBadGateway,
		Retryable:      true,
		PublicMessage:  "email transport failed",
		DetailsAllowed: true,
	},
	CodeCredentialMissing: {
		HTTPStatus:     http.StatusBadGateway,
		Retryable:      false,
		PublicMessage:  "mail credentials unavailable",
		DetailsAllowed: true,
	},
	CodePostCommit: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      false,
		PublicMessage:  "email sent but bookkeeping failed, manual review required",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      true,
		PublicMessage:  "internal server error",
		DetailsAllowed: false,
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
