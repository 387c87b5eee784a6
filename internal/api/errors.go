package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Kind classifies a failed call
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindServer             Kind = "server_error"
	KindNetwork            Kind = "network_error"
	KindUnknown            Kind = "unknown"
)

var fallbackMessages = map[Kind]string{
	KindValidation:         "Invalid request",
	KindInvalidCredentials: "Invalid badge ID or password",
	KindUnauthenticated:    "Your session has expired. Please log in again.",
	KindForbidden:          "You do not have permission to perform this action",
	KindNotFound:           "The requested resource was not found",
	KindServer:             "Server error. Please try again later.",
	KindNetwork:            "Network error. Please check your connection.",
	KindUnknown:            "An error occurred",
}

// FallbackMessage is the text shown when the server gave no detail
func FallbackMessage(k Kind) string {
	if msg, ok := fallbackMessages[k]; ok {
		return msg
	}
	return fallbackMessages[KindUnknown]
}

// Sentinels for errors.Is
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrServer             = &Error{Kind: KindServer}
	ErrNetwork            = &Error{Kind: KindNetwork}
)

// Error is returned for every failed call through the Client
type Error struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return FallbackMessage(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindForStatus maps an HTTP status to a Kind.
// A 401 only means bad credentials on the login call itself.
func KindForStatus(status int, isLogin bool) Kind {
	switch {
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusUnauthorized:
		if isLogin {
			return KindInvalidCredentials
		}
		return KindUnauthenticated
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// KindOf returns the Kind of err, KindValidation for client-side
// validation failures and KindUnknown for anything else
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	return KindUnknown
}

// IsKind reports whether err has kind k
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// NewValidationError wraps a client-side validation failure
func NewValidationError(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// Validate runs v.Validate and converts a failure into an *Error
func Validate(v interface{ Validate() error }) error {
	if err := v.Validate(); err != nil {
		return NewValidationError(err)
	}
	return nil
}

func newStatusError(status int, body []byte, isLogin bool) *Error {
	kind := KindForStatus(status, isLogin)
	msg := detailMessage(body)
	if msg == "" || kind == KindUnauthenticated {
		msg = FallbackMessage(kind)
	}
	return &Error{Kind: kind, Status: status, Message: msg}
}

type validationDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// detailMessage pulls a human message out of an error body.
// FastAPI sends either a string detail or a list of field errors.
func detailMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		var items []validationDetail
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if field := fieldName(item.Loc); field != "" {
					parts = append(parts, field+": "+item.Msg)
				} else {
					parts = append(parts, item.Msg)
				}
			}
			return strings.Join(parts, "; ")
		}
	}
	return payload.Message
}

// fieldName takes the last element of a FastAPI loc, skipping "body"
func fieldName(loc []any) string {
	for i := len(loc) - 1; i >= 0; i-- {
		if s, ok := loc[i].(string); ok && s != "body" && s != "query" {
			return s
		}
	}
	return ""
}
