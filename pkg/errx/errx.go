package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error for transport mapping and logging
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeBusiness      Type = "BUSINESS"
	TypeInternal      Type = "INTERNAL"
	TypeExternal      Type = "EXTERNAL"
)

// defaultStatus is the HTTP status used when an error was not created from a registry
var defaultStatus = map[Type]int{
	TypeValidation:    http.StatusBadRequest,
	TypeNotFound:      http.StatusNotFound,
	TypeConflict:      http.StatusConflict,
	TypeAuthorization: http.StatusForbidden,
	TypeBusiness:      http.StatusUnprocessableEntity,
	TypeInternal:      http.StatusInternalServerError,
	TypeExternal:      http.StatusBadGateway,
}

// Error is the error value carried across every layer of the service
type Error struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Type       Type           `json:"type"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code so registry errors compare equal across instances
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithDetail adds a detail entry and returns the same error for chaining
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges several details at once
func (e *Error) WithDetails(details map[string]any) *Error {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithCause attaches an underlying error
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// New creates a free-form error of the given type
func New(message string, t Type) *Error {
	return &Error{
		Code:       string(t),
		Message:    message,
		Type:       t,
		HTTPStatus: statusFor(t),
	}
}

// Wrap wraps err with a message. Wrapping an *Error keeps its code, type and status
// so the original classification reaches the transport layer.
func Wrap(err error, message string, t Type) *Error {
	if err == nil {
		return nil
	}
	var inner *Error
	if errors.As(err, &inner) {
		return &Error{
			Code:       inner.Code,
			Message:    message,
			Type:       inner.Type,
			HTTPStatus: inner.HTTPStatus,
			Details:    inner.Details,
			Err:        err,
		}
	}
	return &Error{
		Code:       string(t),
		Message:    message,
		Type:       t,
		HTTPStatus: statusFor(t),
		Err:        err,
	}
}

// IsType reports whether any error in the chain has the given type
func IsType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsCode reports whether any error in the chain carries code
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// HTTPStatus returns the transport status for err, 500 when unknown
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) && e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}

func statusFor(t Type) int {
	if s, ok := defaultStatus[t]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ============================================================================
// Registry
// ============================================================================

type definition struct {
	code    string
	typ     Type
	status  int
	message string
}

// Registry holds the error definitions of one package, prefixed by its namespace
type Registry struct {
	prefix string
	mu     sync.RWMutex
	defs   map[string]definition
}

// NewRegistry creates a registry whose codes are prefixed with prefix
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		defs:   make(map[string]definition),
	}
}

// Register defines an error and returns its fully qualified code
func (r *Registry) Register(code string, t Type, status int, message string) string {
	full := r.prefix + "_" + code

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[full] = definition{code: full, typ: t, status: status, message: message}
	return full
}

// New instantiates a registered error. Unknown codes produce an internal error.
func (r *Registry) New(code string) *Error {
	r.mu.RLock()
	def, ok := r.defs[code]
	r.mu.RUnlock()

	if !ok {
		return &Error{
			Code:       code,
			Message:    "unregistered error code",
			Type:       TypeInternal,
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	return &Error{
		Code:       def.code,
		Message:    def.message,
		Type:       def.typ,
		HTTPStatus: def.status,
	}
}

// NewWithCause instantiates a registered error wrapping err
func (r *Registry) NewWithCause(code string, err error) *Error {
	return r.New(code).WithCause(err)
}
