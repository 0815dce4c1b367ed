package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeDomain       ErrorType = "DOMAIN_ERROR"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeUpstream     ErrorType = "UPSTREAM_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidFile      ErrorCode = "INVALID_FILE"

	ErrCodePaymentNotFound    ErrorCode = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeCardNotFound       ErrorCode = "CARD_NOT_FOUND"
	ErrCodeDuplicateCard      ErrorCode = "DUPLICATE_CARD_NUMBER"
	ErrCodePersonNotFound     ErrorCode = "PERSON_NOT_FOUND"
	ErrCodeAllocationNotFound ErrorCode = "ALLOCATION_NOT_FOUND"
	ErrCodeActiveAllocation   ErrorCode = "ACTIVE_ALLOCATION_EXISTS"
	ErrCodeAllocationClosed   ErrorCode = "ALLOCATION_NOT_ACTIVE"

	ErrCodeNotAllowed     ErrorCode = "NOT_ALLOWED"
	ErrCodeAdminRequired  ErrorCode = "ADMIN_REQUIRED"
	ErrCodeInvalidSecret  ErrorCode = "INVALID_CRON_SECRET"
	ErrCodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"

	ErrCodeRowStore ErrorCode = "ROW_STORE_ERROR"
	ErrCodeDocStore ErrorCode = "DOCUMENT_STORE_ERROR"
	ErrCodeMailer   ErrorCode = "MAILER_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Join() string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return strings.Join(messages, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldErrors(fieldErrors []ValidationError) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Dados invalidos",
		StatusCode: http.StatusBadRequest,
		Details:    ValidationErrors{Errors: fieldErrors},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewDomainError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeDomain,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Code:       ErrCodeTooManyRequest,
		Message:    "Muitas requisicoes. Tente novamente.",
		StatusCode: http.StatusTooManyRequests,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewUpstreamError wraps a failure from an external collaborator (row store,
// document store, mailer) with a human-readable prefix.
func NewUpstreamError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

var (
	ErrPaymentNotFound    = NewNotFoundError("Pagamento nao encontrado", ErrCodePaymentNotFound)
	ErrCardNotFound       = NewNotFoundError("Cartao nao encontrado", ErrCodeCardNotFound)
	ErrPersonNotFound     = NewNotFoundError("Pessoa nao encontrada", ErrCodePersonNotFound)
	ErrAllocationNotFound = NewNotFoundError("Alocacao nao encontrada", ErrCodeAllocationNotFound)

	ErrDuplicateCardNumber = NewDomainError("Numero de cartao ja cadastrado.", ErrCodeDuplicateCard)
	ErrActiveAllocation    = NewDomainError("Jaa existe uma alocaaCaoo ativa para este cartaoo.", ErrCodeActiveAllocation)
	ErrAllocationNotActive = NewDomainError("AlocaaCaoo naoo estaa ativa.", ErrCodeAllocationClosed)

	ErrNotAllowed    = NewForbiddenError("Acesso negado.", ErrCodeNotAllowed)
	ErrAdminRequired = NewForbiddenError("Acesso restrito a administradores.", ErrCodeAdminRequired)
	ErrUnauthorized  = NewUnauthorizedError("Unauthorized", ErrCodeInvalidSecret)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, map[string]interface{}{"error": e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
