package iam

import (
	"net/http"

	"github.com/Abraxas-365/hireline/pkg/errx"
)

// ============================================================================
// Error Registry - errores compartidos de IAM
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized       = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Authentication required")
	CodeForbidden          = ErrRegistry.Register("FORBIDDEN", errx.TypeAuthorization, http.StatusForbidden, "Insufficient permissions")
	CodeInvalidRole        = ErrRegistry.Register("INVALID_ROLE", errx.TypeValidation, http.StatusBadRequest, "Unknown role")
	CodeMissingRoleLink    = ErrRegistry.Register("MISSING_ROLE_LINK", errx.TypeValidation, http.StatusBadRequest, "Role requires a linked record")
	CodeWeakPassword       = ErrRegistry.Register("WEAK_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password is too short")
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid email or password")
)

func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrForbidden() *errx.Error {
	return ErrRegistry.New(CodeForbidden)
}

func ErrInvalidRole() *errx.Error {
	return ErrRegistry.New(CodeInvalidRole)
}

func ErrMissingRoleLink() *errx.Error {
	return ErrRegistry.New(CodeMissingRoleLink)
}

func ErrWeakPassword() *errx.Error {
	return ErrRegistry.New(CodeWeakPassword)
}

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}
