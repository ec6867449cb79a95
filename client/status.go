package client

import "net/http"

// CheckStatus maps an HTTP status code to nil or an [*Error] of the
// matching kind. 2xx is success; 500-599 and any other unmapped code
// keep the code in StatusCode.
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == http.StatusBadRequest:
		return &Error{Kind: ErrBadRequest, StatusCode: code}
	case code == http.StatusUnauthorized:
		return &Error{Kind: ErrUnauthorized, StatusCode: code}
	case code == http.StatusForbidden:
		return &Error{Kind: ErrForbidden, StatusCode: code}
	case code == http.StatusNotFound:
		return &Error{Kind: ErrNotFound, StatusCode: code}
	case code >= 500 && code <= 599:
		return &Error{Kind: ErrServerError, StatusCode: code}
	default:
		return &Error{Kind: ErrUnhandledStatus, StatusCode: code}
	}
}
