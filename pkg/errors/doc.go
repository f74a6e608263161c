// Package errors provides structured error handling with error codes for
// the identity service.
//
// Every core operation returns a coded *Error instead of raising at the
// boundary; the HTTP layer maps codes to status classes with
// MapErrorCodeToHTTPStatus. Standard errors.Is/errors.As keep working
// through Unwrap.
//
// Creating errors:
//
//	err := errors.New(errors.ErrCodeUserNotFound, "user not found")
//	err := errors.Newf(errors.ErrCodeInvalidInput, "invalid email: %s", email)
//	err := errors.Wrap(dbErr, errors.ErrCodeInternal, "failed to query database")
//
// Inspecting errors:
//
//	if errors.IsCode(err, errors.ErrCodeCodeExpired) {
//		// ask the user to request a fresh code
//	}
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
package errors
