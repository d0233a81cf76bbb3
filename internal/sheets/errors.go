package sheets

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Permanent reports whether err is an API rejection that retrying the same
// request cannot fix, such as a missing spreadsheet or revoked permission.
// Rate limits, timeouts, server errors and network failures are transient.
func Permanent(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	switch gerr.Code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return gerr.Code >= 400 && gerr.Code < 500
}
