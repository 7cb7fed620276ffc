package response

import (
	"errors"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

var kindStatus = map[domain.Kind]int{
	domain.KindValidation:   CodeBadRequest,
	domain.KindAuth:         CodeUnauthorized,
	domain.KindForbidden:    CodeForbidden,
	domain.KindNotFound:     CodeNotFound,
	domain.KindInvalidState: CodeBadRequest,
	domain.KindConflict:     CodeBadRequest,
	domain.KindGeneration:   CodeBadGateway,
}

// FromError maps a service error onto its HTTP problem. Foreign errors
// become a 500 carrying the error text.
func FromError(err error) Problem {
	var de *domain.Error
	if !errors.As(err, &de) {
		return Error(CodeServerError, err.Error())
	}
	code, ok := kindStatus[de.Kind]
	if !ok {
		return Error(CodeServerError, err.Error())
	}
	detail := de.Msg
	if de.Kind == domain.KindGeneration || detail == "" {
		detail = de.Error()
	}
	return Error(code, detail)
}
