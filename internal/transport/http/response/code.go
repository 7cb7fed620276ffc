package response

import "net/http"

const (
	CodeBadRequest      = http.StatusBadRequest
	CodeUnauthorized    = http.StatusUnauthorized
	CodeForbidden       = http.StatusForbidden
	CodeNotFound        = http.StatusNotFound
	CodeTooLarge        = http.StatusRequestEntityTooLarge
	CodeTooManyRequests = http.StatusTooManyRequests
	CodeServerError     = http.StatusInternalServerError
	CodeBadGateway      = http.StatusBadGateway
	CodeUnavailable     = http.StatusServiceUnavailable
	CodeGatewayTimeout  = http.StatusGatewayTimeout
)

var CodeMsgMap = map[int]string{
	CodeBadRequest:      "Bad Request",
	CodeUnauthorized:    "Not authenticated",
	CodeForbidden:       "Access forbidden",
	CodeNotFound:        "Not Found",
	CodeTooLarge:        "Request body too large",
	CodeTooManyRequests: "Too many requests",
	CodeServerError:     "Internal Server Error",
	CodeBadGateway:      "Report generation failed",
	CodeUnavailable:     "Server busy",
	CodeGatewayTimeout:  "Request timed out",
}
