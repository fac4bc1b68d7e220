// Package api holds the response bodies shared by every HTTP handler.
package api

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StatusResponse is a plain status/message acknowledgement.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
