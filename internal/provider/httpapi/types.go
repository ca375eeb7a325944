// Package httpapi implements a Provider that sends emails through a single
// JSON HTTP endpoint authenticated with a static API key, such as a
// Google Apps Script web app.
package httpapi

import (
	"strings"

	"github.com/shineum/mail-broadcast-lite/internal/email"
)

// sendEndpoint is the operation name the remote script dispatches on.
const sendEndpoint = "send-email"

// sendRequest is the request body for the send-email operation.
type sendRequest struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	FromName string `json:"from_name"`
	HTMLBody string `json:"html_body,omitempty"`
	Cc       string `json:"cc,omitempty"`
	Bcc      string `json:"bcc,omitempty"`
}

// sendResponse covers both the success and the error response shapes.
type sendResponse struct {
	Success bool `json:"success"`
	Data    struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

// apiError represents the error detail in an error response.
type apiError struct {
	Message string `json:"message"`
}

// healthResponse is returned by the health path.
type healthResponse struct {
	Data struct {
		Version  string `json:"version"`
		Services any    `json:"services"`
	} `json:"data"`
}

// buildSendRequest converts an email.Email into the endpoint's request body.
func buildSendRequest(apiKey string, msg *email.Email) *sendRequest {
	return &sendRequest{
		Endpoint: sendEndpoint,
		APIKey:   apiKey,
		To:       strings.Join(msg.To, ","),
		Subject:  msg.Subject,
		Body:     msg.TextBody,
		FromName: msg.FromName,
		HTMLBody: msg.HtmlBody,
		Cc:       strings.Join(msg.Cc, ","),
		Bcc:      strings.Join(msg.Bcc, ","),
	}
}
