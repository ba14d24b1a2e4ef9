package remote

import (
	"fmt"
	"strings"
)

// ResponseType is the kind of an authorization response.
type ResponseType string

// Authorization response types.
const (
	ResponseToken   ResponseType = "token"
	ResponseCode    ResponseType = "code"
	ResponseError   ResponseType = "error"
	ResponseEmpty   ResponseType = "empty"
	ResponseUnknown ResponseType = "unknown"
)

// ParseResponseType parses a requested response type. Enum-style names
// such as "TOKEN" are accepted.
func ParseResponseType(value string) (ResponseType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "token":
		return ResponseToken, nil
	case "code":
		return ResponseCode, nil
	default:
		return "", fmt.Errorf("unsupported authType %q", value)
	}
}

// AuthorizationRequest is handed to the login UI.
type AuthorizationRequest struct {
	ClientID     string
	RedirectURI  string
	ResponseType ResponseType
	Scopes       []string
	ShowDialog   bool
}

// AuthorizationResponse is the login UI's result.
type AuthorizationResponse struct {
	Type        ResponseType
	AccessToken string
	Code        string
	Error       string
	State       string
	ExpiresIn   int
}
