package edge

import (
	"encoding/json"
	"time"
)

// SSL certificate status values reported by the provider for a custom
// hostname. The provider drives these transitions asynchronously; we only
// ever observe them.
const (
	SSLStatusInitializing      = "initializing"
	SSLStatusPendingValidation = "pending_validation"
	SSLStatusPendingIssuance   = "pending_issuance"
	SSLStatusPendingDeployment = "pending_deployment"
	SSLStatusActive            = "active"
	SSLStatusExpired           = "expired"
	SSLStatusDeactivating      = "deactivating"
	SSLStatusInactive          = "inactive"
	SSLStatusDeleted           = "deleted"

	SSLStatusValidationTimedOut = "validation_timed_out"
	SSLStatusIssuanceTimedOut   = "issuance_timed_out"
	SSLStatusDeploymentTimedOut = "deployment_timed_out"
)

// IsSSLStatusTimedOut reports whether the status is one of the timeout
// branches (validation_timed_out, issuance_timed_out, ...).
func IsSSLStatusTimedOut(status string) bool {
	switch status {
	case SSLStatusValidationTimedOut, SSLStatusIssuanceTimedOut, SSLStatusDeploymentTimedOut:
		return true
	}
	return false
}

// TerminalSSLStatuses lists the states a hostname never leaves without
// operator action. Reconciliation skips sites parked in one of these.
func TerminalSSLStatuses() []string {
	return []string{
		SSLStatusActive,
		SSLStatusExpired,
		SSLStatusDeleted,
		SSLStatusValidationTimedOut,
		SSLStatusIssuanceTimedOut,
		SSLStatusDeploymentTimedOut,
	}
}

// OwnershipVerification is the TXT challenge the domain owner must publish
// before the provider will issue a certificate.
type OwnershipVerification struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CustomHostnameSSL carries the certificate state inside a custom hostname.
type CustomHostnameSSL struct {
	Status string `json:"status"`
	Method string `json:"method"`
	Type   string `json:"type"`
}

// CustomHostname represents a provider-side custom hostname resource.
type CustomHostname struct {
	ID                    string                `json:"id"`
	Hostname              string                `json:"hostname"`
	SSL                   CustomHostnameSSL     `json:"ssl"`
	OwnershipVerification OwnershipVerification `json:"ownership_verification"`
	CreatedAt             time.Time             `json:"created_at"`
}

// WorkerRoute represents a provider-side routing rule directing requests
// matching Pattern to the named worker script.
type WorkerRoute struct {
	ID      string `json:"id"`
	Pattern string `json:"pattern"`
	Script  string `json:"script"`
}

// apiResponse is the provider's standard response envelope.
type apiResponse struct {
	Success  bool            `json:"success"`
	Errors   []ResponseError `json:"errors"`
	Messages []string        `json:"messages"`
	Result   json.RawMessage `json:"result"`
}

// ResponseError is a single structured error inside the envelope.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// createHostnameRequest is the payload for creating a custom hostname.
type createHostnameRequest struct {
	Hostname string            `json:"hostname"`
	SSL      CustomHostnameSSL `json:"ssl"`
}

// createRouteRequest is the payload for creating a worker route.
type createRouteRequest struct {
	Pattern string `json:"pattern"`
	Script  string `json:"script"`
}
