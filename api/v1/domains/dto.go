package domains

// SetupDomainRequest is the request body for attaching a custom domain
type SetupDomainRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// DomainStatusResponse reflects a site's persisted custom-domain state
type DomainStatusResponse struct {
	Domain         string `json:"domain"`
	HostnameID     string `json:"hostnameId"`
	RouteID        string `json:"routeId"`
	SSLStatus      string `json:"sslStatus"`
	CNAMETarget    string `json:"cnameTarget"`
	SSLActivatedAt *int64 `json:"sslActivatedAt"`
}
