package provisioning

import (
	"fmt"

	"siteforge/internal/edge"
)

const dnsRecordTTL = 300

// DNSRecord is one record the customer must add at their own DNS host.
type DNSRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
	TTL   int    `json:"ttl"`
}

// DNSInstructions is the customer-facing record set for a custom domain: a
// CNAME pointing the apex at the platform proxy and the TXT ownership
// challenge. Derived on demand, never persisted as a whole.
type DNSInstructions struct {
	CNAME DNSRecord `json:"cname"`
	TXT   DNSRecord `json:"txt"`
}

// deriveDNSInstructions builds the record set from a custom hostname's
// verification data. Pure function of its inputs. Fails when the provider
// has not yet populated the ownership challenge.
func deriveDNSInstructions(hostname *edge.CustomHostname, proxySubdomain, platformDomain string) (*DNSInstructions, error) {
	v := hostname.OwnershipVerification
	if v.Name == "" || v.Value == "" {
		return nil, fmt.Errorf("ownership verification for %s not yet available from provider", hostname.Hostname)
	}

	return &DNSInstructions{
		CNAME: DNSRecord{
			Type:  "CNAME",
			Name:  "@",
			Value: fmt.Sprintf("%s.%s", proxySubdomain, platformDomain),
			TTL:   dnsRecordTTL,
		},
		TXT: DNSRecord{
			Type:  "TXT",
			Name:  v.Name,
			Value: v.Value,
			TTL:   dnsRecordTTL,
		},
	}, nil
}
