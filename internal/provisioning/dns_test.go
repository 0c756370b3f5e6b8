package provisioning

import (
	"testing"

	"siteforge/internal/edge"
)

func TestDeriveDNSInstructions(t *testing.T) {
	hostname := &edge.CustomHostname{
		ID:       "ch-1",
		Hostname: "shop.example.com",
		OwnershipVerification: edge.OwnershipVerification{
			Type:  "txt",
			Name:  "_platform-verify.shop.example.com",
			Value: "verify-token-123",
		},
	}

	dns, err := deriveDNSInstructions(hostname, "site-proxy", "platform.io")
	if err != nil {
		t.Fatalf("deriveDNSInstructions failed: %v", err)
	}

	if dns.CNAME.Type != "CNAME" || dns.CNAME.Name != "@" {
		t.Errorf("unexpected CNAME record: %+v", dns.CNAME)
	}
	if dns.CNAME.Value != "site-proxy.platform.io" {
		t.Errorf("expected CNAME target site-proxy.platform.io, got %s", dns.CNAME.Value)
	}
	if dns.CNAME.TTL != 300 || dns.TXT.TTL != 300 {
		t.Errorf("expected TTL 300 on both records, got %d/%d", dns.CNAME.TTL, dns.TXT.TTL)
	}
	if dns.TXT.Name != "_platform-verify.shop.example.com" || dns.TXT.Value != "verify-token-123" {
		t.Errorf("unexpected TXT record: %+v", dns.TXT)
	}
}

func TestDeriveDNSInstructions_Deterministic(t *testing.T) {
	hostname := &edge.CustomHostname{
		Hostname: "shop.example.com",
		OwnershipVerification: edge.OwnershipVerification{
			Name:  "_platform-verify.shop.example.com",
			Value: "verify-token-123",
		},
	}

	first, err := deriveDNSInstructions(hostname, "site-proxy", "platform.io")
	if err != nil {
		t.Fatalf("deriveDNSInstructions failed: %v", err)
	}
	second, err := deriveDNSInstructions(hostname, "site-proxy", "platform.io")
	if err != nil {
		t.Fatalf("deriveDNSInstructions failed: %v", err)
	}
	if *first != *second {
		t.Errorf("derivation is not deterministic: %+v vs %+v", first, second)
	}
}

func TestDeriveDNSInstructions_MissingVerification(t *testing.T) {
	hostname := &edge.CustomHostname{Hostname: "shop.example.com"}

	if _, err := deriveDNSInstructions(hostname, "site-proxy", "platform.io"); err == nil {
		t.Error("expected error when ownership verification is not populated")
	}
}
