package provisioning

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"siteforge/internal/edge"
	"siteforge/internal/model"
)

// Service orchestrates custom-domain provisioning against the edge
// provider. Attaching a domain is a three-resource sequence (hostname,
// route, DNS derivation) with no transactional guarantee from the provider,
// so later-step failures trigger explicit compensating deletes.
//
// Concurrent setup/remove calls for the same site are not excluded here;
// callers hold a per-site lock (see cache.AcquireSiteLock).
type Service struct {
	client *edge.Client
	store  SiteStore

	platformDomain string
	proxySubdomain string
	workerName     string
}

// NewService creates a provisioning orchestrator. The edge client and
// store are injected so tests can run against a stub provider and an
// in-memory store.
func NewService(client *edge.Client, store SiteStore, platformDomain, proxySubdomain, workerName string) *Service {
	return &Service{
		client:         client,
		store:          store,
		platformDomain: platformDomain,
		proxySubdomain: proxySubdomain,
		workerName:     workerName,
	}
}

// SetupResult is the combined payload of a successful domain attachment.
type SetupResult struct {
	HostnameID string           `json:"hostnameId"`
	Domain     string           `json:"domain"`
	SSLStatus  string           `json:"sslStatus"`
	RouteID    string           `json:"routeId"`
	DNS        *DNSInstructions `json:"dns"`
}

// SetupCustomDomain attaches a custom domain to a site:
//
//  1. create the custom hostname (reusing an existing one for the same
//     domain instead of failing)
//  2. persist its projection onto the site record
//  3. create the worker route for the domain
//  4. derive the customer-facing DNS instructions
//  5. persist the route id
//
// A failure after step 1 rolls back whatever was created. Rollback is
// best-effort: the original error is always the one reported, and rollback
// failures are carried in the result's CompensationErrors.
func (s *Service) SetupCustomDomain(ctx context.Context, domain string, siteID int) Result[*SetupResult] {
	requestID := uuid.NewString()
	log.Printf("[Provisioning] setup %s for site %d (request %s)", domain, siteID, requestID)

	hostname, err := s.createOrReuseHostname(ctx, domain)
	if err != nil {
		// Nothing was created, nothing to roll back.
		return s.failSetup(ctx, requestID, siteID, domain, fmt.Sprintf("failed to create custom hostname: %v", err), "", "", nil)
	}

	cnameTarget := fmt.Sprintf("%s.%s", s.proxySubdomain, s.platformDomain)
	err = s.store.SaveHostname(ctx, siteID, HostnameFields{
		Domain:               domain,
		HostnameID:           hostname.ID,
		SSLStatus:            hostname.SSL.Status,
		VerificationTxtName:  hostname.OwnershipVerification.Name,
		VerificationTxtValue: hostname.OwnershipVerification.Value,
		CNAMETarget:          cnameTarget,
	})
	if err != nil {
		comp := s.compensate(ctx, hostname.ID, "")
		return s.failSetup(ctx, requestID, siteID, domain, fmt.Sprintf("failed to persist hostname: %v", err), hostname.ID, "", comp)
	}

	route, err := s.createOrReuseRoute(ctx, domain)
	if err != nil {
		comp := s.compensate(ctx, hostname.ID, "")
		return s.failSetup(ctx, requestID, siteID, domain, fmt.Sprintf("failed to create routing rule: %v", err), hostname.ID, "", comp)
	}

	dns, err := deriveDNSInstructions(hostname, s.proxySubdomain, s.platformDomain)
	if err != nil {
		comp := s.compensate(ctx, hostname.ID, route.ID)
		return s.failSetup(ctx, requestID, siteID, domain, fmt.Sprintf("failed to derive DNS records: %v", err), hostname.ID, route.ID, comp)
	}

	if err := s.store.SaveRouteID(ctx, siteID, route.ID); err != nil {
		comp := s.compensate(ctx, hostname.ID, route.ID)
		return s.failSetup(ctx, requestID, siteID, domain, fmt.Sprintf("failed to persist route id: %v", err), hostname.ID, route.ID, comp)
	}

	s.appendLog(ctx, requestID, siteID, model.ProvisioningOpSetup, domain, model.ProvisioningResultSuccess, "", map[string]any{
		"hostnameId": hostname.ID,
		"routeId":    route.ID,
	})

	log.Printf("[Provisioning] setup %s for site %d done (hostname=%s route=%s)", domain, siteID, hostname.ID, route.ID)
	return Ok(&SetupResult{
		HostnameID: hostname.ID,
		Domain:     domain,
		SSLStatus:  hostname.SSL.Status,
		RouteID:    route.ID,
		DNS:        dns,
	})
}

// createOrReuseHostname creates a custom hostname, resolving an
// already-exists rejection by fetching the existing resource for the same
// domain. The second add of the same domain therefore succeeds with the
// first add's hostname id.
func (s *Service) createOrReuseHostname(ctx context.Context, domain string) (*edge.CustomHostname, error) {
	hostname, err := s.client.CreateCustomHostname(ctx, domain)
	if err == nil {
		return hostname, nil
	}
	if !edge.IsCategory(err, edge.CategoryAlreadyExists) {
		return nil, err
	}

	existing, listErr := s.client.ListCustomHostnames(ctx, domain)
	if listErr != nil {
		return nil, fmt.Errorf("hostname exists but could not be fetched: %w", listErr)
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("provider reported hostname %s exists but listing returned none", domain)
	}
	log.Printf("[Provisioning] reusing existing hostname %s for %s", existing[0].ID, domain)
	return &existing[0], nil
}

// createOrReuseRoute creates the worker route for the domain, reusing an
// existing route with the same pattern.
func (s *Service) createOrReuseRoute(ctx context.Context, domain string) (*edge.WorkerRoute, error) {
	pattern := domain + "/*"
	route, err := s.client.CreateWorkerRoute(ctx, pattern, s.workerName)
	if err == nil {
		return route, nil
	}
	if !edge.IsCategory(err, edge.CategoryAlreadyExists) {
		return nil, err
	}

	routes, listErr := s.client.ListWorkerRoutes(ctx)
	if listErr != nil {
		return nil, fmt.Errorf("route exists but could not be fetched: %w", listErr)
	}
	for i := range routes {
		if routes[i].Pattern == pattern {
			log.Printf("[Provisioning] reusing existing route %s for %s", routes[i].ID, pattern)
			return &routes[i], nil
		}
	}
	return nil, fmt.Errorf("provider reported route %s exists but listing returned none", pattern)
}

// compensate deletes whatever the saga created before failing. Deletion
// errors are collected, not surfaced as the outcome: the original failure
// is what the caller sees, and a non-empty return flags possibly orphaned
// provider-side resources.
func (s *Service) compensate(ctx context.Context, hostnameID, routeID string) []string {
	var failures []string

	if routeID != "" {
		if err := s.client.DeleteWorkerRoute(ctx, routeID); err != nil && !edge.IsCategory(err, edge.CategoryNotFound) {
			log.Printf("[Provisioning] rollback: failed to delete route %s: %v", routeID, err)
			failures = append(failures, fmt.Sprintf("delete route %s: %v", routeID, err))
		}
	}
	if hostnameID != "" {
		if err := s.client.DeleteCustomHostname(ctx, hostnameID); err != nil && !edge.IsCategory(err, edge.CategoryNotFound) {
			log.Printf("[Provisioning] rollback: failed to delete hostname %s: %v", hostnameID, err)
			failures = append(failures, fmt.Sprintf("delete hostname %s: %v", hostnameID, err))
		}
	}
	return failures
}

// failSetup logs the failed run and builds the failure result.
func (s *Service) failSetup(ctx context.Context, requestID string, siteID int, domain, errMsg, hostnameID, routeID string, compensationErrors []string) Result[*SetupResult] {
	log.Printf("[Provisioning] setup %s for site %d failed: %s", domain, siteID, errMsg)
	s.appendLog(ctx, requestID, siteID, model.ProvisioningOpSetup, domain, model.ProvisioningResultFailed, errMsg, map[string]any{
		"hostnameId":         hostnameID,
		"routeId":            routeID,
		"compensationErrors": compensationErrors,
	})
	return Fail[*SetupResult](errMsg, compensationErrors...)
}

// RemoveResult summarizes a domain detachment.
type RemoveResult struct {
	HostnameDeleted bool `json:"hostnameDeleted"`
	RouteDeleted    bool `json:"routeDeleted"`
}

// RemoveCustomDomain detaches the site's custom domain. The hostname and
// route are independent resources, so the two deletes run concurrently;
// a not-found from the provider counts as already deleted. Only when both
// succeed is the site's projection cleared.
func (s *Service) RemoveCustomDomain(ctx context.Context, siteID int) Result[*RemoveResult] {
	requestID := uuid.NewString()

	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return Fail[*RemoveResult](fmt.Sprintf("failed to load site %d: %v", siteID, err))
	}
	if site.ExternalHostnameID == "" {
		return Fail[*RemoveResult](fmt.Sprintf("site %d has no custom domain", siteID))
	}

	log.Printf("[Provisioning] remove %s from site %d (request %s)", site.CustomDomain, siteID, requestID)

	var (
		wg          sync.WaitGroup
		hostnameErr error
		routeErr    error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		hostnameErr = s.deleteIgnoringNotFound(func() error {
			return s.client.DeleteCustomHostname(ctx, site.ExternalHostnameID)
		})
	}()

	if site.RouteID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			routeErr = s.deleteIgnoringNotFound(func() error {
				return s.client.DeleteWorkerRoute(ctx, site.RouteID)
			})
		}()
	}
	wg.Wait()

	if hostnameErr != nil || routeErr != nil {
		errMsg := removalError(hostnameErr, routeErr)
		s.appendLog(ctx, requestID, siteID, model.ProvisioningOpRemove, site.CustomDomain, model.ProvisioningResultFailed, errMsg, map[string]any{
			"hostnameId": site.ExternalHostnameID,
			"routeId":    site.RouteID,
		})
		return Fail[*RemoveResult](errMsg)
	}

	if err := s.store.ClearDomain(ctx, siteID); err != nil {
		return Fail[*RemoveResult](fmt.Sprintf("provider resources deleted but failed to clear site record: %v", err))
	}

	s.appendLog(ctx, requestID, siteID, model.ProvisioningOpRemove, site.CustomDomain, model.ProvisioningResultSuccess, "", map[string]any{
		"hostnameId": site.ExternalHostnameID,
		"routeId":    site.RouteID,
	})
	return Ok(&RemoveResult{HostnameDeleted: true, RouteDeleted: site.RouteID != ""})
}

// deleteIgnoringNotFound runs a provider delete, treating not-found as
// already satisfied.
func (s *Service) deleteIgnoringNotFound(del func() error) error {
	if err := del(); err != nil && !edge.IsCategory(err, edge.CategoryNotFound) {
		return err
	}
	return nil
}

func removalError(hostnameErr, routeErr error) string {
	switch {
	case hostnameErr != nil && routeErr != nil:
		return fmt.Sprintf("failed to delete hostname: %v; failed to delete route: %v", hostnameErr, routeErr)
	case hostnameErr != nil:
		return fmt.Sprintf("failed to delete hostname: %v", hostnameErr)
	default:
		return fmt.Sprintf("failed to delete route: %v", routeErr)
	}
}

// SSLStatusResult is the payload of a certificate status check.
type SSLStatusResult struct {
	HostnameID string `json:"hostnameId"`
	Domain     string `json:"domain"`
	SSLStatus  string `json:"sslStatus"`
	Active     bool   `json:"active"`
}

// CheckSSLStatus reads the current certificate state of a custom hostname.
// The provider drives issuance asynchronously; this only observes. On the
// first observation of the active state the persisted status and activation
// timestamp are stamped onto the owning site.
func (s *Service) CheckSSLStatus(ctx context.Context, hostnameID string) Result[*SSLStatusResult] {
	hostname, err := s.client.GetCustomHostname(ctx, hostnameID)
	if err != nil {
		return Fail[*SSLStatusResult](fmt.Sprintf("failed to fetch hostname %s: %v", hostnameID, err))
	}

	status := hostname.SSL.Status
	if status == edge.SSLStatusActive {
		now := time.Now()
		if err := s.store.UpdateSSLStatus(ctx, hostnameID, status, &now); err != nil {
			return Fail[*SSLStatusResult](fmt.Sprintf("failed to persist ssl status: %v", err))
		}
		log.Printf("[Provisioning] certificate for %s is active", hostname.Hostname)
	}

	return Ok(&SSLStatusResult{
		HostnameID: hostnameID,
		Domain:     hostname.Hostname,
		SSLStatus:  status,
		Active:     status == edge.SSLStatusActive,
	})
}

// GetDNSRecordsForDomain regenerates the customer-facing DNS instructions
// from the hostname's verification data. Read-only; fails while the
// provider has not yet populated the ownership challenge.
func (s *Service) GetDNSRecordsForDomain(ctx context.Context, domain, hostnameID string) Result[*DNSInstructions] {
	hostname, err := s.client.GetCustomHostname(ctx, hostnameID)
	if err != nil {
		return Fail[*DNSInstructions](fmt.Sprintf("failed to fetch hostname %s: %v", hostnameID, err))
	}
	if hostname.Hostname != domain {
		return Fail[*DNSInstructions](fmt.Sprintf("hostname %s belongs to %s, not %s", hostnameID, hostname.Hostname, domain))
	}

	dns, err := deriveDNSInstructions(hostname, s.proxySubdomain, s.platformDomain)
	if err != nil {
		return Fail[*DNSInstructions](err.Error())
	}
	return Ok(dns)
}

// appendLog writes the audit row; a failed write is logged and dropped to
// keep the audit trail off the critical path.
func (s *Service) appendLog(ctx context.Context, requestID string, siteID int, op, domain, result, errMsg string, detail map[string]any) {
	payload, err := json.Marshal(detail)
	if err != nil {
		payload = []byte("{}")
	}
	entry := &model.ProvisioningLog{
		RequestID: requestID,
		SiteID:    siteID,
		Operation: op,
		Domain:    domain,
		Result:    result,
		Error:     errMsg,
		Detail:    datatypes.JSON(payload),
	}
	if err := s.store.AppendLog(ctx, entry); err != nil {
		log.Printf("[Provisioning] failed to write audit log for site %d: %v", siteID, err)
	}
}
