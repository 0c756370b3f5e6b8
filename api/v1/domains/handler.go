package domains

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"siteforge/internal/cache"
	"siteforge/internal/httpx"
	"siteforge/internal/provisioning"
)

// Provisioning operations can run for tens of seconds under retries; the
// lock lives a little longer than the worst case.
const siteLockTTL = 2 * time.Minute

// Handler exposes the custom-domain provisioning operations for a site.
type Handler struct {
	svc   *provisioning.Service
	store provisioning.SiteStore
}

// NewHandler creates a domains handler
func NewHandler(svc *provisioning.Service, store provisioning.SiteStore) *Handler {
	return &Handler{svc: svc, store: store}
}

func siteID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid site id"))
		return 0, false
	}
	return id, true
}

// withSiteLock runs fn under the per-site provisioning lock. Setup and
// removal for the same site must not interleave; the orchestrator does not
// enforce this itself.
func withSiteLock(c *gin.Context, id int, fn func()) {
	release, ok, err := cache.AcquireSiteLock(c.Request.Context(), id, siteLockTTL)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to acquire site lock", err))
		return
	}
	if !ok {
		httpx.FailErr(c, httpx.ErrOperationInFlight(""))
		return
	}
	defer release()
	fn()
}

// Setup handles POST /api/v1/sites/:id/domain
func (h *Handler) Setup(c *gin.Context) {
	id, ok := siteID(c)
	if !ok {
		return
	}

	var req SetupDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}

	withSiteLock(c, id, func() {
		res := h.svc.SetupCustomDomain(c.Request.Context(), req.Domain, id)
		if !res.Success {
			httpx.FailErr(c, httpx.ErrExternalError(res.Error, nil).WithData(gin.H{
				"compensationErrors": res.CompensationErrors,
			}))
			return
		}
		httpx.OK(c, res.Data)
	})
}

// Remove handles DELETE /api/v1/sites/:id/domain
func (h *Handler) Remove(c *gin.Context) {
	id, ok := siteID(c)
	if !ok {
		return
	}

	withSiteLock(c, id, func() {
		res := h.svc.RemoveCustomDomain(c.Request.Context(), id)
		if !res.Success {
			httpx.FailErr(c, httpx.ErrExternalError(res.Error, nil))
			return
		}
		httpx.OK(c, res.Data)
	})
}

// Status handles GET /api/v1/sites/:id/domain
func (h *Handler) Status(c *gin.Context) {
	id, ok := siteID(c)
	if !ok {
		return
	}

	site, err := h.store.GetSite(c.Request.Context(), id)
	if err != nil {
		httpx.FailErr(c, httpx.ErrNotFound("site not found"))
		return
	}
	if site.CustomDomain == "" {
		httpx.FailErr(c, httpx.ErrNotFound("site has no custom domain"))
		return
	}

	resp := DomainStatusResponse{
		Domain:      site.CustomDomain,
		HostnameID:  site.ExternalHostnameID,
		RouteID:     site.RouteID,
		SSLStatus:   site.SSLStatus,
		CNAMETarget: site.CNAMETarget,
	}
	if site.SSLActivatedAt != nil {
		ts := site.SSLActivatedAt.Unix()
		resp.SSLActivatedAt = &ts
	}
	httpx.OK(c, resp)
}

// DNSRecords handles GET /api/v1/sites/:id/domain/dns
func (h *Handler) DNSRecords(c *gin.Context) {
	id, ok := siteID(c)
	if !ok {
		return
	}

	site, err := h.store.GetSite(c.Request.Context(), id)
	if err != nil {
		httpx.FailErr(c, httpx.ErrNotFound("site not found"))
		return
	}
	if site.CustomDomain == "" || site.ExternalHostnameID == "" {
		httpx.FailErr(c, httpx.ErrNotFound("site has no custom domain"))
		return
	}

	res := h.svc.GetDNSRecordsForDomain(c.Request.Context(), site.CustomDomain, site.ExternalHostnameID)
	if !res.Success {
		httpx.FailErr(c, httpx.ErrExternalError(res.Error, nil))
		return
	}
	httpx.OK(c, res.Data)
}

// CheckSSL handles POST /api/v1/sites/:id/domain/check-ssl
func (h *Handler) CheckSSL(c *gin.Context) {
	id, ok := siteID(c)
	if !ok {
		return
	}

	site, err := h.store.GetSite(c.Request.Context(), id)
	if err != nil {
		httpx.FailErr(c, httpx.ErrNotFound("site not found"))
		return
	}
	if site.ExternalHostnameID == "" {
		httpx.FailErr(c, httpx.ErrNotFound("site has no custom domain"))
		return
	}

	res := h.svc.CheckSSLStatus(c.Request.Context(), site.ExternalHostnameID)
	if !res.Success {
		httpx.FailErr(c, httpx.ErrExternalError(res.Error, nil))
		return
	}
	httpx.OK(c, res.Data)
}
