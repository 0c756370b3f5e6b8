package provisioning

import (
	"context"
	"time"

	"gorm.io/gorm"

	"siteforge/internal/model"
)

// SiteStore is the persistence surface the orchestrator writes through. It
// covers only the custom-domain columns of the site record plus the audit
// log; everything else about sites belongs to the surrounding application.
type SiteStore interface {
	GetSite(ctx context.Context, siteID int) (*model.Site, error)
	SaveHostname(ctx context.Context, siteID int, fields HostnameFields) error
	SaveRouteID(ctx context.Context, siteID int, routeID string) error
	UpdateSSLStatus(ctx context.Context, hostnameID, status string, activatedAt *time.Time) error
	ClearDomain(ctx context.Context, siteID int) error
	AppendLog(ctx context.Context, entry *model.ProvisioningLog) error
}

// HostnameFields is the projection of a freshly created custom hostname
// onto the site record.
type HostnameFields struct {
	Domain               string
	HostnameID           string
	SSLStatus            string
	VerificationTxtName  string
	VerificationTxtValue string
	CNAMETarget          string
}

// GormSiteStore implements SiteStore on the relational database.
type GormSiteStore struct {
	db *gorm.DB
}

// NewGormSiteStore creates a SiteStore backed by the given database.
func NewGormSiteStore(db *gorm.DB) *GormSiteStore {
	return &GormSiteStore{db: db}
}

// GetSite loads a site row by id.
func (s *GormSiteStore) GetSite(ctx context.Context, siteID int) (*model.Site, error) {
	var site model.Site
	if err := s.db.WithContext(ctx).First(&site, siteID).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

// SaveHostname stamps the hostname projection and the provisioning
// timestamp onto the site record.
func (s *GormSiteStore) SaveHostname(ctx context.Context, siteID int, fields HostnameFields) error {
	now := time.Now()
	return s.db.WithContext(ctx).
		Model(&model.Site{}).
		Where("id = ?", siteID).
		Updates(map[string]interface{}{
			"custom_domain":          fields.Domain,
			"external_hostname_id":   fields.HostnameID,
			"ssl_status":             fields.SSLStatus,
			"verification_txt_name":  fields.VerificationTxtName,
			"verification_txt_value": fields.VerificationTxtValue,
			"cname_target":           fields.CNAMETarget,
			"domain_provisioned_at":  &now,
		}).Error
}

// SaveRouteID stores the provider route id on the site record.
func (s *GormSiteStore) SaveRouteID(ctx context.Context, siteID int, routeID string) error {
	return s.db.WithContext(ctx).
		Model(&model.Site{}).
		Where("id = ?", siteID).
		Update("route_id", routeID).Error
}

// UpdateSSLStatus updates the persisted certificate status for whichever
// site owns the given external hostname id. activatedAt is only written
// when non-nil (first observation of the active state).
func (s *GormSiteStore) UpdateSSLStatus(ctx context.Context, hostnameID, status string, activatedAt *time.Time) error {
	updates := map[string]interface{}{"ssl_status": status}
	if activatedAt != nil {
		updates["ssl_activated_at"] = activatedAt
	}
	return s.db.WithContext(ctx).
		Model(&model.Site{}).
		Where("external_hostname_id = ?", hostnameID).
		Updates(updates).Error
}

// ClearDomain wipes the custom-domain projection from the site record
// after a successful removal.
func (s *GormSiteStore) ClearDomain(ctx context.Context, siteID int) error {
	return s.db.WithContext(ctx).
		Model(&model.Site{}).
		Where("id = ?", siteID).
		Updates(map[string]interface{}{
			"custom_domain":          "",
			"external_hostname_id":   "",
			"route_id":               "",
			"ssl_status":             "",
			"verification_txt_name":  "",
			"verification_txt_value": "",
			"cname_target":           "",
			"domain_provisioned_at":  nil,
			"ssl_activated_at":       nil,
		}).Error
}

// AppendLog writes one audit row for a saga run.
func (s *GormSiteStore) AppendLog(ctx context.Context, entry *model.ProvisioningLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
