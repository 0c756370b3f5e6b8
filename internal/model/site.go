package model

import "time"

// Site is a tenant's site. The custom-domain columns are the durable
// projection of the provider-side custom hostname and routing rule; the
// provisioning orchestrator is their only writer.
type Site struct {
	BaseModel
	OwnerID int    `gorm:"not null;index" json:"ownerId"`
	Name    string `gorm:"type:varchar(128);not null" json:"name"`
	Slug    string `gorm:"type:varchar(128);uniqueIndex:uk_sites_slug" json:"slug"`
	Status  string `gorm:"type:enum('active','inactive');default:'active'" json:"status"`

	// Custom domain provisioning state
	CustomDomain         string     `gorm:"type:varchar(255);index" json:"customDomain"`
	ExternalHostnameID   string     `gorm:"type:varchar(64);index" json:"externalHostnameId"`
	RouteID              string     `gorm:"type:varchar(64)" json:"routeId"`
	SSLStatus            string     `gorm:"type:varchar(32)" json:"sslStatus"`
	VerificationTxtName  string     `gorm:"type:varchar(255)" json:"verificationTxtName"`
	VerificationTxtValue string     `gorm:"type:varchar(255)" json:"verificationTxtValue"`
	CNAMETarget          string     `gorm:"type:varchar(255);column:cname_target" json:"cnameTarget"`
	DomainProvisionedAt  *time.Time `json:"domainProvisionedAt"`
	SSLActivatedAt       *time.Time `gorm:"column:ssl_activated_at" json:"sslActivatedAt"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// TableName specifies the table name for Site model
func (Site) TableName() string {
	return "sites"
}

// Status constants
const (
	SiteStatusActive   = "active"
	SiteStatusInactive = "inactive"
)
