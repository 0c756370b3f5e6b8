package model

import "gorm.io/datatypes"

// ProvisioningLog operation constants
const (
	ProvisioningOpSetup  = "setup"
	ProvisioningOpRemove = "remove"
)

// ProvisioningLog result constants
const (
	ProvisioningResultSuccess = "success"
	ProvisioningResultFailed  = "failed"
)

// ProvisioningLog is one audit row per orchestrator saga run. Detail holds
// structured context (provider ids, compensation failures); rows with
// non-empty compensation failures point at provider-side resources that may
// have been orphaned by a best-effort rollback.
type ProvisioningLog struct {
	BaseModel
	RequestID string         `gorm:"type:varchar(36);index" json:"requestId"`
	SiteID    int            `gorm:"not null;index" json:"siteId"`
	Operation string         `gorm:"type:enum('setup','remove');not null" json:"operation"`
	Domain    string         `gorm:"type:varchar(255)" json:"domain"`
	Result    string         `gorm:"type:enum('success','failed');not null" json:"result"`
	Error     string         `gorm:"type:varchar(1024)" json:"error"`
	Detail    datatypes.JSON `json:"detail"`
}

// TableName specifies the table name for ProvisioningLog model
func (ProvisioningLog) TableName() string {
	return "provisioning_logs"
}
