package db

import (
	"github.com/alwitt/bunker/models"
)

// --------------------------------------------------------------------------------------
// Vault audit events

// VaultEventAuditDBEntry vault event DB entry
type VaultEventAuditDBEntry struct {
	models.VaultEventAudit
}

// TableName hard code table name
func (VaultEventAuditDBEntry) TableName() string {
	return "vault_audit_events"
}

// --------------------------------------------------------------------------------------
// Vault parameters

// VaultParamsDBEntry vault parameter DB entry
type VaultParamsDBEntry struct {
	models.VaultParams
}

// TableName hard code table name
func (VaultParamsDBEntry) TableName() string {
	return "vault_params"
}

// --------------------------------------------------------------------------------------
// Vault entries

// VaultEntryDBEntry sealed key-value DB entry
type VaultEntryDBEntry struct {
	models.VaultEntry
}

// TableName hard code table name
func (VaultEntryDBEntry) TableName() string {
	return "vault_entries"
}
