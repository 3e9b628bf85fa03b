package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// VaultEventTypeENUMType vault event type ENUM value type
type VaultEventTypeENUMType string

const (
	// VaultEventTypeInitializing vault is being initialized
	VaultEventTypeInitializing VaultEventTypeENUMType = "VAULT_INITIALIZING"

	// VaultEventTypeInitialized vault is initialized
	VaultEventTypeInitialized VaultEventTypeENUMType = "VAULT_INITIALIZED"

	// VaultEventTypeSetEntry a vault entry is written
	VaultEventTypeSetEntry VaultEventTypeENUMType = "SET_ENTRY"

	// VaultEventTypeDeleteEntry a vault entry is deleted
	VaultEventTypeDeleteEntry VaultEventTypeENUMType = "DELETE_ENTRY"

	// VaultEventTypeRestore the vault content is replaced wholesale
	VaultEventTypeRestore VaultEventTypeENUMType = "VAULT_RESTORED"
)

// VaultEventAudit recording of events occurring at the vault level
type VaultEventAudit struct {
	// ID audit entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`
	// EventType vault event type
	EventType VaultEventTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,vault_event_type"`
	// Metadata a metadata relating to the event
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;default:null"`
	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseMetadata parse the metadata based on the event type
func (a VaultEventAudit) ParseMetadata(validate *validator.Validate) (interface{}, error) {
	switch a.EventType {
	// Entry related vault audit events
	case VaultEventTypeSetEntry:
		fallthrough
	case VaultEventTypeDeleteEntry:
		var parsed VaultEventEntryRelated
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("vault event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validate.Struct(&parsed)

	// Restore related vault audit events
	case VaultEventTypeRestore:
		var parsed VaultEventRestoreRelated
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("vault event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validate.Struct(&parsed)

	default:
		return nil, nil
	}
}

// VaultEventEntryRelated metadata of entry related vault audit events
type VaultEventEntryRelated struct {
	// EntryID the vault entry row ID
	EntryID string `json:"entry_id" validate:"required"`
	// EntryKey the vault entry key
	EntryKey string `json:"entry_key" validate:"required"`
}

// VaultEventRestoreRelated metadata of restore related vault audit events
type VaultEventRestoreRelated struct {
	// EntryCount number of entries written by the restore
	EntryCount int `json:"entry_count"`
}
