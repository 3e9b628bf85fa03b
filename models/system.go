package models

import (
	"fmt"
	"time"
)

// VaultStateENUMType vault operating state ENUM
type VaultStateENUMType string

const (
	// VaultStatePreInit first time vault start
	VaultStatePreInit VaultStateENUMType = "PRE_INITIALIZATION"
	// VaultStateInit vault performing first time initialization
	VaultStateInit VaultStateENUMType = "INITIALIZING"
	// VaultStateRunning vault running normally
	VaultStateRunning VaultStateENUMType = "RUNNING"
)

// VaultParams vault operating parameters
type VaultParams struct {
	// ID param entry ID. It must always be vault-parameters
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,oneof=vault-parameters"`

	// State vault operating state
	State VaultStateENUMType `json:"state" gorm:"column:state;not null" validate:"required,vault_state"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateNextState verify can transition to new state
func (p *VaultParams) ValidateNextState(newState VaultStateENUMType) error {
	statesWithTransitions := map[VaultStateENUMType]map[VaultStateENUMType]bool{
		VaultStatePreInit: {
			VaultStatePreInit: true,
			VaultStateInit:    true,
		},
		VaultStateInit: {
			VaultStateInit:    true,
			VaultStateRunning: true,
		},
		VaultStateRunning: {
			VaultStateRunning: true,
		},
	}

	availableNextStates, ok := statesWithTransitions[p.State]
	if !ok {
		return fmt.Errorf("vault can't transition out of state '%s'", p.State)
	}

	if _, ok := availableNextStates[newState]; !ok {
		return fmt.Errorf("vault can't transition from '%s' to '%s'", p.State, newState)
	}

	return nil
}
