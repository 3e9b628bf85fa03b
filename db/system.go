package db

import (
	"context"
	"fmt"

	"github.com/alwitt/bunker/models"
)

// GlobalVaultParamEntryID ID of the singleton vault parameter entry
const GlobalVaultParamEntryID = "vault-parameters"

// getVaultParamEntry fetch the vault param entry
//
// If the entry does not exist, initialize a new one.
func (d *databaseImpl) getVaultParamEntry() (VaultParamsDBEntry, error) {
	var entries []VaultParamsDBEntry
	dbErr := d.db.Where("id = ?", GlobalVaultParamEntryID).Find(&entries).Error
	if dbErr != nil {
		return VaultParamsDBEntry{}, fmt.Errorf("failed to read vault params table [%w]", dbErr)
	}
	if len(entries) == 0 {
		// Make a new one
		newEntry := VaultParamsDBEntry{
			VaultParams: models.VaultParams{
				ID:    GlobalVaultParamEntryID,
				State: models.VaultStatePreInit,
			},
		}
		if dbErr = d.db.Create(&newEntry).Error; dbErr != nil {
			return VaultParamsDBEntry{}, fmt.Errorf(
				"failed to setup singleton vault params table [%w]", dbErr,
			)
		}
		return newEntry, nil
	}
	return entries[0], nil
}

/*
GetVaultParamEntry fetch the global singleton vault parameter entry

	@param ctx context.Context - execution context
	@returns the entry
*/
func (d *databaseImpl) GetVaultParamEntry(_ context.Context) (models.VaultParams, error) {
	entry, err := d.getVaultParamEntry()
	if err != nil {
		return entry.VaultParams, fmt.Errorf("unable to fetch vault parameter entry [%w]", err)
	}
	return entry.VaultParams, nil
}

// updateVaultParamState update the vault parameter entry with new state
func (d *databaseImpl) updateVaultParamState(newState models.VaultStateENUMType) error {
	entry, err := d.getVaultParamEntry()
	if err != nil {
		return fmt.Errorf("unable to fetch vault parameter entry [%w]", err)
	}

	if err := entry.ValidateNextState(newState); err != nil {
		return fmt.Errorf("state transition not allowed [%w]", err)
	}

	entry.State = newState
	if err := d.validator.Struct(&entry); err != nil {
		return fmt.Errorf("updated vault parameter entry is not valid [%w]", err)
	}

	if tmp := d.db.Save(&entry); tmp.Error != nil {
		return fmt.Errorf("failed to update vault parameter entry [%w]", tmp.Error)
	}

	return nil
}

/*
MarkVaultInitializing mark vault is initializing

	@param ctx context.Context - execution context
*/
func (d *databaseImpl) MarkVaultInitializing(_ context.Context) error {
	if err := d.updateVaultParamState(models.VaultStateInit); err != nil {
		return fmt.Errorf("unable to mark vault as initializing [%w]", err)
	}

	// Record this event
	if _, err := d.defineNewVaultEvent(models.VaultEventTypeInitializing, nil); err != nil {
		return fmt.Errorf("failed to log vault initializing audit event [%w]", err)
	}

	return nil
}

/*
MarkVaultInitialized mark vault fully initialized

	@param ctx context.Context - execution context
*/
func (d *databaseImpl) MarkVaultInitialized(_ context.Context) error {
	if err := d.updateVaultParamState(models.VaultStateRunning); err != nil {
		return fmt.Errorf("unable to mark vault as initialized [%w]", err)
	}

	// Record this event
	if _, err := d.defineNewVaultEvent(models.VaultEventTypeInitialized, nil); err != nil {
		return fmt.Errorf("failed to log vault initialized audit event [%w]", err)
	}

	return nil
}
