package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/alwitt/bunker/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ======================================================================================
// Vault entries

// getEntryByKey find a vault entry row by key
func (d *databaseImpl) getEntryByKey(key string) (VaultEntryDBEntry, bool, error) {
	var entry VaultEntryDBEntry
	err := d.db.Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VaultEntryDBEntry{}, false, nil
		}
		return VaultEntryDBEntry{}, false, err
	}
	return entry, true, nil
}

/*
UpsertEntry write a sealed value under a key, overwriting any previous value

	@param ctx context.Context - execution context
	@param key string - entry key
	@param sealedValue []byte - the sealed entry value
	@param sealNonce []byte - the seal nonce used
	@returns entry row
*/
func (d *databaseImpl) UpsertEntry(
	_ context.Context, key string, sealedValue []byte, sealNonce []byte,
) (models.VaultEntry, error) {
	existing, found, err := d.getEntryByKey(key)
	if err != nil {
		return models.VaultEntry{}, fmt.Errorf("failed to fetch entry '%s' [%w]", key, err)
	}

	if found {
		existing.SealedValue = sealedValue
		existing.SealNonce = sealNonce

		if err := d.validator.Struct(&existing); err != nil {
			return models.VaultEntry{}, fmt.Errorf("updated entry '%s' is not valid [%w]", key, err)
		}

		if tmp := d.db.Save(&existing); tmp.Error != nil {
			return models.VaultEntry{}, fmt.Errorf("entry '%s' failed update [%w]", key, tmp.Error)
		}

		// Record this event
		if _, err := d.defineNewVaultEvent(
			models.VaultEventTypeSetEntry,
			models.VaultEventEntryRelated{EntryID: existing.ID, EntryKey: key},
		); err != nil {
			return models.VaultEntry{}, fmt.Errorf(
				"failed to log set entry '%s' audit event [%w]", key, err,
			)
		}

		return existing.VaultEntry, nil
	}

	newEntry := VaultEntryDBEntry{
		VaultEntry: models.VaultEntry{
			ID:          uuid.NewString(),
			Key:         key,
			SealedValue: sealedValue,
			SealNonce:   sealNonce,
		},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.VaultEntry{}, fmt.Errorf("new entry '%s' is not valid [%w]", key, err)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.VaultEntry{}, fmt.Errorf("new entry '%s' failed insert [%w]", key, tmp.Error)
	}

	// Record this event
	if _, err := d.defineNewVaultEvent(
		models.VaultEventTypeSetEntry,
		models.VaultEventEntryRelated{EntryID: newEntry.ID, EntryKey: key},
	); err != nil {
		return models.VaultEntry{}, fmt.Errorf(
			"failed to log set entry '%s' audit event [%w]", key, err,
		)
	}

	return newEntry.VaultEntry, nil
}

/*
GetEntryByKey fetch a vault entry by key

	@param ctx context.Context - execution context
	@param key string - entry key
	@returns the entry row, and whether the key exists
*/
func (d *databaseImpl) GetEntryByKey(
	_ context.Context, key string,
) (models.VaultEntry, bool, error) {
	entry, found, err := d.getEntryByKey(key)
	if err != nil {
		return models.VaultEntry{}, false, fmt.Errorf("failed to fetch entry '%s' [%w]", key, err)
	}
	return entry.VaultEntry, found, nil
}

/*
ListEntries list vault entries

	@param ctx context.Context - execution context
	@param filters VaultEntryQueryFilter - entry listing filter
	@return list of entries
*/
func (d *databaseImpl) ListEntries(
	_ context.Context, filters VaultEntryQueryFilter,
) ([]models.VaultEntry, error) {
	query := d.db.Model(&VaultEntryDBEntry{})

	if filters.KeyPrefix != nil {
		query = query.Where("key LIKE ?", *filters.KeyPrefix+"%")
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("created_at")

	var entries []VaultEntryDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list vault entries [%w]", tmp.Error)
	}

	result := []models.VaultEntry{}
	for _, entry := range entries {
		result = append(result, entry.VaultEntry)
	}

	return result, nil
}

/*
DeleteEntryByKey delete a vault entry by key

Deleting an absent key is a no-op.

	@param ctx context.Context - execution context
	@param key string - entry key
*/
func (d *databaseImpl) DeleteEntryByKey(_ context.Context, key string) error {
	entry, found, err := d.getEntryByKey(key)
	if err != nil {
		return fmt.Errorf("failed to fetch entry '%s' [%w]", key, err)
	}
	if !found {
		return nil
	}

	if tmp := d.db.Delete(&entry); tmp.Error != nil {
		return fmt.Errorf("failed to delete entry '%s' [%w]", key, tmp.Error)
	}

	// Record this event
	if _, err := d.defineNewVaultEvent(
		models.VaultEventTypeDeleteEntry,
		models.VaultEventEntryRelated{EntryID: entry.ID, EntryKey: key},
	); err != nil {
		return fmt.Errorf(
			"failed to log delete entry '%s' audit event [%w]", key, err,
		)
	}

	return nil
}
