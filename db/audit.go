package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/bunker/models"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
)

// defineNewVaultEvent record a new vault event
func (d *databaseImpl) defineNewVaultEvent(
	eventType models.VaultEventTypeENUMType, metadata interface{},
) (models.VaultEventAudit, error) {

	newEntry := VaultEventAuditDBEntry{
		VaultEventAudit: models.VaultEventAudit{ID: ulid.Make().String(), EventType: eventType},
	}

	if metadata != nil {
		if err := d.validator.Struct(metadata); err != nil {
			return models.VaultEventAudit{}, fmt.Errorf(
				"new vault event '%s' metadata entry is not valid [%w]", eventType, err,
			)
		}

		metadataStr, _ := json.Marshal(&metadata)
		newEntry.Metadata = datatypes.JSON(metadataStr)
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.VaultEventAudit{}, fmt.Errorf(
			"new vault event '%s' entry is not valid [%w]", eventType, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.VaultEventAudit{}, fmt.Errorf(
			"new vault event '%s' insert failed [%w]", eventType, tmp.Error,
		)
	}

	return newEntry.VaultEventAudit, nil
}

/*
RecordVaultRestored record that the vault content was replaced wholesale

	@param ctx context.Context - execution context
	@param entryCount int - number of entries written by the restore
*/
func (d *databaseImpl) RecordVaultRestored(_ context.Context, entryCount int) error {
	if _, err := d.defineNewVaultEvent(
		models.VaultEventTypeRestore,
		models.VaultEventRestoreRelated{EntryCount: entryCount},
	); err != nil {
		return fmt.Errorf("failed to log vault restore audit event [%w]", err)
	}
	return nil
}

/*
ListVaultEvents list captured vault events

	@param ctx context.Context - execution context
	@param filters VaultEventQueryFilter - entry listing filter
	@return list of vault events
*/
func (d *databaseImpl) ListVaultEvents(
	_ context.Context, filters VaultEventQueryFilter,
) ([]models.VaultEventAudit, error) {
	query := d.db.Model(&VaultEventAuditDBEntry{})

	if len(filters.EventTypes) > 0 {
		query = query.Where("type in ?", filters.EventTypes)
	}

	if filters.EventsAfter != nil {
		query = query.Where("created_at >= ?", *filters.EventsAfter)
	}
	if filters.EventsBefore != nil {
		query = query.Where("created_at <= ?", *filters.EventsBefore)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("created_at")

	var entries []VaultEventAuditDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list vault events [%w]", tmp.Error)
	}

	result := []models.VaultEventAudit{}
	for _, entry := range entries {
		result = append(result, entry.VaultEventAudit)
	}

	return result, nil
}
