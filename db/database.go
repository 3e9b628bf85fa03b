// Package db - persistence layer
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/bunker/models"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CommonListEntryQueryFilter common query filter when listing data entries
type CommonListEntryQueryFilter struct {
	Limit  *int
	Offset *int
}

// VaultEventQueryFilter audit event query filter conditions
type VaultEventQueryFilter struct {
	CommonListEntryQueryFilter
	// EventTypes the specific event types to query for
	EventTypes []models.VaultEventTypeENUMType
	// EventsAfter filter for events after this timestamp
	EventsAfter *time.Time
	// EventsBefore filter for events before this timestamp
	EventsBefore *time.Time
}

// VaultEntryQueryFilter vault entry query filter conditions
type VaultEntryQueryFilter struct {
	CommonListEntryQueryFilter
	// KeyPrefix fetch only entries whose key starts with this prefix
	KeyPrefix *string
}

// Database the database handle for interacting with the database
type Database interface {
	// ------------------------------------------------------------------------------------
	// Vault audit events

	/*
		ListVaultEvents list captured vault events

			@param ctx context.Context - execution context
			@param filters VaultEventQueryFilter - entry listing filter
			@return list of vault events
	*/
	ListVaultEvents(
		ctx context.Context, filters VaultEventQueryFilter,
	) ([]models.VaultEventAudit, error)

	/*
		RecordVaultRestored record that the vault content was replaced wholesale

			@param ctx context.Context - execution context
			@param entryCount int - number of entries written by the restore
	*/
	RecordVaultRestored(ctx context.Context, entryCount int) error

	// ------------------------------------------------------------------------------------
	// Vault parameters

	/*
		GetVaultParamEntry fetch the global singleton vault parameter entry

			@param ctx context.Context - execution context
			@returns the entry
	*/
	GetVaultParamEntry(ctx context.Context) (models.VaultParams, error)

	/*
		MarkVaultInitializing mark vault is initializing

			@param ctx context.Context - execution context
	*/
	MarkVaultInitializing(ctx context.Context) error

	/*
		MarkVaultInitialized mark vault fully initialized

			@param ctx context.Context - execution context
	*/
	MarkVaultInitialized(ctx context.Context) error

	// ------------------------------------------------------------------------------------
	// Vault entries

	/*
		UpsertEntry write a sealed value under a key, overwriting any previous value

			@param ctx context.Context - execution context
			@param key string - entry key
			@param sealedValue []byte - the sealed entry value
			@param sealNonce []byte - the seal nonce used
			@returns entry row
	*/
	UpsertEntry(
		ctx context.Context, key string, sealedValue []byte, sealNonce []byte,
	) (models.VaultEntry, error)

	/*
		GetEntryByKey fetch a vault entry by key

			@param ctx context.Context - execution context
			@param key string - entry key
			@returns the entry row, and whether the key exists
	*/
	GetEntryByKey(ctx context.Context, key string) (models.VaultEntry, bool, error)

	/*
		ListEntries list vault entries

			@param ctx context.Context - execution context
			@param filters VaultEntryQueryFilter - entry listing filter
			@return list of entries
	*/
	ListEntries(ctx context.Context, filters VaultEntryQueryFilter) ([]models.VaultEntry, error)

	/*
		DeleteEntryByKey delete a vault entry by key

		Deleting an absent key is a no-op.

			@param ctx context.Context - execution context
			@param key string - entry key
	*/
	DeleteEntryByKey(ctx context.Context, key string) error
}

// databaseImpl implements Database
type databaseImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

// newDatabase define a new database client
func newDatabase(_ context.Context, sqlClient *gorm.DB) (Database, error) {
	logTags := log.Fields{"package": "bunker", "module": "db", "component": "db-client"}

	instance := &databaseImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        sqlClient,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}
