// Package store - data storage controllers
package store

import (
	"context"
	"fmt"

	"github.com/alwitt/bunker/db"
	"github.com/alwitt/bunker/encryption"
	"github.com/alwitt/bunker/models"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

/*
SecureStore string-keyed store which seals values before they reach storage.

Values are opaque byte blobs; one value per key, and every write is a full
overwrite. Reading an absent key is not an error, it reports found == false.
*/
type SecureStore interface {
	/*
		Set write a value under a key, overwriting any previous value

			@param ctx context.Context - execution context
			@param key string - key
			@param value []byte - value
			@param activeDBClient Database - existing database transaction
	*/
	Set(ctx context.Context, key string, value []byte, activeDBClient db.Database) error

	/*
		Get read the value under a key

			@param ctx context.Context - execution context
			@param key string - key
			@param activeDBClient Database - existing database transaction
			@returns the unsealed value, and whether the key exists
	*/
	Get(ctx context.Context, key string, activeDBClient db.Database) ([]byte, bool, error)

	/*
		Delete remove a key from storage. Deleting an absent key is a no-op.

			@param ctx context.Context - execution context
			@param key string - key
			@param activeDBClient Database - existing database transaction
	*/
	Delete(ctx context.Context, key string, activeDBClient db.Database) error

	/*
		RecordRestore log an audit event for a wholesale content replacement

			@param ctx context.Context - execution context
			@param entryCount int - number of entries written by the restore
			@param activeDBClient Database - existing database transaction
	*/
	RecordRestore(ctx context.Context, entryCount int, activeDBClient db.Database) error
}

// secureStore implements SecureStore
type secureStore struct {
	goutils.Component

	persistence db.Client

	sealer encryption.Sealer
}

/*
NewSecureStore define new secure store

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param sealer encryption.Sealer - vault value sealer
	@returns store instance
*/
func NewSecureStore(
	ctx context.Context, persistence db.Client, sealer encryption.Sealer,
) (SecureStore, error) {
	logTags := log.Fields{"module": "store", "component": "secure-store"}

	instance := &secureStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
		sealer:      sealer,
	}

	// Drive the vault lifecycle state machine on first open
	if dbErr := persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			params, err := dbClient.GetVaultParamEntry(dbCtx)
			if err != nil {
				return fmt.Errorf("failed to fetch vault parameters [%w]", err)
			}

			if params.State == models.VaultStatePreInit {
				if err := dbClient.MarkVaultInitializing(dbCtx); err != nil {
					return fmt.Errorf("failed to mark vault as initializing [%w]", err)
				}
				if err := dbClient.MarkVaultInitialized(dbCtx); err != nil {
					return fmt.Errorf("failed to mark vault as initialized [%w]", err)
				}
			}

			return nil
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to prepare vault lifecycle state [%w]", dbErr)
	}

	return instance, nil
}

/*
Set write a value under a key, overwriting any previous value

	@param ctx context.Context - execution context
	@param key string - key
	@param value []byte - value
	@param activeDBClient Database - existing database transaction
*/
func (s *secureStore) Set(
	ctx context.Context, key string, value []byte, activeDBClient db.Database,
) error {
	// Seal the value
	sealed, err := s.sealer.Seal(ctx, value)
	if err != nil {
		return fmt.Errorf("failed to seal value for key '%s' [%w]", key, err)
	}

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			if _, err := dbClient.UpsertEntry(
				dbCtx, key, sealed.CipherText, sealed.Nonce,
			); err != nil {
				return fmt.Errorf("failed to upsert entry [%w]", err)
			}
			return nil
		},
	); dbErr != nil {
		return fmt.Errorf("failed to record key '%s' [%w]", key, dbErr)
	}

	return nil
}

/*
Get read the value under a key

	@param ctx context.Context - execution context
	@param key string - key
	@param activeDBClient Database - existing database transaction
	@returns the unsealed value, and whether the key exists
*/
func (s *secureStore) Get(
	ctx context.Context, key string, activeDBClient db.Database,
) ([]byte, bool, error) {
	var entry models.VaultEntry
	var found bool

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entry, found, err = dbClient.GetEntryByKey(dbCtx, key)
			return err
		},
	); dbErr != nil {
		return nil, false, fmt.Errorf("failed to fetch key '%s' [%w]", key, dbErr)
	}

	if !found {
		return nil, false, nil
	}

	// Unseal the value
	plainText, err := s.sealer.Unseal(ctx, encryption.EncryptedData{
		CipherText: entry.SealedValue, Nonce: entry.SealNonce,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to unseal key '%s' [%w]", key, err)
	}

	return plainText, true, nil
}

/*
Delete remove a key from storage. Deleting an absent key is a no-op.

	@param ctx context.Context - execution context
	@param key string - key
	@param activeDBClient Database - existing database transaction
*/
func (s *secureStore) Delete(
	ctx context.Context, key string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.DeleteEntryByKey(dbCtx, key)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to delete key '%s' [%w]", key, dbErr)
	}

	return nil
}

/*
RecordRestore log an audit event for a wholesale content replacement

	@param ctx context.Context - execution context
	@param entryCount int - number of entries written by the restore
	@param activeDBClient Database - existing database transaction
*/
func (s *secureStore) RecordRestore(
	ctx context.Context, entryCount int, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.RecordVaultRestored(dbCtx, entryCount)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to log vault restore [%w]", dbErr)
	}

	return nil
}
