// Package bunker - encrypted-at-rest personal credential vault
package bunker

import (
	"context"
	"fmt"

	"github.com/alwitt/bunker/db"
	"github.com/alwitt/bunker/encryption"
	"github.com/alwitt/bunker/store"
	"github.com/alwitt/bunker/vault"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
NewCredentialVault initialize a credential vault instance.

Each instance is backed by a SQL database; two instances using the same
database and master key file are essentially copies of each other.

	@param ctx context.Context - execution context
	@param dbDialector gorm.Dialector - GORM dialector
	@param dbLogLevel logger.LogLevel - SQL log level
	@param masterKeyFile string - file path of the symmetric master key; a new
	    key is generated there if the file does not exist
	@returns new credential repository instance
*/
func NewCredentialVault(
	ctx context.Context,
	dbDialector gorm.Dialector,
	dbLogLevel logger.LogLevel,
	masterKeyFile string,
) (vault.Repository, error) {
	// Prepare persistence
	persistence, err := db.NewConnection(dbDialector, dbLogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized persistence client [%w]", err)
	}

	// Prepare value sealer
	sealer, err := encryption.NewSealer(ctx, encryption.SealerParams{
		MasterKeyFile: masterKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialized value sealer [%w]", err)
	}

	// Prepare the secure key-value store
	kvStore, err := store.NewSecureStore(ctx, persistence, sealer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized secure KV store [%w]", err)
	}

	repository, err := vault.NewRepository(ctx, kvStore)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized credential repository [%w]", err)
	}

	return repository, nil
}
