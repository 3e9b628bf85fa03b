package bunker_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alwitt/bunker"
	"github.com/alwitt/bunker/db"
	"github.com/alwitt/bunker/health"
	"github.com/alwitt/bunker/models"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// TestCredentialVaultEndToEnd performs a full end-to-end test of the
// credential vault. A temporary SQLite database and master key file are
// created, the `bunker.NewCredentialVault` constructor is exercised, and
// vault records are written, read, scored, and finally deleted.
func TestCredentialVaultEndToEnd(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	ctx := context.Background()

	// ------------------------------------------------------------------
	// 1. Create a temporary SQLite database and master key file
	// ------------------------------------------------------------------
	testDB := fmt.Sprintf("/tmp/bunker_ut_%s.db", ulid.Make().String())
	keyFile := fmt.Sprintf("/tmp/bunker_ut_%s.key", ulid.Make().String())

	dbClient, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	// Create tables
	assert.Nil(dbClient.ApplySchema(ctx))

	// ------------------------------------------------------------------
	// 2. Create the credential vault
	// ------------------------------------------------------------------
	repo, err := bunker.NewCredentialVault(
		ctx, db.GetSqliteDialector(testDB), logger.Error, keyFile,
	)
	assert.Nil(err)

	// ------------------------------------------------------------------
	// 3. Create a credential record and a pet record
	// ------------------------------------------------------------------
	credential, err := repo.Create(ctx, models.VaultRecord{
		AccountName: "email",
		Username:    "user@example.com",
		Password:    "Ab3!Ab3!",
		Category:    models.CategoryPersonal,
	})
	assert.Nil(err)
	assert.NotEmpty(credential.ID)

	pet, err := repo.Create(ctx, models.VaultRecord{
		AccountName: "Rex",
		Username:    "N/A",
		Password:    "N/A",
		Category:    models.CategoryPet,
		Pet:         &models.PetProfile{Species: "dog", Breed: "husky"},
	})
	assert.Nil(err)

	// ------------------------------------------------------------------
	// 4. Read everything back
	// ------------------------------------------------------------------
	all := repo.GetAll(ctx)
	assert.Len(all, 2)
	assert.Equal(credential.ID, all[0].ID)
	assert.Equal(pet.ID, all[1].ID)

	fetched := repo.GetByID(ctx, pet.ID)
	assert.NotNil(fetched)
	assert.NotNil(fetched.Pet)
	assert.Equal("husky", fetched.Pet.Breed)

	// ------------------------------------------------------------------
	// 5. Score the vault: the pet record is not eligible
	// ------------------------------------------------------------------
	report := health.BuildVaultReport(all)
	assert.Equal(2, report.Total)
	assert.Equal(1, report.Score.Eligible)
	assert.Equal(1, report.Score.High)
	assert.Equal(100, report.Score.StrictScore)
	assert.Equal(100, report.Score.WeightedScore)

	// ------------------------------------------------------------------
	// 6. Update the credential and verify persistence across instances
	// ------------------------------------------------------------------
	updated := credential.Clone()
	updated.Password = "abcdef"
	assert.Nil(repo.Update(ctx, updated))

	reopened, err := bunker.NewCredentialVault(
		ctx, db.GetSqliteDialector(testDB), logger.Error, keyFile,
	)
	assert.Nil(err)

	fetched = reopened.GetByID(ctx, credential.ID)
	assert.NotNil(fetched)
	assert.Equal("abcdef", fetched.Password)

	// ------------------------------------------------------------------
	// 7. Delete both records
	// ------------------------------------------------------------------
	assert.Nil(reopened.Delete(ctx, credential.ID))
	assert.Nil(reopened.Delete(ctx, pet.ID))
	assert.Empty(reopened.GetAll(ctx))
}
