// Package vault - credential repository over the secure key-value store
package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/bunker/models"
	"github.com/alwitt/bunker/store"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
)

// IndexKey storage key of the vault index, a JSON array of record IDs.
//
// The index is the single source of truth for which records exist; every ID
// in it is expected to resolve to a record key, and GetAll tolerates the
// ones that do not.
const IndexKey = "bunker_index"

// recordKeyPrefix prefix of per-record storage keys
const recordKeyPrefix = "cred_"

// RecordKey storage key of the record with the given ID
func RecordKey(recordID string) string {
	return recordKeyPrefix + recordID
}

/*
Repository CRUD operations over vault records.

Reads fail soft: a store failure degrades to an empty result, a dangling
index reference or an unreadable record entry is skipped, and no error
surfaces to the caller. Writes propagate failures.

The index read-modify-write in Create and Delete is not serialized against
other concurrent index mutations, so two near-simultaneous Create calls can
lose one ID (last write wins on the index). This is an accepted limitation
for a single-user, single-process vault.
*/
type Repository interface {
	/*
		GetAll fetch every indexed record

		Failures degrade to an empty list; individual unreadable entries are skipped.

			@param ctx context.Context - execution context
			@returns the records, in index order
	*/
	GetAll(ctx context.Context) []models.VaultRecord

	/*
		GetByID fetch one record by ID

			@param ctx context.Context - execution context
			@param recordID string - record ID
			@returns the record, or nil when absent or unreadable
	*/
	GetByID(ctx context.Context, recordID string) *models.VaultRecord

	/*
		Create store a new record

		The record ID is generated here; any ID on the draft is ignored. The record
		is written before the index is updated, so an interruption in between leaves
		an orphan record rather than a dangling index reference.

			@param ctx context.Context - execution context
			@param draft models.VaultRecord - the record fields, ID ignored
			@returns the stored record with its generated ID
	*/
	Create(ctx context.Context, draft models.VaultRecord) (models.VaultRecord, error)

	/*
		Update overwrite a record at its existing key

		The index is not touched, and the ID is not checked against it; only call
		this with a record previously obtained from this repository.

			@param ctx context.Context - execution context
			@param record models.VaultRecord - the full record to store
	*/
	Update(ctx context.Context, record models.VaultRecord) error

	/*
		Delete remove a record and unlink it from the index

		The record key is removed first; an interruption before the index rewrite
		leaves a dangling reference, which GetAll tolerates.

			@param ctx context.Context - execution context
			@param recordID string - record ID
	*/
	Delete(ctx context.Context, recordID string) error

	/*
		SaveAll wholesale replace the vault content

		Every currently indexed record is deleted, the given records are written,
		and the index is rebuilt from their IDs. Meant for infrequent bulk restore,
		not for use concurrently with per-record CRUD.

			@param ctx context.Context - execution context
			@param records []models.VaultRecord - the replacement record set
	*/
	SaveAll(ctx context.Context, records []models.VaultRecord) error
}

// repositoryImpl implements Repository
type repositoryImpl struct {
	goutils.Component

	kv store.SecureStore

	validator *validator.Validate
}

/*
NewRepository define new credential repository

	@param ctx context.Context - execution context
	@param kv store.SecureStore - the backing secure key-value store
	@returns repository instance
*/
func NewRepository(_ context.Context, kv store.SecureStore) (Repository, error) {
	logTags := log.Fields{"module": "vault", "component": "credential-repository"}

	instance := &repositoryImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		kv:        kv,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}

// readIndex fetch the vault index. A missing index key reads as empty.
func (r *repositoryImpl) readIndex(ctx context.Context) ([]string, error) {
	raw, found, err := r.kv.Get(ctx, IndexKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault index [%w]", err)
	}
	if !found {
		return []string{}, nil
	}

	var recordIDs []string
	if err := json.Unmarshal(raw, &recordIDs); err != nil {
		return nil, fmt.Errorf("vault index is malformed [%w]", err)
	}
	return recordIDs, nil
}

// writeIndex persist the vault index
func (r *repositoryImpl) writeIndex(ctx context.Context, recordIDs []string) error {
	raw, err := json.Marshal(recordIDs)
	if err != nil {
		return fmt.Errorf("failed to serialize vault index [%w]", err)
	}
	if err := r.kv.Set(ctx, IndexKey, raw, nil); err != nil {
		return fmt.Errorf("failed to write vault index [%w]", err)
	}
	return nil
}

// readRecord fetch and normalize one record entry
func (r *repositoryImpl) readRecord(
	ctx context.Context, recordID string,
) (models.VaultRecord, bool, error) {
	raw, found, err := r.kv.Get(ctx, RecordKey(recordID), nil)
	if err != nil {
		return models.VaultRecord{}, false, fmt.Errorf(
			"failed to read record %s [%w]", recordID, err,
		)
	}
	if !found {
		return models.VaultRecord{}, false, nil
	}

	var record models.VaultRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.VaultRecord{}, false, fmt.Errorf(
			"record %s is malformed [%w]", recordID, err,
		)
	}

	return models.NormalizeStored(record), true, nil
}

// writeRecord persist one record entry
func (r *repositoryImpl) writeRecord(ctx context.Context, record models.VaultRecord) error {
	raw, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to serialize record %s [%w]", record.ID, err)
	}
	if err := r.kv.Set(ctx, RecordKey(record.ID), raw, nil); err != nil {
		return fmt.Errorf("failed to write record %s [%w]", record.ID, err)
	}
	return nil
}

/*
GetAll fetch every indexed record

Failures degrade to an empty list; individual unreadable entries are skipped.

	@param ctx context.Context - execution context
	@returns the records, in index order
*/
func (r *repositoryImpl) GetAll(ctx context.Context) []models.VaultRecord {
	result := []models.VaultRecord{}

	recordIDs, err := r.readIndex(ctx)
	if err != nil {
		log.WithError(err).WithFields(r.LogTags).Warn("Vault index unreadable, degrading to empty")
		return result
	}

	for _, recordID := range recordIDs {
		record, found, err := r.readRecord(ctx, recordID)
		if err != nil {
			log.WithError(err).WithFields(r.LogTags).
				WithField("record_id", recordID).
				Warn("Skipping unreadable record entry")
			continue
		}
		if !found {
			// Dangling index reference
			log.WithFields(r.LogTags).
				WithField("record_id", recordID).
				Debug("Skipping dangling index reference")
			continue
		}
		result = append(result, record)
	}

	return result
}

/*
GetByID fetch one record by ID

	@param ctx context.Context - execution context
	@param recordID string - record ID
	@returns the record, or nil when absent or unreadable
*/
func (r *repositoryImpl) GetByID(ctx context.Context, recordID string) *models.VaultRecord {
	record, found, err := r.readRecord(ctx, recordID)
	if err != nil {
		log.WithError(err).WithFields(r.LogTags).
			WithField("record_id", recordID).
			Warn("Record unreadable, degrading to nil")
		return nil
	}
	if !found {
		return nil
	}
	return &record
}

/*
Create store a new record

	@param ctx context.Context - execution context
	@param draft models.VaultRecord - the record fields, ID ignored
	@returns the stored record with its generated ID
*/
func (r *repositoryImpl) Create(
	ctx context.Context, draft models.VaultRecord,
) (models.VaultRecord, error) {
	record := draft
	record.ID = ulid.Make().String()
	if record.Reminders == nil {
		record.Reminders = []models.Reminder{}
	}

	if err := r.validator.Struct(&record); err != nil {
		return models.VaultRecord{}, fmt.Errorf("new record is not valid [%w]", err)
	}

	// Record first, index second: an interruption in between leaves an orphan
	// record instead of a dangling index reference.
	if err := r.writeRecord(ctx, record); err != nil {
		return models.VaultRecord{}, err
	}

	recordIDs, err := r.readIndex(ctx)
	if err != nil {
		return models.VaultRecord{}, fmt.Errorf(
			"record %s written but index update failed [%w]", record.ID, err,
		)
	}
	recordIDs = append(recordIDs, record.ID)
	if err := r.writeIndex(ctx, recordIDs); err != nil {
		return models.VaultRecord{}, fmt.Errorf(
			"record %s written but index update failed [%w]", record.ID, err,
		)
	}

	return record, nil
}

/*
Update overwrite a record at its existing key

	@param ctx context.Context - execution context
	@param record models.VaultRecord - the full record to store
*/
func (r *repositoryImpl) Update(ctx context.Context, record models.VaultRecord) error {
	if err := r.validator.Struct(&record); err != nil {
		return fmt.Errorf("updated record is not valid [%w]", err)
	}
	return r.writeRecord(ctx, record)
}

/*
Delete remove a record and unlink it from the index

	@param ctx context.Context - execution context
	@param recordID string - record ID
*/
func (r *repositoryImpl) Delete(ctx context.Context, recordID string) error {
	// Key first, index second: an interruption in between leaves a dangling
	// reference, which GetAll tolerates.
	if err := r.kv.Delete(ctx, RecordKey(recordID), nil); err != nil {
		return fmt.Errorf("failed to delete record %s [%w]", recordID, err)
	}

	recordIDs, err := r.readIndex(ctx)
	if err != nil {
		return fmt.Errorf("record %s deleted but index update failed [%w]", recordID, err)
	}

	remaining := []string{}
	for _, id := range recordIDs {
		if id != recordID {
			remaining = append(remaining, id)
		}
	}

	if err := r.writeIndex(ctx, remaining); err != nil {
		return fmt.Errorf("record %s deleted but index update failed [%w]", recordID, err)
	}

	return nil
}

/*
SaveAll wholesale replace the vault content

	@param ctx context.Context - execution context
	@param records []models.VaultRecord - the replacement record set
*/
func (r *repositoryImpl) SaveAll(ctx context.Context, records []models.VaultRecord) error {
	// No per-record validation here: the restore path accepts sanitized
	// records as-is, and one sparse record must not fail the whole restore.

	// Drop every currently indexed record
	currentIDs, err := r.readIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current vault index [%w]", err)
	}
	for _, recordID := range currentIDs {
		if err := r.kv.Delete(ctx, RecordKey(recordID), nil); err != nil {
			return fmt.Errorf("failed to delete record %s [%w]", recordID, err)
		}
	}

	// Write the replacement set and rebuild the index from it
	newIDs := []string{}
	for _, record := range records {
		if err := r.writeRecord(ctx, record); err != nil {
			return err
		}
		newIDs = append(newIDs, record.ID)
	}

	if err := r.writeIndex(ctx, newIDs); err != nil {
		return fmt.Errorf("failed to rebuild vault index [%w]", err)
	}

	// The content replacement succeeded, so an audit failure here only costs
	// the trail entry, not the restored data.
	if err := r.kv.RecordRestore(ctx, len(records), nil); err != nil {
		log.WithError(err).WithFields(r.LogTags).
			WithField("records", len(records)).
			Warn("Vault restored but audit event not logged")
	}

	return nil
}
