// Package backup - vault import / export boundary
package backup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/bunker/models"
	"github.com/alwitt/bunker/vault"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

/*
ExportRecords serialize a record set for export.

Export always emits the bare JSON array form.

	@param records []models.VaultRecord - the records to export
	@returns the export document
*/
func ExportRecords(records []models.VaultRecord) ([]byte, error) {
	if records == nil {
		records = []models.VaultRecord{}
	}
	blob, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault export [%w]", err)
	}
	return blob, nil
}

// importEnvelope the legacy object import form
type importEnvelope struct {
	Credentials []models.VaultRecord `json:"credentials"`
}

/*
ParseImport parse and sanitize an import document.

Both the bare array form and the legacy `{"credentials": [...]}` envelope
are accepted. Each record passes through models.SanitizeImported, so a
malformed record is coerced to valid defaults rather than failing the whole
import. Only a document that is not valid JSON, or neither an array nor an
object carrying a credentials array, is a hard failure.

	@param blob []byte - the import document
	@returns the sanitized records
*/
func ParseImport(blob []byte) ([]models.VaultRecord, error) {
	var records []models.VaultRecord

	if err := json.Unmarshal(blob, &records); err != nil {
		var envelope importEnvelope
		if err := json.Unmarshal(blob, &envelope); err != nil {
			return nil, fmt.Errorf("import document is not parseable [%w]", err)
		}
		if envelope.Credentials == nil {
			return nil, fmt.Errorf("import document carries no credentials array")
		}
		records = envelope.Credentials
	} else if records == nil {
		// A JSON `null` document unmarshals into a nil slice without error.
		// Treating it as an empty import would wipe the vault on restore.
		return nil, fmt.Errorf("import document carries no credentials array")
	}

	sanitized := make([]models.VaultRecord, 0, len(records))
	for _, record := range records {
		sanitized = append(sanitized, models.SanitizeImported(record))
	}

	return sanitized, nil
}

// Uploader boundary with the cloud drive transport.
//
// The transport performs all protocol-level work; this package only supplies
// the serialized vault blob and reacts to the result.
type Uploader interface {
	/*
		Upload push a serialized vault blob to the backing drive

			@param ctx context.Context - execution context
			@param blob []byte - the serialized vault content
	*/
	Upload(ctx context.Context, blob []byte) error
}

// Manager drives vault backup and restore against a cloud drive
type Manager interface {
	/*
		Backup serialize the current vault content and upload it

			@param ctx context.Context - execution context
	*/
	Backup(ctx context.Context) error

	/*
		Restore replace the vault content from an import document

			@param ctx context.Context - execution context
			@param blob []byte - the import document
	*/
	Restore(ctx context.Context, blob []byte) error
}

// managerImpl implements Manager
type managerImpl struct {
	goutils.Component

	repo vault.Repository

	uploader Uploader
}

/*
NewManager define new backup manager

	@param ctx context.Context - execution context
	@param repo vault.Repository - the credential repository
	@param uploader Uploader - the cloud drive transport
	@returns manager instance
*/
func NewManager(_ context.Context, repo vault.Repository, uploader Uploader) (Manager, error) {
	logTags := log.Fields{"module": "backup", "component": "backup-manager"}

	instance := &managerImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		repo:     repo,
		uploader: uploader,
	}

	return instance, nil
}

/*
Backup serialize the current vault content and upload it

	@param ctx context.Context - execution context
*/
func (m *managerImpl) Backup(ctx context.Context) error {
	records := m.repo.GetAll(ctx)

	blob, err := ExportRecords(records)
	if err != nil {
		return fmt.Errorf("failed to prepare vault backup [%w]", err)
	}

	if err := m.uploader.Upload(ctx, blob); err != nil {
		return fmt.Errorf("failed to upload vault backup [%w]", err)
	}

	log.WithFields(m.LogTags).WithField("records", len(records)).Info("Vault backup uploaded")
	return nil
}

/*
Restore replace the vault content from an import document

	@param ctx context.Context - execution context
	@param blob []byte - the import document
*/
func (m *managerImpl) Restore(ctx context.Context, blob []byte) error {
	records, err := ParseImport(blob)
	if err != nil {
		return fmt.Errorf("failed to parse vault restore document [%w]", err)
	}

	if err := m.repo.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("failed to apply vault restore [%w]", err)
	}

	log.WithFields(m.LogTags).WithField("records", len(records)).Info("Vault content restored")
	return nil
}
