package vault_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alwitt/bunker/db"
	"github.com/alwitt/bunker/models"
	"github.com/alwitt/bunker/vault"
	"github.com/stretchr/testify/assert"
)

// fakeSecureStore map backed SecureStore with failure injection
type fakeSecureStore struct {
	data map[string][]byte

	failGet    map[string]bool
	failSet    bool
	failDelete bool

	restoreCounts []int
}

func newFakeSecureStore() *fakeSecureStore {
	return &fakeSecureStore{data: map[string][]byte{}, failGet: map[string]bool{}}
}

func (s *fakeSecureStore) Set(
	_ context.Context, key string, value []byte, _ db.Database,
) error {
	if s.failSet {
		return fmt.Errorf("injected set failure")
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	s.data[key] = copied
	return nil
}

func (s *fakeSecureStore) Get(
	_ context.Context, key string, _ db.Database,
) ([]byte, bool, error) {
	if s.failGet[key] {
		return nil, false, fmt.Errorf("injected get failure")
	}
	value, found := s.data[key]
	if !found {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *fakeSecureStore) Delete(_ context.Context, key string, _ db.Database) error {
	if s.failDelete {
		return fmt.Errorf("injected delete failure")
	}
	delete(s.data, key)
	return nil
}

func (s *fakeSecureStore) RecordRestore(_ context.Context, entryCount int, _ db.Database) error {
	s.restoreCounts = append(s.restoreCounts, entryCount)
	return nil
}

// TestRepositoryCreateAndGet verifies the create / read round trip.
func TestRepositoryCreateAndGet(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()
	kv := newFakeSecureStore()
	uut, err := vault.NewRepository(utCtx, kv)
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Empty vault reads as empty
	assert.Empty(uut.GetAll(utCtx))
	assert.Nil(uut.GetByID(utCtx, "no-such-id"))

	// -------------------------------------------------------------------------
	// 2 – Create a sequence of records
	var created []models.VaultRecord
	for idx := 0; idx < 3; idx++ {
		record, err := uut.Create(utCtx, models.VaultRecord{
			AccountName: fmt.Sprintf("account-%d", idx),
			Username:    fmt.Sprintf("user-%d", idx),
			Password:    "Ab3!Ab3!",
			Category:    models.CategoryPersonal,
		})
		assert.Nil(err)
		assert.NotEmpty(record.ID)
		assert.NotNil(record.Reminders)
		created = append(created, record)
	}

	// Generated IDs are unique
	assert.NotEqual(created[0].ID, created[1].ID)
	assert.NotEqual(created[1].ID, created[2].ID)

	// 3 – GetAll returns every create, in insertion order
	all := uut.GetAll(utCtx)
	assert.Len(all, 3)
	for idx, record := range all {
		assert.Equal(created[idx].ID, record.ID)
		assert.Equal(created[idx].AccountName, record.AccountName)
	}

	// 4 – Each record is retrievable by its returned ID with identical fields
	for _, expected := range created {
		fetched := uut.GetByID(utCtx, expected.ID)
		assert.NotNil(fetched)
		assert.Equal(expected, *fetched)
	}
}

// TestRepositoryUpdate verifies full-record overwrite semantics.
func TestRepositoryUpdate(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()
	kv := newFakeSecureStore()
	uut, err := vault.NewRepository(utCtx, kv)
	assert.Nil(err)

	record, err := uut.Create(utCtx, models.VaultRecord{
		AccountName: "email",
		Password:    "abcdef",
		Category:    models.CategoryPersonal,
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Mutate a copy and write it back
	updated := record.Clone()
	updated.Password = "Ab3!Ab3!"
	updated.Notes = "rotated"
	assert.Nil(uut.Update(utCtx, updated))

	fetched := uut.GetByID(utCtx, record.ID)
	assert.NotNil(fetched)
	assert.Equal("Ab3!Ab3!", fetched.Password)
	assert.Equal("rotated", fetched.Notes)

	// 2 – Update is idempotent
	assert.Nil(uut.Update(utCtx, updated))
	again := uut.GetByID(utCtx, record.ID)
	assert.Equal(*fetched, *again)

	// 3 – The index is untouched by updates
	assert.Len(uut.GetAll(utCtx), 1)
}

// TestRepositoryDelete verifies deletion and index unlinking.
func TestRepositoryDelete(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()
	kv := newFakeSecureStore()
	uut, err := vault.NewRepository(utCtx, kv)
	assert.Nil(err)

	record1, err := uut.Create(utCtx, models.VaultRecord{
		AccountName: "keep", Password: "x", Category: models.CategoryWork,
	})
	assert.Nil(err)
	record2, err := uut.Create(utCtx, models.VaultRecord{
		AccountName: "drop", Password: "x", Category: models.CategoryWork,
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Delete the second record
	assert.Nil(uut.Delete(utCtx, record2.ID))
	assert.Nil(uut.GetByID(utCtx, record2.ID))

	all := uut.GetAll(utCtx)
	assert.Len(all, 1)
	assert.Equal(record1.ID, all[0].ID)

	// 2 – Deleting an absent record is tolerated
	assert.Nil(uut.Delete(utCtx, "no-such-id"))
}

// TestRepositorySaveAll verifies wholesale replacement.
func TestRepositorySaveAll(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()
	kv := newFakeSecureStore()
	uut, err := vault.NewRepository(utCtx, kv)
	assert.Nil(err)

	existing, err := uut.Create(utCtx, models.VaultRecord{
		AccountName: "old", Password: "x", Category: models.CategoryPersonal,
	})
	assert.Nil(err)

	replacement := []models.VaultRecord{
		{
			ID:          "restored-1",
			AccountName: "new-1",
			Password:    "Ab3!Ab3!",
			Category:    models.CategoryWork,
			Reminders:   []models.Reminder{},
		},
		{
			ID:          "restored-2",
			AccountName: "new-2",
			Password:    "abcdef",
			Category:    models.CategoryFav,
			Reminders:   []models.Reminder{},
		},
	}

	// -------------------------------------------------------------------------
	// 1 – Replace the vault content
	assert.Nil(uut.SaveAll(utCtx, replacement))

	all := uut.GetAll(utCtx)
	assert.Len(all, 2)
	assert.Equal("restored-1", all[0].ID)
	assert.Equal("restored-2", all[1].ID)

	// 2 – The prior record is no longer retrievable
	assert.Nil(uut.GetByID(utCtx, existing.ID))

	// 3 – The restore was logged with the replacement record count
	assert.Equal([]int{2}, kv.restoreCounts)

	// 4 – Replacing with an empty set empties the vault
	assert.Nil(uut.SaveAll(utCtx, []models.VaultRecord{}))
	assert.Empty(uut.GetAll(utCtx))
	assert.Equal([]int{2, 0}, kv.restoreCounts)
}

// TestRepositoryFailSoftReads verifies the read path degradation policy.
func TestRepositoryFailSoftReads(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()
	kv := newFakeSecureStore()
	uut, err := vault.NewRepository(utCtx, kv)
	assert.Nil(err)

	record1, err := uut.Create(utCtx, models.VaultRecord{
		AccountName: "a", Password: "x", Category: models.CategoryPersonal,
	})
	assert.Nil(err)
	record2, err := uut.Create(utCtx, models.VaultRecord{
		AccountName: "b", Password: "x", Category: models.CategoryPersonal,
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Dangling index reference: drop the record key behind the index's back
	delete(kv.data, vault.RecordKey(record1.ID))
	all := uut.GetAll(utCtx)
	assert.Len(all, 1)
	assert.Equal(record2.ID, all[0].ID)

	// 2 – Malformed record entry is skipped, not surfaced
	kv.data[vault.RecordKey(record2.ID)] = []byte("{not json")
	assert.Empty(uut.GetAll(utCtx))
	assert.Nil(uut.GetByID(utCtx, record2.ID))

	// 3 – Store failure on the index degrades GetAll to empty
	kv.failGet[vault.IndexKey] = true
	assert.Empty(uut.GetAll(utCtx))
	kv.failGet[vault.IndexKey] = false

	// 4 – Store failure on a single record degrades GetByID to nil
	kv.failGet[vault.RecordKey(record2.ID)] = true
	assert.Nil(uut.GetByID(utCtx, record2.ID))
}

// TestRepositoryWriteFailures verifies that write failures propagate.
func TestRepositoryWriteFailures(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()
	kv := newFakeSecureStore()
	uut, err := vault.NewRepository(utCtx, kv)
	assert.Nil(err)

	record, err := uut.Create(utCtx, models.VaultRecord{
		AccountName: "a", Password: "x", Category: models.CategoryPersonal,
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Create fails when the store rejects writes
	kv.failSet = true
	_, err = uut.Create(utCtx, models.VaultRecord{
		AccountName: "b", Password: "x", Category: models.CategoryPersonal,
	})
	assert.Error(err)

	// 2 – Update failures propagate
	assert.Error(uut.Update(utCtx, record))
	kv.failSet = false

	// 3 – Delete failures propagate
	kv.failDelete = true
	assert.Error(uut.Delete(utCtx, record.ID))
	kv.failDelete = false

	// 4 – An invalid draft is rejected before any write
	_, err = uut.Create(utCtx, models.VaultRecord{Category: models.CategoryPersonal})
	assert.Error(err)
}

// TestRepositoryLegacyReminderRoundTrip verifies that a stored legacy-shape
// record reads back in the current multi-reminder shape.
func TestRepositoryLegacyReminderRoundTrip(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()
	kv := newFakeSecureStore()
	uut, err := vault.NewRepository(utCtx, kv)
	assert.Nil(err)

	// Plant a legacy-shape record directly in the store, indexed
	legacyJSON := []byte(`{
		"id": "legacy-1",
		"accountName": "old app entry",
		"alias": "",
		"username": "user",
		"password": "abcdef",
		"category": "personal",
		"hasReminder": true,
		"reminderDate": "2023-12-24",
		"reminderNote": "renew",
		"reminderTime": "08:00"
	}`)
	kv.data[vault.RecordKey("legacy-1")] = legacyJSON
	kv.data[vault.IndexKey] = []byte(`["legacy-1"]`)

	fetched := uut.GetByID(utCtx, "legacy-1")
	assert.NotNil(fetched)
	assert.Len(fetched.Reminders, 1)
	assert.Equal(models.LegacyReminderID, fetched.Reminders[0].ID)
	assert.Equal("2023-12-24", fetched.Reminders[0].Date)
	assert.Equal("renew", fetched.Reminders[0].Note)
	assert.Equal("08:00", fetched.Reminders[0].Time)

	all := uut.GetAll(utCtx)
	assert.Len(all, 1)
	assert.Len(all[0].Reminders, 1)
}

// TestRepositoryConcurrentIndexRace documents the accepted last-write-wins
// race on the index: interleaved Create calls which both read the index
// before either writes it lose one ID. The repository makes no serialization
// promise here; this test pins the behavior down so a change is noticed.
func TestRepositoryConcurrentIndexRace(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()
	kv := newFakeSecureStore()
	uut, err := vault.NewRepository(utCtx, kv)
	assert.Nil(err)

	record1, err := uut.Create(utCtx, models.VaultRecord{
		AccountName: "first", Password: "x", Category: models.CategoryPersonal,
	})
	assert.Nil(err)

	// Simulate a concurrent writer which read the index before record1's
	// create landed, then wrote its own view back afterwards
	kv.data[vault.IndexKey] = []byte(`[]`)

	// record1 is now an orphan: stored but invisible
	assert.Empty(uut.GetAll(utCtx))
	assert.NotNil(uut.GetByID(utCtx, record1.ID))
}
