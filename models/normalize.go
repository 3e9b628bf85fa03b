package models

import "github.com/oklog/ulid/v2"

// LegacyReminderID sentinel reminder ID used for reminders synthesized from
// the legacy single-reminder fields. Distinguishable from generated IDs.
const LegacyReminderID = "legacy-reminder"

/*
NormalizeStored upgrade the in-memory view of a stored record to the current
schema.

Older app versions persisted a single reminder through the singular
reminderDate / reminderNote / reminderTime fields. When such a record is read
with HasReminder set and an empty Reminders list, a one-element list is
synthesized from the legacy fields under the LegacyReminderID sentinel.

The stored bytes are never rewritten by this pass; only the returned view is
upgraded. The record is persisted in the current shape the next time the user
explicitly saves it.

	@param record VaultRecord - the record as deserialized from storage
	@returns the normalized view
*/
func NormalizeStored(record VaultRecord) VaultRecord {
	if record.Reminders == nil {
		record.Reminders = []Reminder{}
	}

	hasLegacy := record.LegacyReminderDate != "" ||
		record.LegacyReminderNote != "" ||
		record.LegacyReminderTime != ""

	if record.HasReminder && len(record.Reminders) == 0 && hasLegacy {
		record.Reminders = []Reminder{{
			ID:   LegacyReminderID,
			Note: record.LegacyReminderNote,
			Date: record.LegacyReminderDate,
			Time: record.LegacyReminderTime,
		}}
	}

	return record
}

/*
SanitizeImported coerce an externally supplied record into a valid shape.

Import sources are untrusted: a category outside the closed ENUM is coerced
to `personal`, a missing or falsy ID is replaced with a generated one, and a
missing reminders list defaults to empty. Unrecognized field content is never
stripped, and a malformed record is coerced rather than rejected, so one bad
entry cannot fail an entire restore.

	@param record VaultRecord - the incoming record
	@returns the sanitized record
*/
func SanitizeImported(record VaultRecord) VaultRecord {
	if !IsKnownCategory(record.Category) {
		record.Category = CategoryPersonal
	}
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	if record.Reminders == nil {
		record.Reminders = []Reminder{}
	}
	return record
}
