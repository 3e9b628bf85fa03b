package models

// CategoryENUMType vault record category ENUM
type CategoryENUMType string

const (
	// CategoryFav favorite entries
	CategoryFav CategoryENUMType = "fav"
	// CategoryWork work related credentials
	CategoryWork CategoryENUMType = "work"
	// CategoryPersonal personal credentials
	CategoryPersonal CategoryENUMType = "personal"
	// CategoryPet pet records
	CategoryPet CategoryENUMType = "pet"
	// CategoryMobility vehicle records
	CategoryMobility CategoryENUMType = "mobility"
	// CategoryEntertainment entertainment credentials
	CategoryEntertainment CategoryENUMType = "entertainment"
)

// KnownCategories the closed set of record categories
var KnownCategories = []CategoryENUMType{
	CategoryFav,
	CategoryWork,
	CategoryPersonal,
	CategoryPet,
	CategoryMobility,
	CategoryEntertainment,
}

// IsKnownCategory whether the value belongs to the closed category ENUM
func IsKnownCategory(category CategoryENUMType) bool {
	for _, known := range KnownCategories {
		if category == known {
			return true
		}
	}
	return false
}

// Reminder one scheduled reminder attached to a vault record.
//
// Insertion order within VaultRecord.Reminders is display order. Reminder IDs
// are unique within their parent record only.
type Reminder struct {
	// ID reminder ID, unique within the parent record
	ID string `json:"id" validate:"required"`
	// Note free text note shown with the reminder
	Note string `json:"note"`
	// Date reminder date
	Date string `json:"date"`
	// Time reminder time
	Time string `json:"time"`
}

// PetProfile extended fields for pet records
type PetProfile struct {
	// Species animal species
	Species string `json:"species,omitempty"`
	// Breed animal breed
	Breed string `json:"breed,omitempty"`
	// ChipNumber identification microchip number
	ChipNumber string `json:"chip_number,omitempty"`
	// VetName attending veterinarian
	VetName string `json:"vet_name,omitempty"`
	// VetPhone veterinarian contact number
	VetPhone string `json:"vet_phone,omitempty"`
	// BirthDate animal date of birth
	BirthDate string `json:"birth_date,omitempty"`
}

// VehicleProfile extended fields for vehicle records
type VehicleProfile struct {
	// Make vehicle manufacturer
	Make string `json:"make,omitempty"`
	// Model vehicle model
	Model string `json:"model,omitempty"`
	// Plate license plate
	Plate string `json:"plate,omitempty"`
	// VIN vehicle identification number
	VIN string `json:"vin,omitempty"`
	// InsurancePolicy insurance policy reference
	InsurancePolicy string `json:"insurance_policy,omitempty"`
	// InspectionDue next inspection due date
	InspectionDue string `json:"inspection_due,omitempty"`
}

/*
VaultRecord one stored secret entity (credential, pet, or vehicle entry).

The record ID is generated at creation and never changes afterwards; it is
the storage key suffix and the sole foreign key from the vault index.

For the `pet` and `mobility` categories the username and password fields
conventionally hold the sentinel "N/A"; this convention is upheld by
producers only, not enforced here. Similarly the extended pet / vehicle
payloads are only meaningful when the category matches, but no referential
constraint ties them together.
*/
type VaultRecord struct {
	// ID record ID
	ID string `json:"id" validate:"required"`

	// AccountName record display name
	AccountName string `json:"accountName" validate:"required"`
	// Alias optional free text label
	Alias string `json:"alias"`

	// Username account username, or "N/A" for non-credential categories
	Username string `json:"username"`
	// Password account password, or "N/A" for non-credential categories
	Password string `json:"password"`

	// WebsiteURL optional site URL
	WebsiteURL string `json:"websiteUrl,omitempty"`
	// Notes optional free text
	Notes string `json:"notes,omitempty"`

	// Category record category
	Category CategoryENUMType `json:"category" validate:"required,vault_category"`

	// HasReminder whether the reminders list is relevant for this record
	HasReminder bool `json:"hasReminder"`
	// Reminders attached reminders, in display order
	Reminders []Reminder `json:"reminders"`

	// LegacyReminderDate single-reminder predecessor of Reminders.
	// Deserialize-only; current code paths never write it.
	LegacyReminderDate string `json:"reminderDate,omitempty"`
	// LegacyReminderNote see LegacyReminderDate
	LegacyReminderNote string `json:"reminderNote,omitempty"`
	// LegacyReminderTime see LegacyReminderDate
	LegacyReminderTime string `json:"reminderTime,omitempty"`

	// Pet extended fields for pet records
	Pet *PetProfile `json:"pet,omitempty"`
	// Vehicle extended fields for vehicle records
	Vehicle *VehicleProfile `json:"vehicle,omitempty"`
}

// Clone deep copy the record so callers can mutate a copy before Update
func (r VaultRecord) Clone() VaultRecord {
	copied := r
	if r.Reminders != nil {
		copied.Reminders = make([]Reminder, len(r.Reminders))
		copy(copied.Reminders, r.Reminders)
	}
	if r.Pet != nil {
		pet := *r.Pet
		copied.Pet = &pet
	}
	if r.Vehicle != nil {
		vehicle := *r.Vehicle
		copied.Vehicle = &vehicle
	}
	return copied
}
