package models

import "time"

// VaultEntry one sealed key-value entry in the vault backing store.
//
// The store keeps exactly one value per key; writes are full overwrites.
type VaultEntry struct {
	// ID entry row ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,uuid_rfc4122"`

	// Key entry key
	Key string `json:"key" gorm:"column:key;not null;unique" validate:"required"`

	// SealedValue the sealed entry value
	SealedValue []byte `json:"sealed_value" gorm:"column:sealed_value;not null" validate:"required"`
	// SealNonce the seal nonce used
	SealNonce []byte `json:"seal_nonce" gorm:"column:seal_nonce;not null" validate:"required"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}
