package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	if err := v.RegisterValidation(
		"vault_category", validateVaultCategoryType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"vault_state", validateVaultStateType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"vault_event_type", validateVaultEventType,
	); err != nil {
		return err
	}

	return nil
}

func validateVaultCategoryType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return IsKnownCategory(CategoryENUMType(fl.Field().String()))
}

func validateVaultStateType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch VaultStateENUMType(fl.Field().String()) {
	case VaultStatePreInit:
		fallthrough
	case VaultStateInit:
		fallthrough
	case VaultStateRunning:
		return true
	}
	return false
}

func validateVaultEventType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch VaultEventTypeENUMType(fl.Field().String()) {
	case VaultEventTypeInitializing:
		fallthrough
	case VaultEventTypeInitialized:
		fallthrough
	case VaultEventTypeSetEntry:
		fallthrough
	case VaultEventTypeDeleteEntry:
		fallthrough
	case VaultEventTypeRestore:
		return true
	}
	return false
}
