// Package health - vault security scoring and statistics
package health

import (
	"math"
	"strings"
	"unicode"

	"github.com/alwitt/bunker/models"
)

// TierENUMType password strength tier ENUM
type TierENUMType string

const (
	// TierHigh strong password
	TierHigh TierENUMType = "HIGH"
	// TierMedium acceptable password
	TierMedium TierENUMType = "MEDIUM"
	// TierLow weak password
	TierLow TierENUMType = "LOW"
)

// passwordSymbols the symbol set counted by the symbol rule
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// ascendingRuns 3-digit ascending runs which disqualify a password from TierHigh
var ascendingRuns = []string{
	"012", "123", "234", "345", "456", "567", "678", "789", "890",
}

// PasswordRule the individual strength predicates evaluated over a password
type PasswordRule struct {
	// HasUpper contains an uppercase letter
	HasUpper bool
	// HasLower contains a lowercase letter
	HasLower bool
	// HasDigit contains a digit
	HasDigit bool
	// HasSymbol contains one of the fixed symbol set
	HasSymbol bool
	// HasMinLength length is at least eight
	HasMinLength bool
}

// MetCount number of rules the password met
func (p PasswordRule) MetCount() int {
	count := 0
	for _, met := range []bool{p.HasUpper, p.HasLower, p.HasDigit, p.HasSymbol, p.HasMinLength} {
		if met {
			count++
		}
	}
	return count
}

/*
InspectPassword evaluate the individual strength rules over a password

	@param password string - the password
	@returns per-rule results
*/
func InspectPassword(password string) PasswordRule {
	result := PasswordRule{HasMinLength: len(password) >= 8}
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			result.HasUpper = true
		case unicode.IsLower(char):
			result.HasLower = true
		case unicode.IsDigit(char):
			result.HasDigit = true
		case strings.ContainsRune(passwordSymbols, char):
			result.HasSymbol = true
		}
	}
	return result
}

// hasAscendingRun whether the password contains a 3-digit ascending run
func hasAscendingRun(password string) bool {
	for _, run := range ascendingRuns {
		if strings.Contains(password, run) {
			return true
		}
	}
	return false
}

/*
EvaluatePassword classify a password into a strength tier.

The tiers are mutually exclusive and exhaustive; the High check runs first,
then Medium, else Low, which is the tie-break when a password satisfies both
thresholds.

	@param password string - the password
	@returns the strength tier
*/
func EvaluatePassword(password string) TierENUMType {
	rules := InspectPassword(password)

	if rules.HasMinLength &&
		rules.HasUpper && rules.HasLower && rules.HasDigit && rules.HasSymbol &&
		!hasAscendingRun(password) {
		return TierHigh
	}

	if len(password) >= 6 && rules.MetCount() >= 3 {
		return TierMedium
	}

	return TierLow
}

/*
IsEligible whether a record's category implies a real password.

Pet and vehicle records never carry a meaningful password and are excluded
from scoring.

	@param record models.VaultRecord - the record
	@returns whether the record participates in scoring
*/
func IsEligible(record models.VaultRecord) bool {
	return record.Category != models.CategoryPet && record.Category != models.CategoryMobility
}

// VaultScore aggregate strength statistics over the eligible records
type VaultScore struct {
	// Eligible number of records which participated in scoring
	Eligible int `json:"eligible"`

	// High number of TierHigh records
	High int `json:"high"`
	// Medium number of TierMedium records
	Medium int `json:"medium"`
	// Low number of TierLow records
	Low int `json:"low"`

	// HighPercent percentage of TierHigh records over the eligible set
	HighPercent float64 `json:"high_percent"`
	// MediumPercent percentage of TierMedium records over the eligible set
	MediumPercent float64 `json:"medium_percent"`
	// LowPercent percentage of TierLow records over the eligible set
	LowPercent float64 `json:"low_percent"`

	// StrictScore round(100 * high / eligible). Counts only the TierHigh
	// fraction; a vault of purely TierMedium passwords scores 0 here.
	StrictScore int `json:"strict_score"`
	// WeightedScore round((100 * high + 50 * medium) / eligible). Gives
	// partial credit for TierMedium passwords.
	WeightedScore int `json:"weighted_score"`
}

/*
Score compute aggregate strength statistics over a record set.

Two score formulas are surfaced on different screens of the consuming app
and both are preserved as named outputs; see VaultScore.StrictScore and
VaultScore.WeightedScore.

	@param records []models.VaultRecord - the record set
	@returns the aggregate statistics
*/
func Score(records []models.VaultRecord) VaultScore {
	result := VaultScore{}

	for _, record := range records {
		if !IsEligible(record) {
			continue
		}
		result.Eligible++

		switch EvaluatePassword(record.Password) {
		case TierHigh:
			result.High++
		case TierMedium:
			result.Medium++
		case TierLow:
			result.Low++
		}
	}

	// Denominator floor of one avoids division by zero with no eligible
	// records; all outputs read zero in that case.
	denominator := float64(result.Eligible)
	if denominator < 1 {
		denominator = 1
	}

	result.HighPercent = 100 * float64(result.High) / denominator
	result.MediumPercent = 100 * float64(result.Medium) / denominator
	result.LowPercent = 100 * float64(result.Low) / denominator

	result.StrictScore = int(math.Round(100 * float64(result.High) / denominator))
	result.WeightedScore = int(math.Round(
		(100*float64(result.High) + 50*float64(result.Medium)) / denominator,
	))

	return result
}
