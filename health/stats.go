package health

import "github.com/alwitt/bunker/models"

// VaultReport the vault-wide read model for presentation
type VaultReport struct {
	// Total number of records in the vault
	Total int `json:"total"`

	// Categories record count per known category
	Categories map[models.CategoryENUMType]int `json:"categories"`

	// Uncategorized records whose category falls outside the closed ENUM.
	// Category is not strictly validated at write time, so free-form values
	// can accumulate; this bucket is total minus the known-category sum.
	Uncategorized int `json:"uncategorized"`

	// Score aggregate password strength statistics
	Score VaultScore `json:"score"`
}

/*
BuildVaultReport compose category tallies and strength statistics into one
read model.

Pure function of the given record set; recomputed on every call and never
cached, so it is always consistent with the latest repository state.

	@param records []models.VaultRecord - the record set
	@returns the report
*/
func BuildVaultReport(records []models.VaultRecord) VaultReport {
	report := VaultReport{
		Total:      len(records),
		Categories: map[models.CategoryENUMType]int{},
	}
	for _, category := range models.KnownCategories {
		report.Categories[category] = 0
	}

	known := 0
	for _, record := range records {
		if models.IsKnownCategory(record.Category) {
			report.Categories[record.Category]++
			known++
		}
	}
	report.Uncategorized = report.Total - known

	report.Score = Score(records)

	return report
}
