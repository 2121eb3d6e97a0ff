// Package engagement renders per-user dashboards from line-delimited JSON
// exports of Copilot engagement rollups.
package engagement

// Record is one per-user, per-day engagement rollup. The nested totals
// are explicit types so field presence and shape are checked once at
// parse time.
type Record struct {
	UserLogin                     string          `json:"user_login"`
	Day                           string          `json:"day"`
	CodeGenerationActivityCount   float64         `json:"code_generation_activity_count"`
	CodeAcceptanceActivityCount   float64         `json:"code_acceptance_activity_count"`
	UserInitiatedInteractionCount float64         `json:"user_initiated_interaction_count"`
	TotalsByFeature               []FeatureTotal  `json:"totals_by_feature"`
	TotalsByIDE                   []IDETotal      `json:"totals_by_ide"`
	TotalsByLanguageFeature       []LanguageTotal `json:"totals_by_language_feature"`
}

// FeatureTotal is the per-feature slice of one rollup.
type FeatureTotal struct {
	Feature                     string  `json:"feature"`
	CodeGenerationActivityCount float64 `json:"code_generation_activity_count"`
}

// IDETotal is the per-IDE slice of one rollup.
type IDETotal struct {
	IDE                         string  `json:"ide"`
	CodeGenerationActivityCount float64 `json:"code_generation_activity_count"`
}

// LanguageTotal is the per-language slice of one rollup.
type LanguageTotal struct {
	Language                    string  `json:"language"`
	CodeGenerationActivityCount float64 `json:"code_generation_activity_count"`
}

// UserTotals is the per-user aggregate across all loaded rollups.
type UserTotals struct {
	User         string
	Generated    float64
	Accepted     float64
	Interactions float64
}

// AcceptanceRate is accepted over generated, zero when nothing was
// generated.
func (u UserTotals) AcceptanceRate() float64 {
	if u.Generated == 0 {
		return 0
	}
	return u.Accepted / u.Generated
}
