// Package presets is the built-in catalog of regulation-specific disclaimer
// texts used as authoring seeds. Entries are static, compiled in, and never
// persisted; admins copy one into an editable template of their own.
package presets

// Regulation names the regulatory regime a preset addresses.
type Regulation string

const (
	RegulationGDPR  Regulation = "gdpr"
	RegulationHIPAA Regulation = "hipaa"
	RegulationCCPA  Regulation = "ccpa"
	RegulationFINRA Regulation = "finra"
	RegulationSOX   Regulation = "sox"
	RegulationNone  Regulation = "none"
)

// Category groups presets for the template picker.
type Category string

const (
	CategoryPrivacy         Category = "privacy"
	CategoryHealthcare      Category = "healthcare"
	CategoryFinancial       Category = "financial"
	CategoryConfidentiality Category = "confidentiality"
	CategoryLegal           Category = "legal"
)

// Preset is one catalog entry. Content is plain text unless ContentHTML is
// set, mirroring the template model so a preset can seed either field.
type Preset struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    Category   `json:"category"`
	Regulation  Regulation `json:"regulationType"`
	Content     string     `json:"content"`
	ContentHTML string     `json:"contentHtml,omitempty"`
}

var catalog = []Preset{
	{
		ID:         "gdpr-standard",
		Name:       "GDPR Data Protection Notice",
		Category:   CategoryPrivacy,
		Regulation: RegulationGDPR,
		Content: "This email and any attachments may contain personal data processed in accordance " +
			"with the EU General Data Protection Regulation (GDPR). If you are not the intended " +
			"recipient, please notify the sender and delete this message. You have the right to " +
			"access, rectify, or erase personal data we hold about you.",
	},
	{
		ID:         "hipaa-standard",
		Name:       "HIPAA Confidentiality Notice",
		Category:   CategoryHealthcare,
		Regulation: RegulationHIPAA,
		Content: "This message may contain protected health information (PHI) covered by the Health " +
			"Insurance Portability and Accountability Act (HIPAA). If you are not the intended " +
			"recipient, any use, disclosure, or copying of this information is strictly prohibited. " +
			"Please notify the sender immediately and destroy all copies of the original message.",
	},
	{
		ID:         "ccpa-standard",
		Name:       "CCPA Privacy Notice",
		Category:   CategoryPrivacy,
		Regulation: RegulationCCPA,
		Content: "California residents: we collect and process personal information as described in " +
			"our privacy policy. You have the right to know what personal information we collect, " +
			"to request its deletion, and to opt out of its sale under the California Consumer " +
			"Privacy Act (CCPA).",
	},
	{
		ID:         "finra-standard",
		Name:       "FINRA Communications Disclosure",
		Category:   CategoryFinancial,
		Regulation: RegulationFINRA,
		Content: "Securities offered through a FINRA-member broker-dealer. This communication is for " +
			"informational purposes only and does not constitute an offer to sell or a solicitation " +
			"of an offer to buy any security. Past performance is not indicative of future results.",
	},
	{
		ID:         "sox-standard",
		Name:       "SOX Records Retention Notice",
		Category:   CategoryFinancial,
		Regulation: RegulationSOX,
		Content: "This email may be subject to retention requirements under the Sarbanes-Oxley Act. " +
			"Do not alter, delete, or destroy this communication or its attachments if it relates " +
			"to audit, financial reporting, or internal controls matters.",
	},
	{
		ID:         "confidentiality-standard",
		Name:       "Standard Confidentiality Notice",
		Category:   CategoryConfidentiality,
		Regulation: RegulationNone,
		Content: "This email and any attachments are confidential and intended solely for the " +
			"addressee. If you have received this message in error, please notify the sender " +
			"immediately and delete it from your system. Any unauthorized review, use, or " +
			"distribution is prohibited.",
	},
	{
		ID:         "attorney-client",
		Name:       "Attorney-Client Privilege Notice",
		Category:   CategoryLegal,
		Regulation: RegulationNone,
		Content: "This communication may be protected by the attorney-client privilege or the " +
			"attorney work product doctrine. If you are not the intended recipient, do not read, " +
			"copy, or distribute this message; please notify the sender and delete all copies.",
	},
	{
		ID:         "tax-advice",
		Name:       "Tax Advice Disclaimer (Circular 230)",
		Category:   CategoryLegal,
		Regulation: RegulationNone,
		Content: "Any tax advice contained in this communication is not intended to be used, and " +
			"cannot be used, for the purpose of avoiding penalties under applicable tax law or " +
			"promoting, marketing, or recommending any transaction or matter to another party.",
	},
}

var byID = func() map[string]Preset {
	m := make(map[string]Preset, len(catalog))
	for _, p := range catalog {
		m[p.ID] = p
	}
	return m
}()

// All returns the full catalog in its fixed order.
func All() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up one preset; ok is false for unknown IDs.
func ByID(presetID string) (Preset, bool) {
	p, ok := byID[presetID]
	return p, ok
}

// ByRegulation returns the presets addressing a regulation, in catalog order.
func ByRegulation(reg Regulation) []Preset {
	var out []Preset
	for _, p := range catalog {
		if p.Regulation == reg {
			out = append(out, p)
		}
	}
	return out
}

// ByCategory returns the presets in a category, in catalog order.
func ByCategory(cat Category) []Preset {
	var out []Preset
	for _, p := range catalog {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}
