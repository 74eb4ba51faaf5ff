package model

// TargetType identifies one of the compliance facts the scanner locates
// on a website. Each target type runs its own discovery protocol instance
// with its own keyword profile and classifier prompt.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and map keys. The String() method provides
// the stable identifier used in reports and database rows.
type TargetType int

const (
	// TargetPrivacyPolicy is the site's privacy policy or privacy notice page.
	// It is always discovered first; the remaining targets are seeded at it.
	TargetPrivacyPolicy TargetType = iota

	// TargetCookieDeclaration is the cookie policy or cookie declaration page.
	TargetCookieDeclaration

	// TargetDataRetention is the data retention statement (how long personal
	// data is kept and under which conditions).
	TargetDataRetention

	// TargetDataDeletion is the data deletion or data management page
	// (right to erasure, account deletion, data download).
	TargetDataDeletion

	// TargetDPOContact is the Data Protection Officer contact page.
	TargetDPOContact
)

// SubTargets lists the target types discovered from the privacy policy page,
// in declaration order. TargetPrivacyPolicy is excluded because it is the
// seed for the others.
func SubTargets() []TargetType {
	return []TargetType{
		TargetCookieDeclaration,
		TargetDataRetention,
		TargetDataDeletion,
		TargetDPOContact,
	}
}

// String returns the stable identifier for the target type.
// These strings are used as JSON keys and database values, so changing
// them breaks stored history.
func (t TargetType) String() string {
	switch t {
	case TargetPrivacyPolicy:
		return "privacy_policy"
	case TargetCookieDeclaration:
		return "cookie_declaration"
	case TargetDataRetention:
		return "data_retention"
	case TargetDataDeletion:
		return "data_deletion"
	case TargetDPOContact:
		return "dpo_contact"
	default:
		return "unknown"
	}
}

// ParseTargetType resolves a stable identifier back to its TargetType.
// The second return value reports whether the identifier is known.
func ParseTargetType(s string) (TargetType, bool) {
	switch s {
	case "privacy_policy":
		return TargetPrivacyPolicy, true
	case "cookie_declaration":
		return TargetCookieDeclaration, true
	case "data_retention":
		return TargetDataRetention, true
	case "data_deletion":
		return TargetDataDeletion, true
	case "dpo_contact":
		return TargetDPOContact, true
	default:
		return TargetPrivacyPolicy, false
	}
}

// Description returns the human-readable name used in prompts and reports.
func (t TargetType) Description() string {
	switch t {
	case TargetPrivacyPolicy:
		return "privacy policy"
	case TargetCookieDeclaration:
		return "cookie declaration"
	case TargetDataRetention:
		return "data retention policy"
	case TargetDataDeletion:
		return "data deletion or data management page"
	case TargetDPOContact:
		return "Data Protection Officer contact information"
	default:
		return "unknown target"
	}
}
