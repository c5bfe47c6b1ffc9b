package models

// Category identifies one class of extracted intelligence
type Category string

const (
	CategoryUPIIDs         Category = "upi_ids"
	CategoryPhoneNumbers   Category = "phone_numbers"
	CategorySusLinks       Category = "sus_links"
	CategoryBankAccounts   Category = "bank_accounts"
	CategoryAmounts        Category = "amounts"
	CategoryScammerName    Category = "scammer_name"
	CategoryScammerAddress Category = "scammer_address"
	CategoryEmailAddresses Category = "email_addresses"
)

// Categories is the closed set of intelligence categories. Values from any
// source outside this set are dropped during consolidation.
var Categories = []Category{
	CategoryUPIIDs,
	CategoryPhoneNumbers,
	CategorySusLinks,
	CategoryBankAccounts,
	CategoryAmounts,
	CategoryScammerName,
	CategoryScammerAddress,
	CategoryEmailAddresses,
}

// EntityRecord is a categorized, deduplicated set of intelligence items.
// A key that produced no matches is absent, never present with an empty slice.
type EntityRecord map[Category][]string

// Add appends a value to a category, skipping exact duplicates.
func (r EntityRecord) Add(cat Category, value string) {
	for _, v := range r[cat] {
		if v == value {
			return
		}
	}
	r[cat] = append(r[cat], value)
}

// Get returns the values for a category (nil when absent).
func (r EntityRecord) Get(cat Category) []string {
	if r == nil {
		return nil
	}
	return r[cat]
}

// IsEmpty reports whether no category holds any value.
func (r EntityRecord) IsEmpty() bool {
	for _, vals := range r {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the record.
func (r EntityRecord) Clone() EntityRecord {
	out := make(EntityRecord, len(r))
	for cat, vals := range r {
		cp := make([]string, len(vals))
		copy(cp, vals)
		out[cat] = cp
	}
	return out
}
