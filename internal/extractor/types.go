package extractor

// RelationshipFlags capture whether an outreach request was sent and whether it
// was accepted.
type RelationshipFlags struct {
	RequestSent bool `json:"requestSent"`
	Connected   bool `json:"connected"`
}

// ExtractedRecord is a best-effort read of a profile page, any field may be empty.
type ExtractedRecord struct {
	Name         string            `json:"name"`
	Role         string            `json:"role"`
	Company      string            `json:"company"`
	CanonicalURL string            `json:"canonicalUrl"`
	Email        string            `json:"email"`
	Flags        RelationshipFlags `json:"relationshipFlags"`
	// CompanionKey is the url of the company page linked from the current
	// experience entry.
	CompanionKey string `json:"companionKey,omitempty"`
}

// Complete reports whether the record has a name and at least one of role or company.
func (r ExtractedRecord) Complete() bool {
	return r.Name != "" && (r.Role != "" || r.Company != "")
}

// RelatedEntity is the organization a profile is affiliated with.
type RelatedEntity struct {
	DisplayName   string `json:"displayName"`
	Website       string `json:"website"`
	LocationLabel string `json:"locationLabel"`
}
