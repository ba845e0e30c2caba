package prospects

// FieldSchema maps record attributes to the column names of the remote tables.
// An empty column name means the attribute is not sent.
type FieldSchema struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Company      string `json:"company"`
	CanonicalURL string `json:"canonical_url"`
	Email        string `json:"email"`
	RequestSent  string `json:"request_sent"`
	Connected    string `json:"connected"`
	// RelatedLink is the linked-record column pointing at the related table.
	RelatedLink string `json:"related_link"`

	RelatedTable    string `json:"related_table"`
	RelatedName     string `json:"related_name"`
	RelatedWebsite  string `json:"related_website"`
	RelatedLocation string `json:"related_location"`
	// FirstCreationField is only written when a related record is created, later
	// updates leave whatever the user changed it to.
	FirstCreationField string `json:"first_creation_field"`
	FirstCreationValue string `json:"first_creation_value"`
}

// DefaultFieldSchema is the layout of the prospecting base template. Company is
// left empty so the extracted company is not sent: the template has no company
// column and reaches it through the Brand link. Set `schema.company` in the
// config to write it to a column.
func DefaultFieldSchema() FieldSchema {
	return FieldSchema{
		Name:         "Name",
		Role:         "Role",
		CanonicalURL: "LinkedIn URL",
		Email:        "Email",
		RequestSent:  "LI Connection Request?",
		Connected:    "Connected?",
		RelatedLink:  "Brand",

		RelatedTable:       "Brands",
		RelatedName:        "Brand Name",
		RelatedWebsite:     "Brand Website",
		RelatedLocation:    "Location",
		FirstCreationField: "Temperature",
		FirstCreationValue: "Cold",
	}
}

func put(fields map[string]any, column string, value any) {
	if column == "" {
		return
	}
	fields[column] = value
}
