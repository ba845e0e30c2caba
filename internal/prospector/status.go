package prospector

import "prospect-sync/internal/extractor"

type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusEmpty    Status = "empty"
)

// Classify sorts a record by how much of it was extracted.
func Classify(record extractor.ExtractedRecord) Status {
	switch {
	case record.Complete():
		return StatusComplete
	case record.Name != "":
		return StatusPartial
	default:
		return StatusEmpty
	}
}

func (s Status) Message() string {
	switch s {
	case StatusComplete:
		return "Profile data extracted! You can edit and save."
	case StatusPartial:
		return "Partial data extracted. Please check and edit as needed."
	default:
		return "Could not extract data. The page may still be loading."
	}
}

// companionOutcome is how the related-entity pass ended.
type companionOutcome int

const (
	companionExtracted companionOutcome = iota
	companionEmpty
	companionUnreachable
)

func (o companionOutcome) message() string {
	switch o {
	case companionExtracted:
		return "Profile and brand data extracted! Review and save."
	case companionEmpty:
		return "Profile data extracted! Could not get brand data."
	default:
		return "Profile data extracted! Could not open brand page."
	}
}
