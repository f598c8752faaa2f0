package entities

type ShortlistStatus string

const (
	StatusShortlisted    ShortlistStatus = "Shortlisted"
	StatusNotShortlisted ShortlistStatus = "Not Shortlisted"
)

// Enrichment is the oracle's verdict for one snapshot document.
type Enrichment struct {
	Summary   string
	Score     int
	Issues    string
	FollowUps string
}
