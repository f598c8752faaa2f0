package events

var ApplicantShortlistedTopic = "ApplicantShortlistedEvent"
var ShortlistRevokedTopic = "ShortlistRevokedEvent"

type ApplicantShortlisted struct {
	ApplicantKey string
	Created      bool // false when an existing record was refreshed
}

type ShortlistRevoked struct {
	ApplicantKey string
}
