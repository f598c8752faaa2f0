package tablestore

// Schema is the environment-specific renaming layer between the canonical
// document keys and whatever the backing store calls its tables and fields.
// For Airtable the names below are table and field ids, which keeps every
// lookup rename-proof; for the sqlite store they are plain column names.
// The whole thing is carried in configuration, never hardcoded at call sites.
type Schema struct {
	Applicants ApplicantSchema `mapstructure:"applicants"`
	Personal   TableSchema     `mapstructure:"personal"`
	Work       TableSchema     `mapstructure:"work"`
	Salary     TableSchema     `mapstructure:"salary"`
	Shortlist  ShortlistSchema `mapstructure:"shortlist"`
}

// TableSchema describes one child table: its name, the field holding the
// applicant key, and the document-key-to-field-name map.
type TableSchema struct {
	Name     string            `mapstructure:"name"`
	KeyField string            `mapstructure:"key_field"`
	Columns  map[string]string `mapstructure:"columns"`
}

type ApplicantSchema struct {
	Name           string `mapstructure:"name"`
	KeyField       string `mapstructure:"key_field"`
	SnapshotField  string `mapstructure:"snapshot_field"`
	StatusField    string `mapstructure:"status_field"`
	SummaryField   string `mapstructure:"summary_field"`
	ScoreField     string `mapstructure:"score_field"`
	FollowUpsField string `mapstructure:"follow_ups_field"`
}

type ShortlistSchema struct {
	Name             string `mapstructure:"name"`
	KeyField         string `mapstructure:"key_field"`
	SnapshotField    string `mapstructure:"snapshot_field"`
	ScoreReasonField string `mapstructure:"score_reason_field"`
}

// DefaultSchema mirrors the production Airtable base. Deployments against a
// different base, or against the sqlite store, override it in config.
func DefaultSchema() Schema {
	return Schema{
		Applicants: ApplicantSchema{
			Name:           "Applicants",
			KeyField:       "fldpKcWnQz3RqYd0A", // Applicant ID
			SnapshotField:  "fldDyJ6jT54YE99bs", // Compressed JSON
			StatusField:    "fldrIxLofvTyqLcfX", // Shortlist Status
			SummaryField:   "fld8vUBWqkmQZV1f6", // LLM Summary
			ScoreField:     "fldLux2quyDtYgCId", // LLM Score
			FollowUpsField: "fldJ2m1lnk2XGjFeF", // LLM Follow-Ups
		},
		Personal: TableSchema{
			Name:     "Personal Details",
			KeyField: "fldy0CgoqUy0zShMY",
			Columns: map[string]string{
				"name":     "fldQAuEiw05IwfJbb",
				"email":    "fldLFg3MWjAxoNXxp",
				"location": "fldbwGfpaxC5KbyFJ",
				"linkedin": "fldkqoBOtlo26cglB",
			},
		},
		Work: TableSchema{
			Name:     "Work Experience",
			KeyField: "fldjAiwBB2zuvWQKI",
			Columns: map[string]string{
				"company": "fldkTYhz6tDod6zeX",
				"title":   "fldQmVBZl4ZOz7nRc",
				"start":   "fld0S2WeNmYa2XXhM",
				"end":     "fldXSlyVJtbaAmi4V",
				"tech":    "fldGQYpn5effVBLHo",
			},
		},
		Salary: TableSchema{
			Name:     "Salary Preferences",
			KeyField: "fldiaw7BpD6Yt5kWn",
			Columns: map[string]string{
				"preferred_rate": "fld78iIAtgk9OqQ6B",
				"min_rate":       "fldN7kEdbRAmaVfUh",
				"currency":       "fldmt0c55Sd9KQsDE",
				"availability":   "fldZK6OMMWkAR6MMC",
			},
		},
		Shortlist: ShortlistSchema{
			Name:             "Shortlisted Leads",
			KeyField:         "fldSjq7mLtXv92bfE", // Applicant ID
			SnapshotField:    "fldCmPrsJdN45wqgu", // Compressed JSON
			ScoreReasonField: "fldRsnV8oEaZK31tx", // Score Reason
		},
	}
}

// PlainSchema uses human-readable field names throughout. It is the default
// for the sqlite backend and keeps tests independent of Airtable field ids.
func PlainSchema() Schema {
	return Schema{
		Applicants: ApplicantSchema{
			Name:           "Applicants",
			KeyField:       "Applicant ID",
			SnapshotField:  "Compressed JSON",
			StatusField:    "Shortlist Status",
			SummaryField:   "LLM Summary",
			ScoreField:     "LLM Score",
			FollowUpsField: "LLM Follow-Ups",
		},
		Personal: TableSchema{
			Name:     "Personal Details",
			KeyField: "Applicant ID",
			Columns: map[string]string{
				"name":     "Full Name",
				"email":    "Email Address",
				"location": "Location",
				"linkedin": "LinkedIn Profile",
			},
		},
		Work: TableSchema{
			Name:     "Work Experience",
			KeyField: "Applicant ID",
			Columns: map[string]string{
				"company": "Company",
				"title":   "Title",
				"start":   "Start",
				"end":     "End",
				"tech":    "Technologies",
			},
		},
		Salary: TableSchema{
			Name:     "Salary Preferences",
			KeyField: "Applicant ID",
			Columns: map[string]string{
				"preferred_rate": "Preferred Rate",
				"min_rate":       "Minimum Rate",
				"currency":       "Currency",
				"availability":   "Availability (hrs/wk)",
			},
		},
		Shortlist: ShortlistSchema{
			Name:             "Shortlisted Leads",
			KeyField:         "Applicant ID",
			SnapshotField:    "Compressed JSON",
			ScoreReasonField: "Score Reason",
		},
	}
}
