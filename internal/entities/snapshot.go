package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text is a snapshot leaf value. Airtable numeric and checkbox columns come
// back as JSON numbers and booleans, so decoding accepts those and folds them
// into their string form; the canonical document always serializes as strings.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(raw, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(raw)
	return nil
}

func (t Text) IsBlank() bool {
	return strings.TrimSpace(string(t)) == ""
}

func (t Text) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
}

// TextFromField converts a raw table-store field value to its canonical form.
func TextFromField(value any) Text {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return Text(v)
	case float64:
		return Text(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		return Text(strconv.Itoa(v))
	case json.Number:
		return Text(v.String())
	case bool:
		return Text(strconv.FormatBool(v))
	default:
		return Text(fmt.Sprint(v))
	}
}

// Snapshot is the canonical document stored on the Applicant row. Field order
// is fixed so that json.Marshal always produces the same compact form for the
// same data.
type Snapshot struct {
	Personal   Personal          `json:"personal"`
	Experience []ExperienceEntry `json:"experience"`
	Salary     Salary            `json:"salary"`
}

type Personal struct {
	Name     Text `json:"name"`
	Email    Text `json:"email"`
	Location Text `json:"location"`
	Linkedin Text `json:"linkedin"`
}

type ExperienceEntry struct {
	Company Text `json:"company"`
	Title   Text `json:"title"`
	Start   Text `json:"start"`
	End     Text `json:"end"`
	Tech    Text `json:"tech"`
}

type Salary struct {
	PreferredRate Text `json:"preferred_rate"`
	MinRate       Text `json:"min_rate"`
	Currency      Text `json:"currency"`
	Availability  Text `json:"availability"`
}

func (p Personal) Values() map[string]Text {
	return map[string]Text{
		"name":     p.Name,
		"email":    p.Email,
		"location": p.Location,
		"linkedin": p.Linkedin,
	}
}

func (e ExperienceEntry) Values() map[string]Text {
	return map[string]Text{
		"company": e.Company,
		"title":   e.Title,
		"start":   e.Start,
		"end":     e.End,
		"tech":    e.Tech,
	}
}

func (s Salary) Values() map[string]Text {
	return map[string]Text{
		"preferred_rate": s.PreferredRate,
		"min_rate":       s.MinRate,
		"currency":       s.Currency,
		"availability":   s.Availability,
	}
}

// Compact serializes the snapshot in its canonical compact form: stable key
// order, no incidental whitespace. Identical documents always produce
// identical strings, which makes the result usable as a change fingerprint
// and as an enrichment cache key.
func (s Snapshot) Compact() (string, error) {
	if s.Experience == nil {
		s.Experience = []ExperienceEntry{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func ParseSnapshot(raw string) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
