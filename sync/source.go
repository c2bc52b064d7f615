package sync

import (
	"strings"

	"github.com/tidwall/gjson"
)

type Source struct {
	data gjson.Result
}

// NewSource wraps a raw JSON document.
func NewSource(json string) Source {
	return Source{data: gjson.Parse(json)}
}

// StringForPath returns the string form of the value at path.
// A JSON null is reported as absent.
func (s Source) StringForPath(path string) (string, bool) {
	result := s.data.Get(path)
	return result.String(), result.Exists() && (result.Value() != nil)
}

func (s Source) Raw() string {
	return s.data.Raw
}

// SourceRecord is a single contact as returned by the source API.
type SourceRecord struct {
	Source Source
}

// Email returns the record's email verbatim. Only strings and numbers count;
// whitespace-only values are reported as missing.
func (r SourceRecord) Email() (string, bool) {
	result := r.Source.data.Get("email")
	if result.Type != gjson.String && result.Type != gjson.Number {
		return "", false
	}
	email := result.String()
	if strings.TrimSpace(email) == "" {
		return "", false
	}
	return email, true
}
