package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
)

// SourceProvider returns the contacts to sync.
type SourceProvider interface {
	FetchAll(ctx context.Context) ([]SourceRecord, error)
}

// SourceError is the decoded body of a failed source API response.
type SourceError map[string]interface{}

func (e SourceError) Message() string {
	for _, key := range []string{"message", "error"} {
		if s, ok := e[key].(string); ok {
			return s
		}
	}
	return ""
}

// SourceFetcher reads contacts from the source API.
// It embeds *SyncContext for shared sync configuration.
type SourceFetcher struct {
	*SyncContext
}

// SourceAPIBuilder returns a new requests.Builder configured for the source API.
func (s SourceFetcher) SourceAPIBuilder() *requests.Builder {
	result := requests.
		URL(s.Config.API.Endpoints.Source).
		Client(&http.Client{Timeout: s.Config.API.Timeout})
	if s.RecordRequests {
		result = result.Transport(requests.Record(nil, fmt.Sprintf("testdata/.requests/%s/source", s.RunID)))
	}
	return result
}

// FetchAll fetches every contact from the source API.
// Any failure to read the source is returned as a *FetchError.
func (s SourceFetcher) FetchAll(ctx context.Context) ([]SourceRecord, error) {
	endpoint := s.Config.API.Endpoints.Source
	var statusCode int
	var body string
	sourceError := SourceError{}
	err := s.SourceAPIBuilder().
		Bearer(s.Config.API.Keys.Source).
		ContentType("application/json").
		AddValidator(func(res *http.Response) error {
			statusCode = res.StatusCode
			return nil
		}).
		ErrorJSON(&sourceError).
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		if statusCode != 0 {
			err = &APIError{Service: "source", StatusCode: statusCode, Message: sourceError.Message(), Err: err}
		}
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	if !gjson.Valid(body) {
		s.Logger.Debug().Str("body", body).Msg("invalid source response")
		return nil, &FetchError{Endpoint: endpoint, Err: errors.New("invalid json response")}
	}

	records := UnwrapSourceRecords(gjson.Parse(body))
	s.Logger.Info().Int("count", len(records)).Str("endpoint", endpoint).Msg("fetched contacts from source")
	return records, nil
}

// UnwrapSourceRecords extracts the contact list from a source response.
// An array is the list itself. For an object, the first truthy member of
// contacts, data or items is used: an array is the list, anything else means
// the object is itself a single contact. Scalars yield no records.
func UnwrapSourceRecords(data gjson.Result) []SourceRecord {
	var list gjson.Result
	switch {
	case data.IsArray():
		list = data
	case data.IsObject():
		for _, key := range []string{"contacts", "data", "items"} {
			if member := data.Get(key); truthy(member) {
				if member.IsArray() {
					list = member
				} else {
					return []SourceRecord{{Source: Source{data: data}}}
				}
				break
			}
		}
		if !list.Exists() {
			return nil
		}
	default:
		return nil
	}

	var result []SourceRecord
	for _, v := range list.Array() {
		result = append(result, SourceRecord{Source: Source{data: v}})
	}
	return result
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return r.Float() != 0
	case gjson.String:
		return r.Str != ""
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
		return len(r.Map()) > 0
	}
	return false
}
