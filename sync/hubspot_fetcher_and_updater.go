package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DestinationStore is the CRM contact store that source records are reconciled into.
type DestinationStore interface {
	// FindByEmail returns every contact whose email exactly matches, in store order.
	FindByEmail(ctx context.Context, email string) ([]DestinationRecord, error)
	// Create returns the ID of the new contact.
	Create(ctx context.Context, fields ContactProperties) (string, error)
	// Update overwrites the given fields and leaves the rest untouched.
	Update(ctx context.Context, id string, fields ContactProperties) error
}

type DestinationRecord struct {
	ID         string
	Properties ContactProperties
}

type HubSpotError struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Category      string `json:"category"`
	CorrelationID string `json:"correlationId"`
}

// ContactProperty describes a HubSpot contact property definition.
type ContactProperty struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

const contactSearchTemplate = `{"filterGroups":[{"filters":[{"propertyName":"email","operator":"EQ","value":""}]}],"properties":[],"limit":0}`

// HubSpotFetcherAndUpdater handles all HubSpot API operations.
// It embeds *SyncContext for shared sync configuration.
type HubSpotFetcherAndUpdater struct {
	*SyncContext
}

// HubSpotAPIBuilder returns a new requests.Builder configured for the HubSpot CRM API.
func (h HubSpotFetcherAndUpdater) HubSpotAPIBuilder() *requests.Builder {
	result := requests.
		URL(h.Config.API.Endpoints.HubSpot).
		Client(&http.Client{Timeout: h.Config.API.Timeout}).
		Bearer(h.Config.API.Keys.HubSpot)
	if h.RecordRequests {
		result = result.Transport(requests.Record(nil, fmt.Sprintf("testdata/.requests/%s/hubspot", h.RunID)))
	}
	return result
}

// fetch runs the request, decoding HubSpot's error body and wrapping any
// non-2xx response in an *APIError.
func (h HubSpotFetcherAndUpdater) fetch(ctx context.Context, rb *requests.Builder) error {
	var statusCode int
	hubspotErr := HubSpotError{}
	err := rb.
		AddValidator(func(res *http.Response) error {
			statusCode = res.StatusCode
			return nil
		}).
		ErrorJSON(&hubspotErr).
		Fetch(ctx)
	if err == nil {
		return nil
	}
	if statusCode == 0 || statusCode/100 == 2 {
		return err
	}
	if hubspotErr.CorrelationID != "" {
		h.Logger.Debug().Str("correlation_id", hubspotErr.CorrelationID).Int("status", statusCode).Msg("HubSpot request failed")
	}
	return &APIError{
		Service:    "HubSpot",
		StatusCode: statusCode,
		Message:    hubspotErr.Message,
		Category:   hubspotErr.Category,
		Err:        err,
	}
}

// FindByEmail searches HubSpot for contacts with exactly the given email.
func (h HubSpotFetcherAndUpdater) FindByEmail(ctx context.Context, email string) ([]DestinationRecord, error) {
	// sjson escapes the email for us
	body, err := sjson.Set(contactSearchTemplate, "filterGroups.0.filters.0.value", email)
	if err == nil {
		body, err = sjson.Set(body, "properties", ContactPropertyNames())
	}
	if err == nil {
		body, err = sjson.Set(body, "limit", h.Config.API.SearchLimit)
	}
	if err != nil {
		return nil, &StoreQueryError{Email: email, Err: fmt.Errorf("failed to build search request %w", err)}
	}

	var response string
	err = h.fetch(ctx, h.HubSpotAPIBuilder().
		Path("/crm/v3/objects/contacts/search").
		Post().
		BodyBytes([]byte(body)).
		ContentType("application/json").
		ToString(&response))
	if err != nil {
		return nil, &StoreQueryError{Email: email, Err: err}
	}
	if !gjson.Valid(response) {
		return nil, &StoreQueryError{Email: email, Err: errors.New("invalid json response")}
	}

	var result []DestinationRecord
	gjson.Get(response, "results").ForEach(func(_, contact gjson.Result) bool {
		record := DestinationRecord{
			ID:         contact.Get("id").String(),
			Properties: ContactProperties{},
		}
		contact.Get("properties").ForEach(func(key, value gjson.Result) bool {
			if value.Value() != nil {
				record.Properties[key.String()] = value.String()
			}
			return true
		})
		result = append(result, record)
		return true
	})
	return result, nil
}

type contactWriteRequest struct {
	Properties ContactProperties `json:"properties"`
}

// Create creates a new HubSpot contact and returns its ID.
func (h HubSpotFetcherAndUpdater) Create(ctx context.Context, fields ContactProperties) (string, error) {
	response := struct {
		ID string `json:"id"`
	}{}
	err := h.fetch(ctx, h.HubSpotAPIBuilder().
		Path("/crm/v3/objects/contacts").
		BodyJSON(contactWriteRequest{Properties: fields}).
		ToJSON(&response))
	if err != nil {
		return "", &StoreWriteError{Op: "create", Email: fields["email"], Err: err}
	}
	return response.ID, nil
}

// Update patches the given fields on an existing HubSpot contact.
func (h HubSpotFetcherAndUpdater) Update(ctx context.Context, id string, fields ContactProperties) error {
	err := h.fetch(ctx, h.HubSpotAPIBuilder().
		Pathf("/crm/v3/objects/contacts/%s", url.PathEscape(id)).
		Patch().
		BodyJSON(contactWriteRequest{Properties: fields}))
	if err != nil {
		return &StoreWriteError{Op: "update", Email: fields["email"], ID: id, Err: err}
	}
	return nil
}

// ListContactProperties returns every contact property defined in HubSpot.
func (h HubSpotFetcherAndUpdater) ListContactProperties(ctx context.Context) ([]ContactProperty, error) {
	response := struct {
		Results []ContactProperty `json:"results"`
	}{}
	err := h.fetch(ctx, h.HubSpotAPIBuilder().
		Path("/crm/v3/properties/contacts").
		ToJSON(&response))
	if err != nil {
		return nil, fmt.Errorf("failed to list contact properties: %w", err)
	}
	return response.Results, nil
}
