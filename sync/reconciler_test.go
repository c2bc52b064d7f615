package sync

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory DestinationStore that matches emails exactly.
type memoryStore struct {
	contacts  []DestinationRecord
	nextID    int
	findErr   map[string]error
	createErr map[string]error
	updateErr map[string]error
	calls     []string
}

func newMemoryStore(existing ...DestinationRecord) *memoryStore {
	return &memoryStore{contacts: existing, nextID: 100}
}

func (m *memoryStore) FindByEmail(_ context.Context, email string) ([]DestinationRecord, error) {
	m.calls = append(m.calls, "find "+email)
	if err := m.findErr[email]; err != nil {
		return nil, &StoreQueryError{Email: email, Err: err}
	}
	var result []DestinationRecord
	for _, c := range m.contacts {
		if c.Properties["email"] == email {
			result = append(result, DestinationRecord{ID: c.ID, Properties: copyProperties(c.Properties)})
		}
	}
	return result, nil
}

func (m *memoryStore) Create(_ context.Context, fields ContactProperties) (string, error) {
	m.calls = append(m.calls, "create "+fields["email"])
	if err := m.createErr[fields["email"]]; err != nil {
		return "", &StoreWriteError{Op: "create", Email: fields["email"], Err: err}
	}
	m.nextID++
	id := strconv.Itoa(m.nextID)
	m.contacts = append(m.contacts, DestinationRecord{ID: id, Properties: copyProperties(fields)})
	return id, nil
}

func (m *memoryStore) Update(_ context.Context, id string, fields ContactProperties) error {
	m.calls = append(m.calls, "update "+id)
	if err := m.updateErr[id]; err != nil {
		return &StoreWriteError{Op: "update", Email: fields["email"], ID: id, Err: err}
	}
	for _, c := range m.contacts {
		if c.ID == id {
			for k, v := range fields {
				c.Properties[k] = v
			}
			return nil
		}
	}
	return &StoreWriteError{Op: "update", Email: fields["email"], ID: id, Err: errors.New("not found")}
}

func (m *memoryStore) byEmail(email string) []DestinationRecord {
	var result []DestinationRecord
	for _, c := range m.contacts {
		if c.Properties["email"] == email {
			result = append(result, c)
		}
	}
	return result
}

func copyProperties(p ContactProperties) ContactProperties {
	result := ContactProperties{}
	for k, v := range p {
		result[k] = v
	}
	return result
}

func sourceRecords(docs ...string) []SourceRecord {
	var result []SourceRecord
	for _, d := range docs {
		result = append(result, SourceRecord{Source: NewSource(d)})
	}
	return result
}

func newTestReconciler(store DestinationStore) Reconciler {
	return Reconciler{
		Store:   store,
		Mapping: MappingSettings{Duplicates: DuplicatesFirst},
		Logger:  zerolog.Nop(),
	}
}

func TestReconcileCreatesNewContacts(t *testing.T) {
	store := newMemoryStore()
	r := newTestReconciler(store)

	outcomes := r.Reconcile(context.Background(), sourceRecords(
		`{"email":"a@x.com","firstName":"Ann","lastName":"Lee","phone":"555","company":"Acme"}`,
	))

	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeCreated, outcomes[0].Status)
	assert.Equal(t, "101", outcomes[0].ID)
	assert.NoError(t, outcomes[0].Err)

	contacts := store.byEmail("a@x.com")
	require.Len(t, contacts, 1)
	assert.Equal(t, ContactProperties{
		"email":     "a@x.com",
		"firstname": "Ann",
		"lastname":  "Lee",
		"phone":     "555",
		"company":   "Acme",
	}, contacts[0].Properties)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	r := newTestReconciler(store)
	records := sourceRecords(
		`{"email":"a@x.com","firstName":"Ann"}`,
		`{"email":"b@x.com","firstname":"Bob","company":"Acme"}`,
	)

	first := r.Reconcile(context.Background(), records)
	snapshot := make([]DestinationRecord, len(store.contacts))
	for i, c := range store.contacts {
		snapshot[i] = DestinationRecord{ID: c.ID, Properties: copyProperties(c.Properties)}
	}

	second := r.Reconcile(context.Background(), records)
	third := r.Reconcile(context.Background(), records)

	assert.Equal(t, OutcomeCreated, first[0].Status)
	assert.Equal(t, OutcomeCreated, first[1].Status)
	for _, outcomes := range [][]OutcomeReport{second, third} {
		require.Len(t, outcomes, 2)
		assert.Equal(t, OutcomeUpdated, outcomes[0].Status)
		assert.Equal(t, first[0].ID, outcomes[0].ID)
		assert.Equal(t, OutcomeUpdated, outcomes[1].Status)
		assert.Equal(t, first[1].ID, outcomes[1].ID)
	}
	assert.Equal(t, snapshot, store.contacts)
}

func TestReconcileFieldPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		expected ContactProperties
	}{
		{
			name:     "camel case wins",
			record:   `{"email":"a@x.com","firstName":"Ann","firstname":"Anne","lastName":"Lee","lastname":"Leigh"}`,
			expected: ContactProperties{"email": "a@x.com", "firstname": "Ann", "lastname": "Lee"},
		},
		{
			name:     "empty camel case falls back",
			record:   `{"email":"a@x.com","firstName":"","firstname":"Anne","lastName":null,"lastname":"Leigh"}`,
			expected: ContactProperties{"email": "a@x.com", "firstname": "Anne", "lastname": "Leigh"},
		},
		{
			name:     "lower case only",
			record:   `{"email":"a@x.com","firstname":"Anne"}`,
			expected: ContactProperties{"email": "a@x.com", "firstname": "Anne"},
		},
		{
			name:     "all empty maps to empty",
			record:   `{"email":"a@x.com","firstName":"","firstname":""}`,
			expected: ContactProperties{"email": "a@x.com", "firstname": ""},
		},
		{
			name:     "absent fields are omitted",
			record:   `{"email":"a@x.com","phone":"","company":"Acme"}`,
			expected: ContactProperties{"email": "a@x.com", "phone": "", "company": "Acme"},
		},
		{
			name:     "numbers are read as strings",
			record:   `{"email":"a@x.com","phone":5551234}`,
			expected: ContactProperties{"email": "a@x.com", "phone": "5551234"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			outcomes := newTestReconciler(store).Reconcile(context.Background(), sourceRecords(tt.record))
			require.Equal(t, OutcomeCreated, outcomes[0].Status)
			assert.Equal(t, tt.expected, store.contacts[0].Properties)
		})
	}
}

func TestReconcileSkipsRecordsWithoutEmail(t *testing.T) {
	store := newMemoryStore()
	r := newTestReconciler(store)

	outcomes := r.Reconcile(context.Background(), sourceRecords(
		`{"firstName":"Ann"}`,
		`{"email":"","firstName":"Bob"}`,
		`{"email":"   "}`,
		`{"email":null}`,
		`"not an object"`,
		`{"email":{"a":1}}`,
		`{"email":["a@x.com"]}`,
		`{"email":true}`,
	))

	require.Len(t, outcomes, 8)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, OutcomeValidationFailed, o.Status)
		assert.ErrorIs(t, o.Err, ErrMissingEmail)
		assert.Empty(t, o.Email)
	}
	assert.Empty(t, store.calls)
}

func TestReconcileUpdatesExistingContact(t *testing.T) {
	store := newMemoryStore(DestinationRecord{
		ID:         "42",
		Properties: ContactProperties{"email": "a@x.com", "firstname": "Old", "lifecyclestage": "lead"},
	})
	r := newTestReconciler(store)

	outcomes := r.Reconcile(context.Background(), sourceRecords(`{"email":"a@x.com","firstName":"New","company":"Acme"}`))

	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeUpdated, outcomes[0].Status)
	assert.Equal(t, "42", outcomes[0].ID)
	assert.Equal(t, []string{"find a@x.com", "update 42"}, store.calls)
	assert.Equal(t, ContactProperties{
		"email":          "a@x.com",
		"firstname":      "New",
		"company":        "Acme",
		"lifecyclestage": "lead",
	}, store.contacts[0].Properties)
}

func TestReconcileContinuesAfterFailures(t *testing.T) {
	store := newMemoryStore(DestinationRecord{ID: "7", Properties: ContactProperties{"email": "d@x.com"}})
	store.findErr = map[string]error{"b@x.com": errors.New("connection reset")}
	store.createErr = map[string]error{"c@x.com": &APIError{Service: "HubSpot", StatusCode: 409, Message: "Contact already exists"}}
	store.updateErr = map[string]error{"7": &APIError{Service: "HubSpot", StatusCode: 429}}
	r := newTestReconciler(store)

	outcomes := r.Reconcile(context.Background(), sourceRecords(
		`{"email":"a@x.com"}`,
		`{"email":"b@x.com"}`,
		`{"email":"c@x.com"}`,
		`{"email":"d@x.com"}`,
		`{"email":"e@x.com"}`,
	))

	require.Len(t, outcomes, 5)
	assert.Equal(t, OutcomeCreated, outcomes[0].Status)

	assert.Equal(t, OutcomeLookupFailed, outcomes[1].Status)
	var queryErr *StoreQueryError
	assert.ErrorAs(t, outcomes[1].Err, &queryErr)

	assert.Equal(t, OutcomeWriteFailed, outcomes[2].Status)
	var writeErr *StoreWriteError
	require.ErrorAs(t, outcomes[2].Err, &writeErr)
	assert.Equal(t, "create", writeErr.Op)

	assert.Equal(t, OutcomeWriteFailed, outcomes[3].Status)
	assert.Equal(t, "7", outcomes[3].ID)
	assert.ErrorIs(t, outcomes[3].Err, ErrRateLimited)

	assert.Equal(t, OutcomeCreated, outcomes[4].Status)

	summary := Summarise(outcomes)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 3, summary.Failed)
	require.Len(t, summary.Failures, 3)
	assert.Equal(t, "b@x.com", summary.Failures[0].Email)
}

func TestReconcileDuplicateMatches(t *testing.T) {
	existing := func() *memoryStore {
		return newMemoryStore(
			DestinationRecord{ID: "1", Properties: ContactProperties{"email": "a@x.com"}},
			DestinationRecord{ID: "2", Properties: ContactProperties{"email": "a@x.com"}},
		)
	}
	records := sourceRecords(`{"email":"a@x.com","company":"Acme"}`)

	t.Run("first", func(t *testing.T) {
		store := existing()
		outcomes := newTestReconciler(store).Reconcile(context.Background(), records)
		assert.Equal(t, OutcomeUpdated, outcomes[0].Status)
		assert.Equal(t, "1", outcomes[0].ID)
		assert.Equal(t, "Acme", store.contacts[0].Properties["company"])
		assert.NotContains(t, store.contacts[1].Properties, "company")
	})

	t.Run("error", func(t *testing.T) {
		store := existing()
		r := newTestReconciler(store)
		r.Mapping.Duplicates = DuplicatesError
		outcomes := r.Reconcile(context.Background(), records)
		assert.Equal(t, OutcomeAmbiguousMatch, outcomes[0].Status)
		assert.ErrorIs(t, outcomes[0].Err, ErrAmbiguousMatch)
		assert.Equal(t, []string{"find a@x.com"}, store.calls)
	})
}

func TestReconcileNumericEmail(t *testing.T) {
	store := newMemoryStore()
	outcomes := newTestReconciler(store).Reconcile(context.Background(), sourceRecords(`{"email":12345}`))

	assert.Equal(t, OutcomeCreated, outcomes[0].Status)
	assert.Equal(t, "12345", outcomes[0].Email)
}

func TestReconcileEmailIsVerbatim(t *testing.T) {
	store := newMemoryStore(DestinationRecord{ID: "1", Properties: ContactProperties{"email": "a@x.com"}})
	outcomes := newTestReconciler(store).Reconcile(context.Background(), sourceRecords(`{"email":"A@X.com"}`))

	assert.Equal(t, OutcomeCreated, outcomes[0].Status)
	assert.Equal(t, "A@X.com", outcomes[0].Email)
	assert.Len(t, store.contacts, 2)
}
