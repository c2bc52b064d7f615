package sync

import (
	"context"

	"github.com/rs/zerolog"
)

// Reconciler upserts source records into a DestinationStore, matching by email.
// Records are processed one at a time in input order and a failed record
// never stops the run.
type Reconciler struct {
	Store   DestinationStore
	Mapping MappingSettings
	Logger  zerolog.Logger
}

// Reconcile returns one OutcomeReport per record, in input order.
func (r Reconciler) Reconcile(ctx context.Context, records []SourceRecord) []OutcomeReport {
	result := make([]OutcomeReport, 0, len(records))
	for i, record := range records {
		outcome := r.reconcileRecord(ctx, i, record)
		r.logOutcome(outcome)
		result = append(result, outcome)
	}
	return result
}

func (r Reconciler) reconcileRecord(ctx context.Context, index int, record SourceRecord) OutcomeReport {
	result := OutcomeReport{Index: index}

	email, ok := record.Email()
	if !ok {
		result.Status = OutcomeValidationFailed
		result.Err = ErrMissingEmail
		return result
	}
	result.Email = email

	fields := ContactProperties{}
	MapContactFields(record.Source, fields, r.Mapping)

	matches, err := r.Store.FindByEmail(ctx, email)
	if err != nil {
		result.Status = OutcomeLookupFailed
		result.Err = err
		return result
	}

	if len(matches) == 0 {
		id, err := r.Store.Create(ctx, fields)
		if err != nil {
			result.Status = OutcomeWriteFailed
			result.Err = err
			return result
		}
		result.Status = OutcomeCreated
		result.ID = id
		return result
	}

	if len(matches) > 1 {
		if r.Mapping.Duplicates == DuplicatesError {
			result.Status = OutcomeAmbiguousMatch
			result.Err = ErrAmbiguousMatch
			return result
		}
		r.Logger.Warn().
			Str("email", email).
			Int("matches", len(matches)).
			Str("id", matches[0].ID).
			Msg("multiple contacts found with the same email, updating the first")
	}

	id := matches[0].ID
	result.ID = id
	if err := r.Store.Update(ctx, id, fields); err != nil {
		result.Status = OutcomeWriteFailed
		result.Err = err
		return result
	}
	result.Status = OutcomeUpdated
	return result
}

func (r Reconciler) logOutcome(o OutcomeReport) {
	if o.Status.Succeeded() {
		r.Logger.Debug().
			Int("index", o.Index).
			Str("email", o.Email).
			Str("status", string(o.Status)).
			Str("id", o.ID).
			Msg("contact synced")
		return
	}
	r.Logger.Warn().
		Int("index", o.Index).
		Str("email", o.Email).
		Str("status", string(o.Status)).
		Err(o.Err).
		Msg("contact not synced")
}
