package sync

type OutcomeStatus string

const (
	OutcomeCreated          OutcomeStatus = "created"
	OutcomeUpdated          OutcomeStatus = "updated"
	OutcomeValidationFailed OutcomeStatus = "validation_failed"
	OutcomeLookupFailed     OutcomeStatus = "lookup_failed"
	OutcomeWriteFailed      OutcomeStatus = "write_failed"
	OutcomeAmbiguousMatch   OutcomeStatus = "ambiguous_match"
)

// Succeeded reports whether the record was written to the destination.
func (s OutcomeStatus) Succeeded() bool {
	return s == OutcomeCreated || s == OutcomeUpdated
}

// OutcomeReport is the result of reconciling a single source record.
type OutcomeReport struct {
	Index  int
	Email  string
	Status OutcomeStatus
	// ID is the destination contact ID, set when the record was written.
	ID  string
	Err error
}

type FailedRecord struct {
	Index  int
	Email  string
	Status OutcomeStatus
	Reason string
}

// Summary aggregates a run's outcomes.
type Summary struct {
	Total    int
	Created  int
	Updated  int
	Failed   int
	Failures []FailedRecord
}

func Summarise(outcomes []OutcomeReport) Summary {
	result := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeCreated:
			result.Created++
		case OutcomeUpdated:
			result.Updated++
		default:
			result.Failed++
			reason := string(o.Status)
			if o.Err != nil {
				reason = o.Err.Error()
			}
			result.Failures = append(result.Failures, FailedRecord{
				Index:  o.Index,
				Email:  o.Email,
				Status: o.Status,
				Reason: reason,
			})
		}
	}
	return result
}

// Succeeded is the number of records created or updated.
func (s Summary) Succeeded() int {
	return s.Created + s.Updated
}
