package sync

import "context"

// Run fetches every source contact, optionally checks the HubSpot contact
// properties, and reconciles the contacts into HubSpot.
// Only a failure to fetch from the source is returned as an error.
func Run(ctx context.Context, sc *SyncContext) (Report, error) {
	hubspot := HubSpotFetcherAndUpdater{SyncContext: sc}
	return RunWith(ctx, sc, SourceFetcher{SyncContext: sc}, hubspot, hubspot)
}

// RunWith is Run with explicit collaborators. lister may be nil, in which
// case the property check is skipped.
func RunWith(ctx context.Context, sc *SyncContext, source SourceProvider, store DestinationStore, lister PropertyLister) (Report, error) {
	logger := sc.Logger

	records, err := source.FetchAll(ctx)
	if err != nil {
		return Report{RunID: sc.RunID}, err
	}
	if len(records) == 0 {
		logger.Info().Msg("no contacts to sync")
		return NewReport(sc.RunID, nil), nil
	}

	if sc.Config.CheckProperties && lister != nil {
		status, err := CheckContactProperties(ctx, lister)
		if err != nil {
			logger.Warn().Err(err).Msg("contact property check failed")
		} else {
			for name, s := range status {
				if s != PropertyStatusOK {
					logger.Warn().Str("property", name).Msg(s)
				}
			}
		}
	}

	logger.Info().Int("count", len(records)).Msg("syncing contacts to HubSpot")
	reconciler := Reconciler{
		Store:   store,
		Mapping: sc.Config.Mapping,
		Logger:  logger,
	}
	report := NewReport(sc.RunID, reconciler.Reconcile(ctx, records))
	logger.Info().
		Int("total", report.Summary.Total).
		Int("created", report.Summary.Created).
		Int("updated", report.Summary.Updated).
		Int("failed", report.Summary.Failed).
		Msg("sync complete")
	return report, nil
}
