package importer

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/system"
	"github.com/trcstyle/backend/pkg/logger"
)

var _ system.Service = (*Refresher)(nil)

// Refresher periodically re-fetches imported items so feed prices stay
// current.
type Refresher struct {
	service *Service
	spec    string
	log     *logger.Logger
	cron    *cron.Cron
}

// NewRefresher creates the refresher. An empty spec refreshes nightly.
func NewRefresher(service *Service, spec string, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.NewDefault("importer-refresher")
	}
	if spec == "" {
		spec = "@daily"
	}
	return &Refresher{service: service, spec: spec, log: log}
}

func (r *Refresher) Name() string { return "catalog-refresher" }

func (r *Refresher) Start(_ context.Context) error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		r.refresh(ctx)
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.log.WithField("schedule", r.spec).Info("catalog refresher started")
	return nil
}

func (r *Refresher) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	r.log.Info("catalog refresher stopped")
	return nil
}

func (r *Refresher) refresh(ctx context.Context) {
	const pageSize = 200
	refreshed, failed := 0, 0

	for offset := 0; ; offset += pageSize {
		items, err := r.service.items.ListItems(ctx, item.Filter{Offset: offset, Limit: pageSize})
		if err != nil {
			r.log.WithError(err).Warn("list items for refresh failed")
			return
		}
		if len(items) == 0 {
			break
		}
		for _, it := range items {
			if it.Source != Source || it.SourceURL == "" {
				continue
			}
			product, err := r.service.client.GetByURL(ctx, it.SourceURL)
			if err != nil {
				failed++
				continue
			}
			if _, _, err := r.service.SaveProduct(ctx, product); err != nil {
				failed++
				continue
			}
			refreshed++
		}
		if len(items) < pageSize {
			break
		}
	}

	r.log.WithField("refreshed", refreshed).
		WithField("failed", failed).
		Info("catalog refresh finished")
}
