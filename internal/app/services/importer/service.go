// Package importer pulls products from an external catalog feed into the
// item catalog, synchronously for search proxying and asynchronously for
// batch imports.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/feed"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/job"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/internal/queue"
	"github.com/trcstyle/backend/pkg/logger"
)

// Source tag stored on imported items.
const Source = "lamoda"

// Service manages catalog imports.
type Service struct {
	items  storage.ItemStore
	jobs   storage.JobStore
	queue  *queue.Queue
	client Fetcher
	log    *logger.Logger
}

// New constructs an importer. queue may be nil when async dispatch is not
// wired, in which case EnqueueImport fails.
func New(items storage.ItemStore, jobs storage.JobStore, q *queue.Queue, client Fetcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("importer")
	}
	return &Service{items: items, jobs: jobs, queue: q, client: client, log: log}
}

// Search proxies a query to the upstream catalog.
func (s *Service) Search(ctx context.Context, query, domain string, limit, page int) ([]feed.Product, error) {
	if _, err := NormalizeDomain(domain); err != nil {
		return nil, apperr.BadRequest("%s", err)
	}
	products, err := s.client.Search(ctx, query, domain, limit, page)
	if err != nil {
		return nil, apperr.BadGateway("catalog search failed: %s", err)
	}
	return products, nil
}

// Resolve fetches a single upstream product by its page URL.
func (s *Service) Resolve(ctx context.Context, productURL string) (feed.Product, error) {
	if _, _, err := ParseProductURL(productURL); err != nil {
		return feed.Product{}, apperr.BadRequest("%s", err)
	}
	product, err := s.client.GetByURL(ctx, productURL)
	if err != nil {
		return feed.Product{}, apperr.BadGateway("catalog lookup failed: %s", err)
	}
	return product, nil
}

// EnqueueImport persists an import job and schedules it for the worker.
func (s *Service) EnqueueImport(ctx context.Context, payload job.ImportPayload) (job.Job, error) {
	if payload.Query == "" && len(payload.URLs) == 0 {
		return job.Job{}, apperr.BadRequest("either a query or a list of urls is required")
	}
	if payload.Domain != "" {
		if _, err := NormalizeDomain(payload.Domain); err != nil {
			return job.Job{}, apperr.BadRequest("%s", err)
		}
	}
	for _, u := range payload.URLs {
		if _, _, err := ParseProductURL(u); err != nil {
			return job.Job{}, apperr.BadRequest("%s", err)
		}
	}
	if s.queue == nil {
		return job.Job{}, fmt.Errorf("job queue not configured")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return job.Job{}, err
	}
	j, err := s.jobs.CreateJob(ctx, job.Job{
		ID:      uuid.NewString(),
		Kind:    job.KindCatalogImport,
		Status:  job.StatusPending,
		Payload: raw,
	})
	if err != nil {
		return job.Job{}, err
	}
	if err := s.queue.Enqueue(ctx, j.ID); err != nil {
		return job.Job{}, err
	}
	s.log.WithField("job_id", j.ID).Info("catalog import scheduled")
	return j, nil
}

// Job fetches one job record.
func (s *Service) Job(ctx context.Context, id string) (job.Job, error) {
	j, err := s.jobs.GetJob(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return job.Job{}, apperr.NotFound("job %s not found", id)
	}
	return j, err
}

// RunImport is the worker handler for catalog import jobs.
func (s *Service) RunImport(ctx context.Context, j job.Job) (json.RawMessage, error) {
	var payload job.ImportPayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var products []feed.Product
	var result job.ImportResult

	if payload.Query != "" {
		limit := payload.Limit
		if limit <= 0 {
			limit = 20
		}
		found, err := s.client.Search(ctx, payload.Query, payload.Domain, limit, 1)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", payload.Query, err)
		}
		products = found
	}
	for _, u := range payload.URLs {
		p, err := s.client.GetByURL(ctx, u)
		if err != nil {
			s.log.WithError(err).WithField("url", u).Warn("resolve product failed")
			result.Failed++
			continue
		}
		products = append(products, p)
	}

	result.Requested = len(products) + result.Failed
	for _, p := range products {
		it, created, err := s.SaveProduct(ctx, p)
		if err != nil {
			s.log.WithError(err).WithField("sku", p.SKU).Warn("save product failed")
			result.Failed++
			continue
		}
		if created {
			result.Imported++
		} else {
			result.Updated++
		}
		result.ItemIDs = append(result.ItemIDs, it.ID)
	}

	s.log.WithField("job_id", j.ID).
		WithField("imported", result.Imported).
		WithField("updated", result.Updated).
		WithField("failed", result.Failed).
		Info("catalog import finished")
	return json.Marshal(result)
}

// SaveProduct upserts a feed product into the catalog, keyed by its source
// SKU. Existing items keep their local edits; only feed-owned fields are
// refreshed.
func (s *Service) SaveProduct(ctx context.Context, p feed.Product) (item.Item, bool, error) {
	if p.SKU == "" || p.Name == "" {
		return item.Item{}, false, fmt.Errorf("product needs sku and name")
	}
	price := p.Price

	existing, err := s.items.GetItemBySourceSKU(ctx, Source, p.SKU)
	switch {
	case err == nil:
		existing.Name = p.Name
		existing.Brand = p.Brand
		existing.Price = &price
		existing.OldPrice = p.OldPrice
		existing.SourceURL = p.URL
		if p.ImageURL != "" {
			existing.ImageURL = p.ImageURL
		}
		updated, err := s.items.UpdateItem(ctx, existing)
		if err != nil {
			return item.Item{}, false, err
		}
		if len(p.ImageURLs) > 0 {
			if err := s.replaceGallery(ctx, updated.ID, p.ImageURLs); err != nil {
				return item.Item{}, false, err
			}
		}
		return updated, false, nil
	case errors.Is(err, storage.ErrNotFound):
		created, err := s.items.CreateItem(ctx, item.Item{
			Name:         p.Name,
			Brand:        p.Brand,
			Price:        &price,
			OldPrice:     p.OldPrice,
			ClothingType: p.Type,
			Description:  p.Description,
			ImageURL:     p.ImageURL,
			Source:       Source,
			SourceSKU:    p.SKU,
			SourceURL:    p.URL,
		})
		if err != nil {
			return item.Item{}, false, err
		}
		for i, url := range p.ImageURLs {
			if _, err := s.items.CreateImage(ctx, item.Image{ItemID: created.ID, URL: url, Position: i}); err != nil {
				return item.Item{}, false, err
			}
		}
		return created, true, nil
	default:
		return item.Item{}, false, err
	}
}

// replaceGallery rewrites an item's image gallery with the feed's current set.
func (s *Service) replaceGallery(ctx context.Context, itemID int64, urls []string) error {
	existing, err := s.items.ListImages(ctx, itemID)
	if err != nil {
		return err
	}
	for _, img := range existing {
		if err := s.items.DeleteImage(ctx, img.ID); err != nil {
			return err
		}
	}
	for i, url := range urls {
		if _, err := s.items.CreateImage(ctx, item.Image{ItemID: itemID, URL: url, Position: i}); err != nil {
			return err
		}
	}
	return nil
}
