// Package stylist assembles outfits from the catalog with rule-based color
// and style matching, executed as background generation jobs.
package stylist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/job"
	"github.com/trcstyle/backend/internal/app/domain/outfit"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/internal/queue"
	"github.com/trcstyle/backend/pkg/logger"
)

const (
	defaultCount = 1
	maxCount     = 5
	maxPieces    = 5
	maxAttempts  = 20
)

// Service generates outfits for users.
type Service struct {
	items   storage.ItemStore
	outfits storage.OutfitStore
	users   storage.UserStore
	jobs    storage.JobStore
	queue   *queue.Queue
	log     *logger.Logger
}

// New constructs a stylist. queue may be nil when async dispatch is not
// wired, in which case EnqueueGenerate fails.
func New(items storage.ItemStore, outfits storage.OutfitStore, users storage.UserStore, jobs storage.JobStore, q *queue.Queue, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("stylist")
	}
	return &Service{items: items, outfits: outfits, users: users, jobs: jobs, queue: q, log: log}
}

// EnqueueGenerate persists a generation job and schedules it for the worker.
func (s *Service) EnqueueGenerate(ctx context.Context, payload job.GeneratePayload) (job.Job, error) {
	if payload.UserID <= 0 {
		return job.Job{}, apperr.BadRequest("user id is required")
	}
	if _, err := s.users.GetUser(ctx, payload.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return job.Job{}, apperr.NotFound("user %d not found", payload.UserID)
		}
		return job.Job{}, err
	}
	if payload.Style != "" && payload.Occasion == "" {
		if _, ok := styleRules[strings.ToLower(payload.Style)]; !ok {
			return job.Job{}, apperr.BadRequest("unknown style %q", payload.Style)
		}
	}
	if payload.Count <= 0 {
		payload.Count = defaultCount
	}
	if payload.Count > maxCount {
		payload.Count = maxCount
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
		Kind:    job.KindOutfitGenerate,
		Status:  job.StatusPending,
		Payload: raw,
	})
	if err != nil {
		return job.Job{}, err
	}
	if err := s.queue.Enqueue(ctx, j.ID); err != nil {
		return job.Job{}, err
	}
	s.log.WithField("job_id", j.ID).WithField("user_id", payload.UserID).Info("outfit generation scheduled")
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

// RunGenerate is the worker handler for outfit generation jobs.
func (s *Service) RunGenerate(ctx context.Context, j job.Job) (json.RawMessage, error) {
	var payload job.GeneratePayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if _, err := s.users.GetUser(ctx, payload.UserID); err != nil {
		return nil, fmt.Errorf("load user %d: %w", payload.UserID, err)
	}

	style := strings.ToLower(strings.TrimSpace(payload.Style))
	if style == "" {
		style = stylesForOccasion(payload.Occasion)[0]
	}
	count := payload.Count
	if count <= 0 {
		count = defaultCount
	}
	if count > maxCount {
		count = maxCount
	}

	var result job.GenerateResult
	for i := 0; i < count; i++ {
		var (
			picked []item.Item
			err    error
		)
		if len(payload.ItemIDs) > 0 {
			picked, err = s.buildFromSelection(ctx, payload)
		} else {
			picked, err = s.buildRandom(ctx, payload, style)
		}
		if err != nil {
			return nil, err
		}

		o, err := s.persist(ctx, payload, style, picked)
		if err != nil {
			return nil, err
		}
		result.OutfitIDs = append(result.OutfitIDs, o.ID)
		result.Scores = append(result.Scores, score(picked, style))
	}

	s.log.WithField("job_id", j.ID).
		WithField("outfits", len(result.OutfitIDs)).
		Info("outfit generation finished")
	return json.Marshal(result)
}

// buildFromSelection keeps the caller's items and tops them up with at most
// one harmonious item per requested additional category.
func (s *Service) buildFromSelection(ctx context.Context, payload job.GeneratePayload) ([]item.Item, error) {
	picked, err := s.items.ListItemsByIDs(ctx, payload.ItemIDs)
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("none of the selected items exist")
	}

	used := make(map[string]struct{}, len(picked))
	chosen := make(map[int64]struct{}, len(picked))
	for _, it := range picked {
		used[strings.ToLower(it.Category)] = struct{}{}
		chosen[it.ID] = struct{}{}
	}

	for _, category := range payload.AddCategories {
		category = strings.ToLower(strings.TrimSpace(category))
		if _, ok := used[category]; ok || category == "" {
			continue
		}
		candidates, err := s.items.ListItems(ctx, item.Filter{Category: category, Limit: 3})
		if err != nil {
			return nil, err
		}
		for _, candidate := range candidates {
			if _, ok := chosen[candidate.ID]; ok {
				continue
			}
			if harmonious(append(append([]item.Item{}, picked...), candidate)) {
				picked = append(picked, candidate)
				chosen[candidate.ID] = struct{}{}
				used[category] = struct{}{}
				break
			}
		}
	}
	return picked, nil
}

// buildRandom assembles an outfit from the catalog: one or two anchors from
// the style's preferred categories, then harmonious items from unused
// categories until five pieces or the attempt budget runs out.
func (s *Service) buildRandom(ctx context.Context, payload job.GeneratePayload, style string) ([]item.Item, error) {
	all, err := s.listCatalog(ctx, payload.Collection)
	if err != nil {
		return nil, err
	}
	if payload.Budget != nil {
		var within []item.Item
		for _, it := range all {
			if it.Price == nil || *it.Price <= *payload.Budget {
				within = append(within, it)
			}
		}
		// A budget that filters the catalog below a wearable outfit is
		// ignored rather than failing the job.
		if len(within) >= 3 {
			all = within
		}
	}
	if len(all) < 3 {
		return nil, fmt.Errorf("not enough catalog items to generate an outfit")
	}

	byCategory := make(map[string][]item.Item)
	for _, it := range all {
		category := strings.ToLower(it.Category)
		if category == "" {
			category = "other"
		}
		byCategory[category] = append(byCategory[category], it)
	}

	rule := styleRules[style]
	preferredColors := make(map[string]struct{}, len(rule.Colors))
	for _, c := range rule.Colors {
		preferredColors[c] = struct{}{}
	}

	var picked []item.Item
	used := make(map[string]struct{})
	spent := 0.0

	anchors := rule.PreferredCategories
	if len(anchors) > 2 {
		anchors = anchors[:2]
	}
	for _, category := range anchors {
		candidates := byCategory[category]
		if len(candidates) == 0 {
			continue
		}
		preferred := candidates
		if len(preferredColors) > 0 {
			var colored []item.Item
			for _, it := range candidates {
				if _, ok := preferredColors[strings.ToLower(it.Color)]; ok {
					colored = append(colored, it)
				}
			}
			if len(colored) > 0 {
				preferred = colored
			}
		}
		it := preferred[rand.Intn(len(preferred))]
		picked = append(picked, it)
		used[category] = struct{}{}
		if it.Price != nil {
			spent += *it.Price
		}
	}

	for attempts := 0; len(picked) < maxPieces && attempts < maxAttempts; attempts++ {
		var open []string
		for category := range byCategory {
			if _, ok := used[category]; !ok {
				open = append(open, category)
			}
		}
		if len(open) == 0 {
			break
		}
		category := open[rand.Intn(len(open))]

		candidates := byCategory[category]
		if payload.Budget != nil {
			remaining := *payload.Budget - spent
			var affordable []item.Item
			for _, it := range candidates {
				if it.Price == nil || *it.Price <= remaining {
					affordable = append(affordable, it)
				}
			}
			if len(affordable) > 0 {
				candidates = affordable
			}
		}
		if len(candidates) == 0 {
			continue
		}

		it := candidates[rand.Intn(len(candidates))]
		if !harmonious(append(append([]item.Item{}, picked...), it)) {
			continue
		}
		picked = append(picked, it)
		used[category] = struct{}{}
		if it.Price != nil {
			spent += *it.Price
		}
	}
	return picked, nil
}

func (s *Service) persist(ctx context.Context, payload job.GeneratePayload, style string, picked []item.Item) (outfit.Outfit, error) {
	members := make([]outfit.Member, 0, len(picked))
	for _, it := range picked {
		members = append(members, outfit.Member{ItemID: it.ID, Category: slotOf(it.Category)})
	}

	occasion := payload.Occasion
	if occasion == "" {
		occasion = "any occasion"
	}
	return s.outfits.CreateOutfit(ctx, outfit.Outfit{
		Name:        pickName(style),
		Style:       style,
		Description: fmt.Sprintf("A generated %s look for %s with %d pieces.", style, occasion, len(picked)),
		Collection:  payload.Collection,
		OwnerID:     payload.UserID,
		Members:     members,
	})
}

func pickName(style string) string {
	names := outfitNames[style]
	if len(names) == 0 {
		return "Styled Look"
	}
	return names[rand.Intn(len(names))]
}

// listCatalog pages through the catalog, optionally scoped to a collection.
func (s *Service) listCatalog(ctx context.Context, collection string) ([]item.Item, error) {
	const pageSize = 200
	var all []item.Item
	for offset := 0; ; offset += pageSize {
		page, err := s.items.ListItems(ctx, item.Filter{Collection: collection, Offset: offset, Limit: pageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}
