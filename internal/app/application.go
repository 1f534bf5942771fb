package app

import (
	"context"
	"fmt"
	"time"

	authsvc "github.com/trcstyle/backend/internal/app/services/auth"
	cartsvc "github.com/trcstyle/backend/internal/app/services/cart"
	"github.com/trcstyle/backend/internal/app/services/catalog"
	commentsvc "github.com/trcstyle/backend/internal/app/services/comments"
	"github.com/trcstyle/backend/internal/app/services/importer"
	outfitsvc "github.com/trcstyle/backend/internal/app/services/outfits"
	"github.com/trcstyle/backend/internal/app/services/stylist"
	userssvc "github.com/trcstyle/backend/internal/app/services/users"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/internal/app/storage/memory"
	"github.com/trcstyle/backend/internal/app/system"
	"github.com/trcstyle/backend/internal/cache"
	"github.com/trcstyle/backend/internal/queue"
	"github.com/trcstyle/backend/internal/uploads"
	"github.com/trcstyle/backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users    storage.UserStore
	Items    storage.ItemStore
	Outfits  storage.OutfitStore
	Comments storage.CommentStore
	Cart     storage.CartStore
	Jobs     storage.JobStore
}

// Options carries the non-store dependencies of the application. Cache and
// Queue may be nil; token revocation and async jobs degrade gracefully.
type Options struct {
	SecretKey  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	AdminEmails          []string
	AdminDefaultEmail    string
	AdminDefaultPassword string

	UploadDir string

	Cache   *cache.Cache
	Queue   *queue.Queue
	Fetcher importer.Fetcher
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Auth     *authsvc.Service
	Users    *userssvc.Service
	Catalog  *catalog.Service
	Outfits  *outfitsvc.Service
	Comments *commentsvc.Service
	Cart     *cartsvc.Service
	Importer *importer.Service
	Stylist  *stylist.Service
	Uploads  *uploads.Store
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Items == nil {
		stores.Items = mem
	}
	if stores.Outfits == nil {
		stores.Outfits = mem
	}
	if stores.Comments == nil {
		stores.Comments = mem
	}
	if stores.Cart == nil {
		stores.Cart = mem
	}
	if stores.Jobs == nil {
		stores.Jobs = mem
	}

	uploadDir := opts.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	files, err := uploads.New(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("prepare upload dir: %w", err)
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = importer.NewClient(nil)
	}

	signer := authsvc.NewSigner(opts.SecretKey, opts.AccessTTL, opts.RefreshTTL)

	authService := authsvc.New(stores.Users, opts.Cache, signer, log)
	usersService := userssvc.New(stores.Users, opts.AdminEmails, log)
	catalogService := catalog.New(stores.Items, files, log)
	outfitsService := outfitsvc.New(stores.Outfits, stores.Items, log)
	commentsService := commentsvc.New(stores.Comments, stores.Items, stores.Outfits, log)
	cartService := cartsvc.New(stores.Cart, stores.Items, log)
	importerService := importer.New(stores.Items, stores.Jobs, opts.Queue, fetcher, log)
	stylistService := stylist.New(stores.Items, stores.Outfits, stores.Users, stores.Jobs, opts.Queue, log)

	app := &Application{
		manager:  system.NewManager(),
		log:      log,
		Auth:     authService,
		Users:    usersService,
		Catalog:  catalogService,
		Outfits:  outfitsService,
		Comments: commentsService,
		Cart:     cartService,
		Importer: importerService,
		Stylist:  stylistService,
		Uploads:  files,
	}

	if opts.AdminDefaultEmail != "" && opts.AdminDefaultPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := usersService.EnsureDefaultAdmin(ctx, opts.AdminDefaultEmail, opts.AdminDefaultPassword); err != nil {
			return nil, fmt.Errorf("seed default admin: %w", err)
		}
	}

	return app, nil
}

// Attach registers an additional lifecycle-managed service. Call before
// Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
