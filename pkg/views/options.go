package views

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/events"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/presentation"
	"github.com/goliatone/go-crudgen/pkg/render/template"
	"github.com/goliatone/go-crudgen/pkg/routes"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// DefaultLoginURL is where anonymous requesters of owner-scoped views are sent.
const DefaultLoginURL = "/accounts/login/"

// Option configures the view handlers.
type Option func(*config)

type config struct {
	models     *model.Registry
	store      store.Store
	renderer   template.TemplateRenderer
	urls       *routes.Reverser
	helpers    *presentation.Helpers
	auth       Authenticator
	publisher  events.Publisher
	logger     *slog.Logger
	loginURL   string
	successURL string
}

// WithModels sets the model registry used to resolve foreign key targets.
func WithModels(reg *model.Registry) Option {
	return func(cfg *config) { cfg.models = reg }
}

// WithStore sets the record store.
func WithStore(s store.Store) Option {
	return func(cfg *config) { cfg.store = s }
}

// WithRenderer sets the template engine.
func WithRenderer(r template.TemplateRenderer) Option {
	return func(cfg *config) { cfg.renderer = r }
}

// WithReverser sets the URL reverser for the mounted routes.
func WithReverser(urls *routes.Reverser) Option {
	return func(cfg *config) { cfg.urls = urls }
}

// WithHelpers overrides the presentation helpers.
func WithHelpers(h *presentation.Helpers) Option {
	return func(cfg *config) { cfg.helpers = h }
}

// WithAuthenticator sets how requesters are identified.
func WithAuthenticator(a Authenticator) Option {
	return func(cfg *config) { cfg.auth = a }
}

// WithPublisher sets the change event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(cfg *config) {
		if p != nil {
			cfg.publisher = p
		}
	}
}

// WithLogger sets the base request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithLoginURL overrides DefaultLoginURL.
func WithLoginURL(url string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			cfg.loginURL = trimmed
		}
	}
}

// WithSuccessURL sets the redirect target after a successful submission when
// the form does not carry one. Defaults to the model's list route.
func WithSuccessURL(url string) Option {
	return func(cfg *config) { cfg.successURL = strings.TrimSpace(url) }
}

func newConfig(opts ...Option) (config, error) {
	cfg := config{
		auth:      AnonymousAuthenticator{},
		publisher: &events.NoopPublisher{},
		logger:    slog.Default(),
		loginURL:  DefaultLoginURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	switch {
	case cfg.models == nil:
		return cfg, fmt.Errorf("views: model registry is required")
	case cfg.store == nil:
		return cfg, fmt.Errorf("views: store is required")
	case cfg.renderer == nil:
		return cfg, fmt.Errorf("views: template renderer is required")
	case cfg.urls == nil:
		return cfg, fmt.Errorf("views: url reverser is required")
	}
	if cfg.auth == nil {
		cfg.auth = AnonymousAuthenticator{}
	}
	if cfg.helpers == nil {
		cfg.helpers = presentation.New(cfg.models, cfg.urls)
	}
	return cfg, nil
}
