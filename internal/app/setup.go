// Package app contains the application setup for the picklist bot.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmaraujo/picklist/internal/cache"
	"github.com/dmaraujo/picklist/internal/chat"
	"github.com/dmaraujo/picklist/internal/config"
	"github.com/dmaraujo/picklist/internal/interaction"
	"github.com/dmaraujo/picklist/internal/ledger"
	"github.com/dmaraujo/picklist/internal/order"
	"github.com/dmaraujo/picklist/internal/scheduler"
	"github.com/dmaraujo/picklist/internal/view"
	"github.com/dmaraujo/picklist/pkg/server"
	"github.com/dmaraujo/picklist/pkg/web"
)

type Dependencies struct {
	Store     *cache.Store
	Ledger    *ledger.Client
	Rest      *chat.Rest
	Renderer  *view.Renderer
	Scheduler *scheduler.Scheduler
	Handler   *interaction.Handler
	Logger    *slog.Logger
}

// SetupDependencies wires every component from the configuration.
func SetupDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	ledgerClient, err := ledger.NewClient(cfg.Ledger.URL, cfg.Ledger.Key, cfg.Ledger.Timeout)
	if err != nil {
		return nil, err
	}
	policy, err := order.PolicyByName(cfg.View.StatusPolicy)
	if err != nil {
		return nil, err
	}
	store := cache.NewStore(ledgerClient, cfg.Cache.Path, cfg.Cache.FlushDelay, logger)
	renderer := view.NewRenderer(cfg.View.PageSize, policy)
	rest := chat.NewRest(cfg.Chat.APIURL, cfg.Chat.Token, cfg.Chat.AppID, nil)
	sched := scheduler.New(ledgerClient, store, rest, renderer, cfg.Chat.ChannelID,
		cfg.Sync.PullInterval, cfg.Sync.CleanupInterval, logger)
	handler := interaction.NewHandler(store, ledgerClient, rest, rest, renderer, sched, logger)

	return &Dependencies{
		Store:     store,
		Ledger:    ledgerClient,
		Rest:      rest,
		Renderer:  renderer,
		Scheduler: sched,
		Handler:   handler,
		Logger:    logger,
	}, nil
}

// Commands lists the slash commands registered on startup.
func Commands() []chat.Command {
	return []chat.Command{
		{Name: "ping", Description: "Check that the bot is online."},
		{
			Name:        "orders",
			Description: "Order checking.",
			Options: []chat.CommandOption{
				{Type: chat.OptionSubcommand, Name: "sync", Description: "Pull pending orders and post them now."},
			},
		},
	}
}

// SetupHttpHandler builds the keep-alive router: a bare 200 on / for
// the hosting platform's health probe and /healthz for everything
// else.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	// The hosting platform's probe expects a bare 200 on /.
	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		web.RespondJSON(w, deps.Logger, http.StatusOK, map[string]any{
			"status": "ok",
			"orders": deps.Store.Len(),
		})
	})
}

// SetupHttpServer creates and configures the keep-alive HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
