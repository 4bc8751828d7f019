package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/adapters/primary/console"
	"mlflow-registry-workflow/internal/adapters/secondary/kserve"
	"mlflow-registry-workflow/internal/adapters/secondary/mlflow"
	"mlflow-registry-workflow/internal/adapters/secondary/postgres"
	"mlflow-registry-workflow/internal/adapters/secondary/process"
	"mlflow-registry-workflow/internal/config"
	ports "mlflow-registry-workflow/internal/core/ports/output"
	"mlflow-registry-workflow/internal/core/services"
)

// AppContext holds the services one command invocation works with. Each
// invocation builds its own; nothing is shared process-wide.
type AppContext struct {
	Config      *config.Config
	Store       ports.RunStore
	Experiments *services.ExperimentService
	Selector    *services.SearchSelector
	Resolver    *services.ArtifactResolver
	Registrar   *services.Registrar
	Tags        *services.TagService
	Launcher    *services.ServerLauncher
	Environment *services.EnvironmentService
	Prompter    *console.Prompter

	pool *pgxpool.Pool
}

// newRunStore is swapped in tests for an in-memory store.
var newRunStore = func(cfg *config.Config) ports.RunStore {
	return mlflow.NewClient(&cfg.Tracking)
}

// NewAppContext wires the adapters selected by cfg.
func NewAppContext(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*AppContext, error) {
	store := newRunStore(cfg)

	var (
		ledger ports.RegistrationLedger
		pool   *pgxpool.Pool
	)
	if cfg.Database.Enabled() {
		p, err := postgres.Connect(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, p); err != nil {
			p.Close()
			return nil, err
		}
		pool = p
		ledger = postgres.NewRegistrationLedger(pool)
		log.Debug("registration ledger enabled")
	}

	server, err := newModelServer(cfg, out)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	return newAppContext(cfg, store, ledger, server, in, out, pool), nil
}

func newAppContext(
	cfg *config.Config,
	store ports.RunStore,
	ledger ports.RegistrationLedger,
	server ports.ModelServer,
	in io.Reader,
	out io.Writer,
	pool *pgxpool.Pool,
) *AppContext {
	experiments := services.NewExperimentService(store)
	selector := services.NewSearchSelector(store)
	resolver := services.NewArtifactResolver(store)

	return &AppContext{
		Config:      cfg,
		Store:       store,
		Experiments: experiments,
		Selector:    selector,
		Resolver:    resolver,
		Registrar:   services.NewRegistrar(store, ledger),
		Tags:        services.NewTagService(store),
		Launcher:    services.NewServerLauncher(store, server),
		Environment: services.NewEnvironmentService(store, experiments, selector, resolver),
		Prompter:    console.NewPrompter(in, out),
		pool:        pool,
	}
}

func newModelServer(cfg *config.Config, out io.Writer) (ports.ModelServer, error) {
	switch cfg.Serve.Target {
	case "", config.ServeTargetLocal:
		return process.NewServer(&cfg.Serve, cfg.Tracking.URI).WithOutput(out, os.Stderr), nil
	case config.ServeTargetKServe:
		k8sCfg := cfg.Kubernetes
		k8sCfg.Enabled = true
		client, err := kserve.NewInferenceCluster(&k8sCfg)
		if err != nil {
			return nil, fmt.Errorf("init kserve client: %w", err)
		}
		return kserve.NewServer(client, &k8sCfg), nil
	}
	return nil, fmt.Errorf("unknown serve target %q", cfg.Serve.Target)
}

// Close releases the database pool, if any.
func (a *AppContext) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// withApp builds an AppContext for the command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *AppContext) error) error {
	ctx := cmd.Context()
	app, err := NewAppContext(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
