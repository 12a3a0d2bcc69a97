package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/civium/aegis/internal/api"
	"github.com/civium/aegis/internal/assurance"
	"github.com/civium/aegis/internal/auth"
	"github.com/civium/aegis/internal/config"
	"github.com/civium/aegis/internal/constitution"
	"github.com/civium/aegis/internal/ledger"
	"github.com/civium/aegis/internal/ledger/pgstore"
	"github.com/civium/aegis/internal/ledger/sqlstore"
	"github.com/civium/aegis/internal/notify"
	"github.com/civium/aegis/internal/optimizer"
	"github.com/civium/aegis/internal/pipeline"
	"github.com/civium/aegis/internal/policy"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(cfg config.Config) (*http.Server, error) {
	profile, err := constitution.Load(cfg.ConstitutionPath)
	if err != nil {
		return nil, fmt.Errorf("load constitution: %w", err)
	}

	store, err := openStore(cfg.DB)
	if err != nil {
		return nil, err
	}

	var sink notify.Sink
	if cfg.Notify.WebhookURL != "" {
		sink = notify.NewWebhookSink(cfg.Notify.WebhookURL, cfg.Notify.Headers)
	}

	var actionPolicy *policy.LoadedPolicy
	if cfg.ActionPolicyPath != "" {
		loaded, err := policy.Load(cfg.ActionPolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load action policy: %w", err)
		}
		actionPolicy = &loaded
	}

	pipe, err := pipeline.New(pipeline.Pipeline{
		Constitution: constitution.NewStore(profile),
		Optimizer:    optimizer.New(optimizer.DefaultMeta()),
		Monitors:     assurance.New(thresholdsFromConfig(cfg.Monitor)),
		Ledger:       ledger.New(store),
		Notifier:     sink,
		Policy:       actionPolicy,
	})
	if err != nil {
		return nil, err
	}

	h := &api.Handler{
		Auth:     auth.NewAuthenticatorFromEnv(),
		Pipeline: pipe,
	}
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

// openStore selects the ledger backing store. An empty driver means
// in-memory, for local runs.
func openStore(db config.DBConfig) (ledger.Store, error) {
	switch db.Driver {
	case "sqlite":
		store, err := sqlstore.OpenSQLite(db.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate sqlite store: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := pgstore.OpenPostgres(db.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		return store, nil
	case "":
		return ledger.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", db.Driver)
	}
}

// thresholdsFromConfig applies the nonzero overrides onto the defaults.
func thresholdsFromConfig(m config.MonitorConfig) assurance.Thresholds {
	t := assurance.DefaultThresholds()
	if m.FairnessRisePts > 0 {
		t.FairnessRegressionPct = m.FairnessRisePts
	}
	if m.ReserveFloorPct > 0 {
		t.SafetyMarginTarget = m.ReserveFloorPct
	}
	if m.ReserveSlackPct > 0 {
		t.SafetyMarginSlackPct = m.ReserveSlackPct
	}
	if m.OODZScore > 0 {
		t.OODZScore = m.OODZScore
	}
	if m.AppealRatePct > 0 {
		t.AppealRatePct = m.AppealRatePct
	}
	if m.AppealsUpheldPct > 0 {
		t.UpheldAppealRatePct = m.AppealsUpheldPct
	}
	return t
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(cfg config.Config) (*http.Server, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("aegis-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to aegis config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("AEGIS_CONFIG_PATH")
	}

	var cfg config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	cfg.ListenAddr = firstNonEmpty(getenv("AEGIS_LISTEN_ADDR"), cfg.ListenAddr, ":8080")
	cfg.ConstitutionPath = firstNonEmpty(getenv("AEGIS_CONSTITUTION_PATH"), cfg.ConstitutionPath, "configs/constitution.yaml")

	server, err := factory(cfg)
	if err != nil {
		return err
	}

	log.Printf("aegis-gateway listening on %s", cfg.ListenAddr)
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
