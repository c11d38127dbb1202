package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jask/pathoscreen/internal/analysis"
	"github.com/jask/pathoscreen/internal/catalog"
	"github.com/jask/pathoscreen/internal/config"
	"github.com/jask/pathoscreen/internal/database"
	"github.com/jask/pathoscreen/internal/database/repository"
	"github.com/jask/pathoscreen/internal/logx"
	"github.com/jask/pathoscreen/internal/media"
	"github.com/jask/pathoscreen/internal/prefs"
	"github.com/jask/pathoscreen/internal/screening"
	"github.com/jask/pathoscreen/internal/secrets"
	"github.com/jask/pathoscreen/internal/service"
	"github.com/jask/pathoscreen/internal/tui"
)

// tokenName is the secret store key for the analysis service token.
const tokenName = "analysis"

var newTokenStore = func() (*secrets.Store, error) { return secrets.NewStore("") }

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	closer := logx.Init(logx.Options{
		Environment: logx.ParseEnvironment(cfg.Log.Environment),
		Level:       cfg.Log.Level,
		Path:        cfg.Log.Path,
	})
	defer closer.Close()

	if args := os.Args[1:]; len(args) > 0 {
		code := runCommand(ctx, cfg, args, os.Stdout, os.Stderr)
		stop()
		_ = closer.Close()
		os.Exit(code)
	}

	if err := runScreen(ctx, cfg); err != nil {
		log.Fatalf("error: %v", err)
	}
}

// env is everything a screen or a subcommand needs, built from config.
type env struct {
	cfg       config.Config
	catalog   screening.Catalog
	db        *sql.DB
	history   *repository.AnalysisRepo
	analysis  *service.AnalysisService
	store     *secrets.Store
	prefsPath string
	prefs     prefs.Prefs
}

func setup(cfg config.Config) (*env, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	e := &env{cfg: cfg, catalog: cat, db: db, history: repository.NewAnalysisRepo(db)}

	store, err := newTokenStore()
	if err != nil {
		logx.Warn().Err(err).Msg("secret store unavailable")
	}
	e.store = store

	if path, err := prefs.Path(""); err != nil {
		logx.Warn().Err(err).Msg("prefs unavailable")
	} else {
		e.prefsPath = path
		if p, err := prefs.Load(path); err != nil {
			logx.Warn().Err(err).Str("path", path).Msg("load prefs")
		} else {
			e.prefs = p
		}
	}

	client := analysis.NewClient(cfg.Analysis.Endpoint,
		analysis.WithTimeout(cfg.Analysis.Timeout),
		analysis.WithToken(resolveToken(cfg, store)),
	)
	e.analysis = &service.AnalysisService{Analyzer: client, History: e.history}
	return e, nil
}

func (e *env) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// newController starts on the last used variant, then the configured default,
// then the catalogue default.
func (e *env) newController() *screening.Controller {
	ctrl := screening.NewController(e.catalog)
	for _, tag := range []string{e.prefs.LastVariant, e.cfg.UI.DefaultVariant} {
		if strings.TrimSpace(tag) != "" && ctrl.SelectTag(tag) {
			break
		}
	}
	return ctrl
}

func (e *env) libraryRoot() string {
	if e.prefs.LastLibrary != "" {
		if info, err := os.Stat(e.prefs.LastLibrary); err == nil && info.IsDir() {
			return e.prefs.LastLibrary
		}
	}
	return e.cfg.Media.Library
}

func (e *env) rememberVariant(tag string) {
	e.prefs.LastVariant = tag
	e.savePrefs()
}

// rememberLibrary points the picker at the directory of the last slide analyzed headless.
func (e *env) rememberLibrary(dir string) {
	if dir == "" || dir == e.prefs.LastLibrary {
		return
	}
	e.prefs.LastLibrary = dir
	e.savePrefs()
}

func (e *env) savePrefs() {
	if e.prefsPath == "" {
		return
	}
	if err := prefs.Save(e.prefsPath, e.prefs); err != nil {
		logx.Warn().Err(err).Msg("save prefs")
	}
}

// resolveToken prefers the configured env var, then the secret store, then the config file.
func resolveToken(cfg config.Config, store *secrets.Store) string {
	if name := strings.TrimSpace(cfg.Analysis.TokenEnv); name != "" {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	if store != nil {
		tok, err := store.Get(tokenName)
		if err == nil {
			return tok
		}
		if !errors.Is(err, secrets.ErrNotFound) {
			logx.Warn().Err(err).Msg("read stored token")
		}
	}
	return strings.TrimSpace(cfg.Analysis.Token)
}

func runScreen(ctx context.Context, cfg config.Config) error {
	e, err := setup(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	lib := media.NewLibrary(e.libraryRoot())
	app := tui.New(ctx, e.newController(), tui.Deps{
		Analysis:        e.analysis,
		Library:         lib,
		VariantSelected: e.rememberVariant,
	})
	logx.Info().Str("endpoint", cfg.Analysis.Endpoint).Str("library", lib.Root()).Msg("screen started")
	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
