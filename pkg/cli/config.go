package cli

import (
	"context"
	"os"
	"time"

	"github.com/dormouselabs/dormouse/pkg/adapter"
	"github.com/dormouselabs/dormouse/pkg/nameindex"
	"github.com/dormouselabs/dormouse/pkg/repository"
	"github.com/dormouselabs/dormouse/pkg/usecase/memory"
	"github.com/dormouselabs/dormouse/pkg/utils/logging"
	"github.com/dormouselabs/dormouse/pkg/wall"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	// Repository
	project  string
	database string
	local    bool

	// Adapters
	geminiProject  string
	geminiLocation string

	logLevel     string
	settingsPath string

	settings settings
}

// settings are engine tunables loaded from an optional YAML file.
type settings struct {
	Similarity struct {
		SemanticWeight  float64 `yaml:"semantic_weight"`
		EmotionalWeight float64 `yaml:"emotional_weight"`
	} `yaml:"similarity"`
	Splash struct {
		MinScore     float64 `yaml:"min_score"`
		ContrastLow  float64 `yaml:"contrast_low"`
		ContrastHigh float64 `yaml:"contrast_high"`
	} `yaml:"splash"`
	Cluster struct {
		Method    string  `yaml:"method"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"cluster"`
	Lexical struct {
		RecencyHalfLife string `yaml:"recency_half_life"`
	} `yaml:"lexical"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.BoolFlag{
			Name:        "local",
			Usage:       "Use the in-process store instead of Firestore",
			Sources:     cli.EnvVars("DORMOUSE_LOCAL"),
			Destination: &cfg.local,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("DORMOUSE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "settings",
			Usage:       "Path to YAML settings file with engine tunables",
			Sources:     cli.EnvVars("DORMOUSE_SETTINGS"),
			Destination: &cfg.settingsPath,
		},
	}
}

// geminiFlags returns flags for embedding/extraction configuration
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// setup configures logging and loads the settings file. Called at the top
// of every command action.
func (cfg *config) setup() error {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))

	if cfg.settingsPath == "" {
		return nil
	}
	raw, err := os.ReadFile(cfg.settingsPath)
	if err != nil {
		return goerr.Wrap(err, "failed to read settings file", goerr.V("path", cfg.settingsPath))
	}
	if err := yaml.Unmarshal(raw, &cfg.settings); err != nil {
		return goerr.Wrap(err, "failed to parse settings file", goerr.V("path", cfg.settingsPath))
	}
	return nil
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.local {
		return repository.NewMemstore()
	}

	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	project := cfg.geminiProject
	if project == "" {
		project = cfg.project
	}
	if project == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, project, cfg.geminiLocation)
}

// newNameIndex creates the alias index, sharing the Firestore client when
// the repository is remote.
func (cfg *config) newNameIndex(repo repository.Repository) *nameindex.Index {
	if fs, ok := repo.(*repository.Firestore); ok {
		return nameindex.New(nameindex.NewFirestoreStore(fs.Client()))
	}
	return nameindex.New(nameindex.NewMemStore())
}

// newAliasIndex wires only the name index, for alias commands that never
// touch embeddings.
func (cfg *config) newAliasIndex(ctx context.Context) (*nameindex.Index, error) {
	if err := cfg.setup(); err != nil {
		return nil, err
	}
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.newNameIndex(repo), nil
}

// engineOptions maps the loaded settings to engine options.
func (cfg *config) engineOptions() ([]memory.Option, error) {
	opts := []memory.Option{}
	if s := cfg.settings.Similarity; s.SemanticWeight+s.EmotionalWeight > 0 {
		opts = append(opts, memory.WithWeights(wall.Weights{
			Semantic:  s.SemanticWeight,
			Emotional: s.EmotionalWeight,
		}))
	}
	if s := cfg.settings.Splash; s.MinScore > 0 || s.ContrastHigh > 0 {
		opts = append(opts, memory.WithSplashThresholds(s.MinScore, s.ContrastLow, s.ContrastHigh))
	}
	if s := cfg.settings.Lexical.RecencyHalfLife; s != "" {
		halfLife, err := time.ParseDuration(s)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid recency_half_life in settings", goerr.V("value", s))
		}
		opts = append(opts, memory.WithLexicalHalfLife(halfLife))
	}
	return opts, nil
}

// newUseCase wires the full memory engine from flags and settings.
func (cfg *config) newUseCase(ctx context.Context) (*memory.UseCase, error) {
	if err := cfg.setup(); err != nil {
		return nil, err
	}

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.engineOptions()
	if err != nil {
		return nil, err
	}

	return memory.New(repo, gemini, gemini, cfg.newNameIndex(repo), opts...), nil
}

// newOfflineUseCase wires the engine without the Gemini adapter, for
// commands that never call the embedding or extraction models.
func (cfg *config) newOfflineUseCase(ctx context.Context) (*memory.UseCase, error) {
	if err := cfg.setup(); err != nil {
		return nil, err
	}

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.engineOptions()
	if err != nil {
		return nil, err
	}

	return memory.New(repo, nil, nil, cfg.newNameIndex(repo), opts...), nil
}
