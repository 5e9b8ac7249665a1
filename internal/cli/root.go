// Package cli defines Cobra command definitions for the ghostflow CLI.
// This file contains the root command and the shared wiring that turns a
// config file plus environment credentials into a ready pipeline controller.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	ghostflow "github.com/storieswithjai/ghostflow"
	"github.com/storieswithjai/ghostflow/internal/adapters"
	"github.com/storieswithjai/ghostflow/internal/config"
	applog "github.com/storieswithjai/ghostflow/internal/log"
	"github.com/storieswithjai/ghostflow/internal/postqueue"
)

var (
	configPath string
	useRedis   bool
	verbose    bool
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "ghostflow",
	Short: "Content-production pipeline with human checkpoints",
	Long: `Ghostflow drafts publication-ready posts from recent channel content.
It analyzes the author's writing style, finds relevant topics, drafts and
revises an article, and offers image options — pausing for the operator's
topic and image decisions before publishing or scheduling the result.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&useRedis, "redis", false, "Checkpoint sessions in Redis (REDIS_ADDR) instead of SQLite")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every node transition")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(schedulerCmd)
}

// app bundles everything a command needs after wiring.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	db    *sql.DB
	ctrl  ghostflow.Controller
	posts *postqueue.SQLiteStore
	pub   *adapters.LinkedIn
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// loadApp reads the config and credentials and wires the full pipeline:
// adapters, graph, checkpoint store, and scheduled-post store.
func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	creds := config.LoadCredentials()
	log := applog.New(cfg.Log.Level, cfg.Log.Console)

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	posts, err := postqueue.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	gen := &adapters.ChatClient{
		APIKey:  creds.OpenAIKey,
		Model:   cfg.Generator.Model,
		BaseURL: cfg.Generator.BaseURL,
	}
	pub := &adapters.LinkedIn{
		AccessToken: creds.LinkedInToken,
		AuthorURN:   creds.LinkedInAuthorURN,
	}

	graph, err := ghostflow.NewPipeline(ghostflow.Collaborators{
		StyleCorpus: &adapters.DirCorpus{Dir: cfg.StyleDir},
		Topics: &adapters.YouTubeSource{
			APIKey:        creds.YouTubeKey,
			TranscriptURL: creds.TranscriptURL,
		},
		Classifier:      &adapters.ChatClassifier{Gen: gen},
		Generator:       gen,
		PrimaryImages:   &adapters.Unsplash{AccessKey: creds.UnsplashAccessKey},
		SecondaryImages: &adapters.SerpImages{APIKey: creds.SerpAPIKey},
		Publisher:       pub,
		Posts:           posts,
	}, ghostflow.PipelineConfig{
		Sources:   cfg.Sources,
		Interests: cfg.Interests,
		Logger:    log,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	var obs ghostflow.Observer
	if verbose {
		obs = ghostflow.NewLoggingObserver(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	var ctrl ghostflow.Controller
	if useRedis {
		if creds.RedisAddr == "" {
			db.Close()
			return nil, fmt.Errorf("--redis requires REDIS_ADDR to be set")
		}
		client := redis.NewClient(&redis.Options{Addr: creds.RedisAddr})
		ctrl, err = ghostflow.NewRedisControllerWithObserver(client, graph, obs)
	} else {
		ctrl, err = ghostflow.NewSQLiteControllerWithObserver(db, graph, obs)
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db, ctrl: ctrl, posts: posts, pub: pub}, nil
}
