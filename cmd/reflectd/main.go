package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/creanalyst/reflectd/internal/api"
	"github.com/creanalyst/reflectd/internal/config"
	"github.com/creanalyst/reflectd/internal/elevenlabs"
	"github.com/creanalyst/reflectd/internal/genai"
	"github.com/creanalyst/reflectd/internal/store"
	"github.com/creanalyst/reflectd/internal/util"
	"github.com/joho/godotenv"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	cfg := loadEnvironmentConfig()

	// Parse command line flags, overriding environment values
	applyCommandLineFlags(cfg)

	// Build the persistence backend, if any is configured
	st := buildStore(cfg)
	if st != nil {
		defer st.Close()
	}

	openAI := genai.NewOpenAIScorer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	anthropic := genai.NewAnthropicScorer(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	engine := genai.NewEngine(openAI, anthropic, cfg.DefaultProvider)
	eleven := elevenlabs.NewClient(cfg.ElevenLabsAPIKey)

	srv := api.NewServer(cfg, engine, eleven, api.WithStore(st))

	// Start the service
	slog.Info("Bootstrapping reflectd",
		"addr", cfg.Addr,
		"default_provider", cfg.DefaultProvider,
		"store_configured", st != nil,
		"elevenlabs_configured", eleven.Configured())
	if err := srv.Run(); err != nil {
		slog.Error("reflectd failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("reflectd exited successfully")
}

// initializeLogger sets up structured logging. Debug level is opt-in through
// REFLECTD_DEBUG so production logs stay at info.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("REFLECTD_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() *config.Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}
	return config.Load()
}

// applyCommandLineFlags overrides environment configuration with any flags the
// operator passed on the command line.
func applyCommandLineFlags(cfg *config.Config) {
	addr := flag.String("addr", cfg.Addr, "HTTP listen address (env REFLECTD_ADDR)")
	dbDSN := flag.String("db-dsn", cfg.DatabaseDSN, "database connection string, Postgres URL or SQLite path (env DATABASE_URL)")
	supabaseURL := flag.String("supabase-url", cfg.SupabaseURL, "Supabase project URL (env SUPABASE_URL)")
	supabaseKey := flag.String("supabase-key", cfg.SupabaseServiceKey, "Supabase service role key (env SUPABASE_SERVICE_ROLE_KEY)")
	openaiKey := flag.String("openai-api-key", cfg.OpenAIAPIKey, "OpenAI API key (env OPENAI_API_KEY)")
	anthropicKey := flag.String("anthropic-api-key", cfg.AnthropicAPIKey, "Anthropic API key (env ANTHROPIC_API_KEY)")
	elevenKey := flag.String("elevenlabs-api-key", cfg.ElevenLabsAPIKey, "ElevenLabs API key (env ELEVENLABS_API_KEY)")
	flag.Parse()

	cfg.Addr = *addr
	cfg.DatabaseDSN = *dbDSN
	cfg.SupabaseURL = *supabaseURL
	cfg.SupabaseServiceKey = *supabaseKey
	cfg.OpenAIAPIKey = *openaiKey
	cfg.AnthropicAPIKey = *anthropicKey
	cfg.ElevenLabsAPIKey = *elevenKey
}

// buildStore selects the persistence backend. Supabase wins when fully
// configured, then a SQL DSN chooses Postgres or SQLite. Without any of these
// the service runs with transcript persistence disabled.
func buildStore(cfg *config.Config) store.Store {
	switch {
	case cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "":
		st, err := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			slog.Error("Failed to initialize Supabase store", "error", err)
			os.Exit(1)
		}
		slog.Info("Using Supabase persistence", "url", cfg.SupabaseURL)
		return st
	case cfg.DatabaseDSN != "":
		if store.DetectDSNType(cfg.DatabaseDSN) == "postgres" {
			st, err := store.NewPostgresStore(store.WithDSN(cfg.DatabaseDSN))
			if err != nil {
				slog.Error("Failed to initialize Postgres store", "error", err)
				os.Exit(1)
			}
			slog.Info("Using Postgres persistence")
			return st
		}
		st, err := store.NewSQLiteStore(store.WithDSN(cfg.DatabaseDSN))
		if err != nil {
			slog.Error("Failed to initialize SQLite store", "error", err)
			os.Exit(1)
		}
		slog.Info("Using SQLite persistence", "path", cfg.DatabaseDSN)
		return st
	default:
		slog.Warn("No persistence configured, transcript saving is disabled")
		return nil
	}
}
