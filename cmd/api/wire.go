package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bardoun7894/basplast/internal/adapter/repo"
	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/migration"
	"github.com/bardoun7894/basplast/internal/providers/prompt"
)

// openRecords selects the record store, applying migrations first when
// AUTO_MIGRATE is set. The returned func releases the connection.
func openRecords(ctx context.Context, cfg *infra.Config, logger infra.Logger) (domain.RecordRepository, func(), error) {
	switch cfg.RecordStore {
	case infra.StorePostgres:
		if cfg.AutoMigrate {
			if err := migration.Up(ctx, migration.BackendPostgres, cfg.DatabaseURL); err != nil {
				return nil, nil, err
			}
		}
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		return repo.NewRecordRepository(runner), pool.Close, nil
	case infra.StoreSQLite:
		if cfg.AutoMigrate {
			if err := migration.Up(ctx, migration.BackendSQLite, cfg.SQLitePath); err != nil {
				return nil, nil, err
			}
		}
		db, err := infra.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewRecordRepositorySQLite(db, logger), func() { _ = db.Close() }, nil
	case infra.StoreMemory:
		logger.Warn().Msg("records are kept in memory and lost on restart")
		return repo.NewRecordRepositoryMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported record store %q", cfg.RecordStore)
	}
}

// newEnhancer chains the configured provider in front of the other one. Every
// link logs its fallback reason.
func newEnhancer(cfg *infra.Config, client *http.Client, logger infra.Logger) prompt.Enhancer {
	onFallback := func(provider string) func(string, error) {
		return func(reason string, err error) {
			logger.Warn().Err(err).Str("provider", provider).Str("reason", reason).Msg("prompt enhancement fallback")
		}
	}
	newOpenAI := func(next prompt.Enhancer) prompt.Enhancer {
		return prompt.NewOpenAIEnhancer(prompt.OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: client,
			Fallback:   next,
			OnFallback: onFallback("openai"),
			OnWarning: func(reason, detail string) {
				logger.Warn().Str("reason", reason).Str("detail", detail).Msg("openai model normalized")
			},
		})
	}
	newGemini := func(next prompt.Enhancer) prompt.Enhancer {
		return prompt.NewGeminiEnhancer(prompt.GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: client,
			Fallback:   next,
			OnFallback: onFallback("gemini"),
		})
	}

	switch cfg.PromptProvider {
	case "none":
		return prompt.NewPassthroughEnhancer()
	case "gemini":
		if cfg.OpenAIAPIKey == "" {
			return newGemini(nil)
		}
		return newGemini(newOpenAI(nil))
	default:
		if cfg.GeminiAPIKey == "" {
			return newOpenAI(nil)
		}
		return newOpenAI(newGemini(nil))
	}
}
