package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/levelcheck/internal/assessor"
	"github.com/abhisek/levelcheck/internal/config"
	"github.com/abhisek/levelcheck/internal/evaluator"
	"github.com/abhisek/levelcheck/internal/llm"
	"github.com/abhisek/levelcheck/internal/locker"
	"github.com/abhisek/levelcheck/internal/logger"
	"github.com/abhisek/levelcheck/internal/questionbank"
	"github.com/abhisek/levelcheck/internal/session"
	"github.com/abhisek/levelcheck/internal/store"
)

// app holds the wired dependencies of commands that touch sessions.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	store    *store.Store
	assessor *assessor.Assessor
	rdb      *redis.Client
}

// newApp loads configuration, opens the store and builds the assessor.
func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, store: st}

	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	selector, err := newSelector(a.cfg)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(ctx, a.cfg.LLM, a.store.LLMEvents(), a.log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	if provider == nil {
		a.log.Warn().Msg("no LLM provider configured, answers will be scored by answer length only")
	} else {
		a.log.Debug().Str("provider", a.cfg.LLM.Provider).Str("model", provider.ModelID()).Msg("scoring backend ready")
	}

	var locks locker.Locker = locker.NewLocal()
	if a.cfg.RedisURL != "" {
		a.rdb, err = locker.Connect(ctx, a.cfg.RedisURL, a.log)
		if err != nil {
			return err
		}
		locks = locker.NewRedis(a.rdb, a.log)
	}

	mgr := session.NewManager(a.store.Sessions(), a.store.Learners(), a.log,
		session.WithLocker(locks),
		session.WithTimeout(a.cfg.Assessment.SessionTimeout),
	)
	eval := evaluator.New(provider, a.cfg.Evaluator, a.log)
	a.assessor = assessor.New(mgr, selector, eval, a.cfg.Assessment.Policy(), a.log)
	return nil
}

// Close releases the store and the Redis client.
func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Error().Err(err).Msg("close redis")
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("close database")
	}
}

// newSelector uses the configured question bank file, or the built-in one.
func newSelector(cfg config.Config) (*questionbank.Selector, error) {
	if cfg.QuestionBankPath == "" {
		return questionbank.NewSelector(nil)
	}
	bank, err := questionbank.Load(cfg.QuestionBankPath)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	return questionbank.NewSelector(bank)
}
