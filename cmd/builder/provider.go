package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/anthropic"
	"github.com/fwojciec/builder/config"
	"github.com/fwojciec/builder/gemini"
	"github.com/fwojciec/builder/openai"
	"go.uber.org/zap"
)

// client is what every provider package offers.
type client interface {
	builder.Provider
	builder.Completer
}

var keyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// resolveProvider constructs the configured provider.
func resolveProvider(ctx context.Context, cfg config.ProviderConfig, log *zap.Logger) (client, error) {
	key := cfg.APIKey()
	env, ok := keyEnv[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q: must be \"anthropic\", \"gemini\" or \"openai\"", cfg.Name)
	}
	// Local OpenAI-compatible servers usually run without a key.
	if key == "" && !(cfg.Name == "openai" && cfg.OpenAIBaseURL != "") {
		return nil, fmt.Errorf("%s not set", env)
	}

	switch cfg.Name {
	case "anthropic":
		return anthropic.New(key, anthropic.WithLogger(log)), nil
	case "gemini":
		opts := []gemini.Option{gemini.WithLogger(log)}
		if cfg.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Model))
		}
		c, err := gemini.New(ctx, key, opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return c, nil
	default:
		opts := []openai.Option{openai.WithLogger(log)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		return openai.New(key, opts...), nil
	}
}
