package bootstrap

import (
	"context"
	"fmt"
	"strings"

	appconfig "github.com/wolfman30/vetchart/internal/config"
	"github.com/wolfman30/vetchart/internal/soap"
	"github.com/wolfman30/vetchart/pkg/logging"
)

// BuildSoapGenerator wires the Gemini-backed SOAP generator. It returns a nil
// generator and closer when GEMINI_API_KEY is unset.
func BuildSoapGenerator(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*soap.Generator, func() error, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		logger.Warn("GEMINI_API_KEY not set; SOAP generation disabled")
		return nil, nil, nil
	}
	model, err := soap.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	logger.Info("soap generation enabled", "model", cfg.GeminiModel)
	return soap.NewGenerator(model, logger), model.Close, nil
}
