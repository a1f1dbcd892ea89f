package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/sekolahdigital/adminpanel/internal/i18n"
)

// mapModelError converts an upstream model failure into the user-facing
// message the admin panel shows. The underlying error is logged, not
// surfaced; admins cannot act on SDK internals.
func mapModelError(ctx context.Context, err error) error {
	slog.Error("model call failed", "error", err)

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return errors.New(i18n.T(ctx, "SafetyBlocked"))
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "429"):
		return errors.New(i18n.T(ctx, "QuotaExhausted"))
	case strings.Contains(msg, "safety") || strings.Contains(msg, "blocked"):
		return errors.New(i18n.T(ctx, "SafetyBlocked"))
	default:
		return errors.New(i18n.T(ctx, "AnalysisFailed"))
	}
}
