package salesimport

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flashledger/flashledger/internal/salesimport/waterfall"
)

// feeSettingPrefix keys fee rates in the settings table, e.g. "fees.visa".
const feeSettingPrefix = "fees."

// SettingsRepository reads key/value configuration rows.
type SettingsRepository interface {
	ByPrefix(ctx context.Context, prefix string) (map[string]string, error)
}

// ResolveFeeSchedule loads per-method fee rates once for a batch, falling
// back to the hard-coded defaults for any method without a configured rate.
// Unparseable values are logged and ignored rather than failing the batch.
func ResolveFeeSchedule(ctx context.Context, repo SettingsRepository, logger *slog.Logger) waterfall.FeeSchedule {
	overrides := map[string]decimal.Decimal{}
	settings, err := repo.ByPrefix(ctx, feeSettingPrefix)
	if err != nil {
		logger.Warn("fee settings lookup failed, using defaults", slog.Any("error", err))
		return waterfall.NewFeeSchedule(nil)
	}
	for key, raw := range settings {
		method := strings.TrimPrefix(key, feeSettingPrefix)
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			logger.Warn("ignoring invalid fee rate", slog.String("key", key), slog.String("value", raw))
			continue
		}
		overrides[method] = rate
	}
	return waterfall.NewFeeSchedule(overrides)
}
