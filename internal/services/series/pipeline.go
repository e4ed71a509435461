package series

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sort"
	"time"

	"RegimeShift/internal/domain/models"
	applogger "RegimeShift/pkg/logger"
)

// Pipeline loads the price series and event catalog and derives the return series.
// It holds no state between calls.
type Pipeline struct {
	l *applogger.Logger
}

func NewPipeline() *Pipeline { return &Pipeline{} }

// SetLogger injects a structured logger.
func (p *Pipeline) SetLogger(l *applogger.Logger) { p.l = l }

// Load reads both sources wholesale, validates them and builds the dataset.
func (p *Pipeline) Load(ctx context.Context, pricePath, eventPath string) (*models.Dataset, error) {
	start := time.Now()

	priceRaw, err := readSource(pricePath)
	if err != nil {
		return nil, err
	}
	eventRaw, err := readSource(eventPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prices, err := parsePrices(pricePath, priceRaw)
	if err != nil {
		return nil, err
	}
	events, err := parseEvents(eventPath, eventRaw)
	if err != nil {
		return nil, err
	}

	prices, err = SortPrices(pricePath, prices)
	if err != nil {
		return nil, err
	}
	returns := LogReturns(prices)
	if returns.Len() < 2 {
		return nil, models.Errorf(models.KindModel, op, "%s: %d prices yield %d returns, need at least 2", pricePath, len(prices), returns.Len())
	}

	ds := &models.Dataset{
		PricePath:    pricePath,
		EventPath:    eventPath,
		Digest:       digest(priceRaw, eventRaw),
		Prices:       prices,
		Events:       events,
		Returns:      returns,
		Preprocessed: Merge(prices, returns, events),
	}
	if p.l != nil {
		p.l.Info("series loaded",
			applogger.String("prices_path", pricePath),
			applogger.Int("prices", len(prices)),
			applogger.Int("events", len(events)),
			applogger.Int("returns", returns.Len()),
			applogger.Duration("took_ms", time.Since(start)),
		)
	}
	return ds, nil
}

func readSource(path string) ([]byte, error) {
	if path == "" {
		return nil, models.Errorf(models.KindData, op, "source path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, models.Errorf(models.KindData, op, "read %s: %w", path, err)
	}
	return b, nil
}

// SortPrices orders prices ascending by date and rejects duplicate dates.
// The input slice is not modified.
func SortPrices(path string, prices []models.PricePoint) ([]models.PricePoint, error) {
	out := append([]models.PricePoint(nil), prices...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	for i := 1; i < len(out); i++ {
		if out[i].Date.Equal(out[i-1].Date) {
			return nil, models.Errorf(models.KindData, op, "%s: duplicate date %s", path, out[i].Date.Format(models.DateLayout))
		}
	}
	return out, nil
}

func digest(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
