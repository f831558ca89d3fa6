// cmd/basket-optimize/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/models"
	"basket-optimizer/internal/optimizer"
)

type options struct {
	input       string
	budget      int64
	health      bool
	prefsJSON   string
	genres      string
	percentiles string
	shape       string
	fallback    bool
	verbose     bool
}

func main() {
	var o options
	flag.StringVar(&o.input, "input", "-", "Catalog JSON file (array of items), - for stdin")
	flag.Int64Var(&o.budget, "budget", 2500, "Basket budget in yen")
	flag.BoolVar(&o.health, "health", false, "Optimize for health before spend")
	flag.StringVar(&o.prefsJSON, "prefs-json", "", `Nutrient directions, e.g. {"protein":1,"sodium":-1}`)
	flag.StringVar(&o.genres, "genres", "", "Comma-separated categories that must each be covered")
	flag.StringVar(&o.percentiles, "percentiles", "p10-p90", "Normalization percentiles (p10-p90, p1-p99)")
	flag.StringVar(&o.shape, "shape", "items", "Output shape (items, summary)")
	flag.BoolVar(&o.fallback, "fallback", false, "Fall back to price mode when no item has a health score")
	flag.BoolVar(&o.verbose, "v", false, "Log solver progress to stderr")
	flag.Parse()

	if err := run(context.Background(), o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "basket-optimize: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, out io.Writer) error {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	zapLog, err := logger.NewWithOutput(level, "console", "stderr")
	if err != nil {
		return err
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	catalog, err := readCatalog(o.input)
	if err != nil {
		return err
	}

	var prefs models.Preference
	if o.prefsJSON != "" {
		if err := json.Unmarshal([]byte(o.prefsJSON), &prefs); err != nil {
			return fmt.Errorf("parse --prefs-json: %w", err)
		}
	}

	pair, err := optimizer.ParsePercentilePair(o.percentiles)
	if err != nil {
		return err
	}
	opts := optimizer.DefaultOptions()
	opts.Percentiles = pair
	if o.fallback {
		opts.HealthFallback = optimizer.FallbackPriceOnly
	}

	engine, err := optimizer.NewEngine(opts, nil, log)
	if err != nil {
		return err
	}

	result, err := engine.Optimize(ctx, optimizer.Request{
		Catalog:     catalog,
		Preferences: prefs,
		Budget:      o.budget,
		HealthMode:  o.health,
		Categories:  splitList(o.genres),
	})
	if err != nil {
		return err
	}

	for _, d := range result.Diagnostics {
		log.Debug("item skipped", map[string]interface{}{"itemId": d.ItemID, "reason": d.Reason})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	switch o.shape {
	case "summary":
		return enc.Encode(result.Summary)
	case "items":
		items := result.Items
		if items == nil {
			items = []models.OutputRecord{}
		}
		return enc.Encode(items)
	}
	return fmt.Errorf("unknown --shape %q", o.shape)
}

func readCatalog(path string) ([]models.CatalogItem, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var items []models.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return items, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
