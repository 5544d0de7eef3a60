// Command landcodes resolves a state, district and town by name through the
// land service, derives the land-code prefix and requests a batch of codes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/landledger/backoffice/internal/config"
	"github.com/landledger/backoffice/internal/geo"
	"github.com/landledger/backoffice/internal/landapi"
	"github.com/landledger/backoffice/internal/landcode"
)

var (
	stateName    = flag.String("state", "", "State name (required)")
	districtName = flag.String("district", "", "District name (required)")
	townName     = flag.String("town", "", "Town name (required)")
	count        = flag.Int("count", 0, "Number of codes to generate (1-1000)")
	dryRun       = flag.Bool("dry-run", false, "Resolve and print the batch only; no codes are created")
	showStats    = flag.Bool("stats", false, "Print land-code stats after generating")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("config: %v", err)
	}
	if cfg.APIToken == "" {
		fatalf("LAND_API_TOKEN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := landapi.NewClient(landapi.Options{
		BaseURL:       cfg.APIURL,
		Timeout:       cfg.APITimeout,
		RatePerSecond: cfg.APIRate,
		Tokens:        landapi.StaticToken(cfg.APIToken),
	})

	sel := geo.NewSelection(client, geo.ViewTowns)
	if err := resolve(ctx, sel); err != nil {
		fatalf("%v", err)
	}

	batch := landcode.DefaultBatch(sel, *count)
	state, district, town := sel.Names()
	fmt.Printf("State:    %s (%s)\n", state, batch.StateID)
	fmt.Printf("District: %s (%s)\n", district, batch.DistrictID)
	fmt.Printf("Town:     %s (%s)\n", town, batch.TownID)
	fmt.Printf("Prefix:   %s\n", batch.Prefix)

	if err := batch.Validate(); err != nil {
		fatalf("invalid batch: %v", err)
	}

	expected := landcode.ExpectedCodes(batch.Prefix, batch.Count)
	fmt.Printf("Codes:    %s .. %s (%d)\n", expected[0], expected[len(expected)-1], len(expected))

	if *dryRun {
		fmt.Println("Dry run complete. No codes requested.")
		return
	}

	alloc := landcode.NewAllocator(client)
	res, err := alloc.Generate(ctx, batch)
	if err != nil {
		fatalf("generate: %v", err)
	}
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	fmt.Printf("Land service returned %d codes\n", len(res.Codes))

	if *showStats {
		stats, err := alloc.Stats(ctx)
		if err != nil {
			fatalf("stats: %v", err)
		}
		fmt.Printf("Total codes: %d\n", stats.Total)
		for _, s := range stats.Stats {
			fmt.Printf("  %-12s %6d  %5.1f%%\n", s.Status, s.Count, s.Percentage)
		}
	}
}

// resolve walks state → district → town by name.
func resolve(ctx context.Context, sel *geo.Selection) error {
	if err := sel.LoadStates(ctx); err != nil {
		return fmt.Errorf("load states: %w", err)
	}
	steps := []struct {
		level geo.Level
		name  string
	}{
		{geo.LevelState, *stateName},
		{geo.LevelDistrict, *districtName},
		{geo.LevelTown, *townName},
	}
	for _, step := range steps {
		if strings.TrimSpace(step.name) == "" {
			return fmt.Errorf("--%s is required", step.level)
		}
		node, ok := sel.FindByName(step.level, step.name)
		if !ok {
			return fmt.Errorf("%s %q not found; options: %s", step.level, step.name, optionNames(sel.Options(step.level)))
		}
		if err := sel.Select(ctx, step.level, node.ID); err != nil {
			return fmt.Errorf("select %s %s: %w", step.level, node.Name, err)
		}
	}
	return nil
}

func optionNames(nodes []geo.Node) string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return strings.Join(names, ", ")
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
