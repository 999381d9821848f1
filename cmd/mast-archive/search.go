package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mast-archive/internal/mast"
	"github.com/pdiddy/mast-archive/internal/search"
	"github.com/pdiddy/mast-archive/internal/secrets"
	"github.com/pdiddy/mast-archive/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "mast-archive/0.1"
)

var searchCmd = &cobra.Command{
	Use:   "search [target]",
	Short: "Search MAST for Kepler, K2, and TESS data products",
	Long: `Search resolves a target designation (proper name, KIC/EPIC/TIC identifier,
or "ra, dec" coordinates), queries the MAST archive, and prints the matching
data products. Results can be saved to a session file for later download.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("type", "lightcurve", "product type: lightcurve, targetpixel, or ffi")
	searchCmd.Flags().Float64("radius", 0, "cone-search radius in arcseconds")
	searchCmd.Flags().String("cadence", "", "cadence: long (default), short, or any")
	searchCmd.Flags().StringSlice("mission", nil, "restrict to missions (Kepler, K2, TESS)")
	searchCmd.Flags().StringSlice("author", nil, "restrict to pipeline provenance (e.g. Kepler, K2, SPOC)")
	searchCmd.Flags().IntSlice("quarter", nil, "Kepler quarters")
	searchCmd.Flags().IntSlice("campaign", nil, "K2 campaigns")
	searchCmd.Flags().IntSlice("sector", nil, "TESS sectors")
	searchCmd.Flags().IntSlice("month", nil, "Kepler short-cadence months (1-3)")
	searchCmd.Flags().Float64("exptime-min", 0, "minimum exposure time in seconds")
	searchCmd.Flags().Float64("exptime-max", 0, "maximum exposure time in seconds (default 9999)")
	searchCmd.Flags().Int("limit", 0, "maximum number of products to return")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "save the result to a session file")

	rootCmd.AddCommand(searchCmd)
}

// pipelineConfig decodes the viper-backed config file into the shared
// pipeline configuration. Flag values win over config-file values.
func pipelineConfig() types.PipelineConfig {
	var cfg types.PipelineConfig
	_ = viper.Unmarshal(&cfg)
	return cfg
}

// newMASTClient builds the MAST client shared by the CLI stages.
func newMASTClient(timeout time.Duration, cfg types.HTTPConfig) *mast.Client {
	if timeout == 0 {
		timeout = cfg.Timeout
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}
	return &mast.Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: agent,
		APIToken:  secretDefault(secrets.MASTTokenKey, cfg.APIToken),
	}
}

// parseTarget maps a CLI argument to a search target: a bare integer is an
// ambiguous catalog ID, a parseable "ra, dec" pair is a position, anything
// else is a free-form name.
func parseTarget(arg string) search.Target {
	if id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64); err == nil {
		return search.CatalogID(id)
	}
	if raStr, decStr, ok := strings.Cut(arg, ","); ok {
		ra, errRA := strconv.ParseFloat(strings.TrimSpace(raStr), 64)
		dec, errDec := strconv.ParseFloat(strings.TrimSpace(decStr), 64)
		if errRA == nil && errDec == nil {
			return search.Position{RA: ra, Dec: dec}
		}
	}
	return search.Name(arg)
}

// parseKind maps the --type flag to a product kind.
func parseKind(s string) (search.ProductKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lightcurve", "lc":
		return search.KindLightCurve, nil
	case "targetpixel", "tpf":
		return search.KindTargetPixel, nil
	case "ffi", "tesscut":
		return search.KindFFI, nil
	}
	return "", fmt.Errorf("unknown product type %q (expected lightcurve, targetpixel, or ffi)", s)
}

// criteriaFromFlags assembles search criteria from the shared flag set.
func criteriaFromFlags(cmd *cobra.Command, target search.Target) search.Criteria {
	radius, _ := cmd.Flags().GetFloat64("radius")
	cadence, _ := cmd.Flags().GetString("cadence")
	missions, _ := cmd.Flags().GetStringSlice("mission")
	authors, _ := cmd.Flags().GetStringSlice("author")
	quarters, _ := cmd.Flags().GetIntSlice("quarter")
	campaigns, _ := cmd.Flags().GetIntSlice("campaign")
	sectors, _ := cmd.Flags().GetIntSlice("sector")
	months, _ := cmd.Flags().GetIntSlice("month")
	expMin, _ := cmd.Flags().GetFloat64("exptime-min")
	expMax, _ := cmd.Flags().GetFloat64("exptime-max")
	limit, _ := cmd.Flags().GetInt("limit")

	return search.Criteria{
		Target:     target,
		Radius:     radius,
		Cadence:    search.Cadence(cadence),
		Missions:   missions,
		Authors:    authors,
		ExpTimeMin: expMin,
		ExpTimeMax: expMax,
		Quarters:   quarters,
		Campaigns:  campaigns,
		Sectors:    sectors,
		Months:     months,
		Limit:      limit,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("type")
	kind, err := parseKind(kindFlag)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	asJSON, _ := cmd.Flags().GetBool("json")
	savePath, _ := cmd.Flags().GetString("save")

	cfg := pipelineConfig()
	target := parseTarget(args[0])
	criteria := criteriaFromFlags(cmd, target)
	if criteria.Limit == 0 {
		criteria.Limit = cfg.Search.MaxResults
	}

	searcher := &search.Searcher{Client: newMASTClient(timeout, cfg.Search.HTTPConfig)}
	result, err := searcher.Products(context.Background(), criteria, kind, os.Stderr)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(result.Rows(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(result)
	}

	if savePath != "" {
		if err := search.WriteSession(savePath, target, kind, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved session: %s\n", savePath)
	}
	return nil
}
