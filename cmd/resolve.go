package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kphang-wb/listing-match/internal/boundary"
	"github.com/kphang-wb/listing-match/internal/match"
	"github.com/kphang-wb/listing-match/internal/postal"
	"github.com/kphang-wb/listing-match/internal/resilience"
	"github.com/kphang-wb/listing-match/pkg/nominatim"
	"github.com/kphang-wb/listing-match/pkg/profileindex"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve one organization description to a listing",
	Long: `Resolve a single organization description against the profile index.

Keep locations out of the name itself; the index ranks poorly on names
carrying extraneous location text. Prefer --postcode over --location for
bulk work: postal filtering is offline while location boundaries go
through the rate-limited geocoder.

Examples:
  # Name and postal code (fastest, fully offline geo filter)
  resolve --name "Pinegrove Fellowship Church" --postcode P0B1J0

  # Name and free-text location (geocoded to a bounding box)
  resolve --name "St. Andrew's Church" --location "Toronto, Ontario"

  # More conservative clustering
  resolve --name "Grace Church" --epsilon 6`,
	RunE: runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.String("name", "", "organization name (required)")
	f.String("postcode", "", "Canadian postal code")
	f.String("location", "", "free-text location to geocode into a bounding box")
	f.Float64("epsilon", 0, "clustering density parameter (0=use config)")
	f.String("expect-denomination", "", "diagnostic: expected denomination")
	f.String("expect-postcode", "", "diagnostic: expected postal code")
	f.String("expect-faith", "", "diagnostic: expected faith")
	_ = resolveCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Index.BaseURL == "" {
		return eris.New("index.base_url is required")
	}

	log := zap.L().With(zap.String("command", "resolve"))

	index := profileindex.NewClient(cfg.Index.BaseURL,
		profileindex.WithAPIKey(cfg.Index.APIKey),
		profileindex.WithIndex(cfg.Index.Index),
		profileindex.WithTemplateID(cfg.Index.TemplateID),
		profileindex.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Index.TimeoutSecs) * time.Second,
		}),
	)

	geocoder := nominatim.NewClient(
		nominatim.WithBaseURL(cfg.Geocoder.BaseURL),
		nominatim.WithUserAgent(cfg.Geocoder.UserAgent),
	)
	boundaries := boundary.NewResolver(geocoder,
		boundary.WithCountryCode(cfg.Geocoder.CountryCode),
		boundary.WithPause(time.Duration(cfg.Geocoder.PauseSecs*float64(time.Second))),
	)

	var dataset *postal.Dataset
	if cfg.Postal.DatasetPath != "" {
		var err error
		dataset, err = postal.LoadDataset(cfg.Postal.DatasetPath, cfg.Postal.CountryCode)
		if err != nil {
			return err
		}
	} else {
		log.Warn("no postal dataset configured; postal codes will not geo-filter")
	}

	resolver := match.NewResolver(
		match.NewRetriever(index, boundaries, dataset),
		match.WithEpsilon(cfg.Match.Epsilon),
		match.WithThreshold(cfg.Match.Threshold),
		match.WithRetryPolicy(resilience.Policy{
			MaxAttempts: cfg.Match.MaxAttempts,
			OnRetry:     resilience.Logger("profileindex", "search_template"),
		}),
	)

	q := match.Query{}
	flags := cmd.Flags()
	q.Name, _ = flags.GetString("name")
	q.PostalCode, _ = flags.GetString("postcode")
	q.Epsilon, _ = flags.GetFloat64("epsilon")
	if location, _ := flags.GetString("location"); location != "" {
		q.Boundary = &match.BoundarySpec{Text: location}
	}

	diag := diagnosticsFromFlags(cmd)

	result, outcome, err := resolver.Resolve(ctx, q, diag)
	if err != nil {
		return err
	}
	if result == nil {
		log.Info("no confident match", zap.String("outcome", outcome.String()))
		fmt.Fprintf(os.Stderr, "no confident match (%s)\n", outcome)
		return nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal result")
	}
	fmt.Println(string(out))
	return nil
}

func diagnosticsFromFlags(cmd *cobra.Command) *match.DiagnosticExpect {
	flags := cmd.Flags()
	diag := match.DiagnosticExpect{}
	diag.Denomination, _ = flags.GetString("expect-denomination")
	diag.PostalCode, _ = flags.GetString("expect-postcode")
	diag.Faith, _ = flags.GetString("expect-faith")
	if diag == (match.DiagnosticExpect{}) {
		return nil
	}
	return &diag
}
