package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"actuation/internal/config"
	"actuation/internal/logging"
	"actuation/internal/platform/otel"
	api "actuation/pkg/actuation"
)

const serviceName = "actuatorctl"

var stdout io.Writer = os.Stdout

type app struct {
	cfg    config.Config
	logger logging.Logger
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		config.Exitf("%v", err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	if err != nil {
		return err
	}
	shutdown, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("trace shutdown failed", "error", err)
		}
	}()

	a := app{cfg: cfg, logger: logger}
	switch args[0] {
	case "kinds":
		return a.runKinds(ctx, args[1:])
	case "layout":
		return a.runLayout(ctx, args[1:])
	case "manifests":
		return a.runManifests(ctx, args[1:])
	case "simulate":
		return a.runSimulate(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type clientFlags struct {
	logger         logging.Logger
	storeKind      *string
	dbPath         *string
	environment    *string
	skipValidation *bool
	strict         *bool
}

// registerClientFlags adds the flags shared by every subcommand that needs a
// client. Defaults come from the environment config.
func (a app) registerClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		logger:         a.logger,
		storeKind:      fs.String("store", a.cfg.StoreKind, "store backend: memory|sqlite"),
		dbPath:         fs.String("db-path", a.cfg.DBPath, "sqlite database path"),
		environment:    fs.String("env", a.cfg.Environment, "environment the actuators run in"),
		skipValidation: fs.Bool("skip-validation", a.cfg.SkipValidation, "skip the action kind check at finalization"),
		strict:         fs.Bool("strict", false, "reject layouts mixing continuous-only and discrete actuators"),
	}
}

func (f clientFlags) newClient() (*api.Client, error) {
	return api.New(api.Options{
		StoreKind:         *f.storeKind,
		DBPath:            *f.dbPath,
		Environment:       *f.environment,
		SkipValidation:    *f.skipValidation,
		StrictActionKinds: *f.strict,
		Logger:            f.logger,
	})
}

func (a app) runKinds(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("kinds", flag.ContinueOnError)
	clientOpts := a.registerClientFlags(fs)
	jsonOut := fs.Bool("json", false, "emit kinds as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := clientOpts.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	kinds := client.Kinds()
	if *jsonOut {
		type kindItem struct {
			Kind        string `json:"kind"`
			Description string `json:"description"`
		}
		items := make([]kindItem, 0, len(kinds))
		for _, k := range kinds {
			items = append(items, kindItem{Kind: k.Kind, Description: k.Description})
		}
		return writeJSON(items)
	}
	for _, k := range kinds {
		fmt.Fprintf(stdout, "kind=%s description=%q\n", k.Kind, k.Description)
	}
	return nil
}

func (a app) runLayout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	clientOpts := a.registerClientFlags(fs)
	var unitFlags, maskFlags stringList
	fs.Var(&unitFlags, "unit", "actuator as name=kind:shape (repeatable)")
	fs.Var(&maskFlags, "mask", "static mask as name:branch=c1,c2 (repeatable)")
	save := fs.Bool("save", false, "store the layout manifest")
	jsonOut := fs.Bool("json", false, "emit the manifest as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	units, err := unitsFromFlags(unitFlags, maskFlags, nil)
	if err != nil {
		return err
	}

	client, err := clientOpts.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Layout(ctx, api.LayoutRequest{Units: units, Save: *save})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(summary.Manifest)
	}
	m := summary.Manifest
	fmt.Fprintf(stdout, "manifest=%s environment=%s saved=%t continuous=%d branches=%d mask=%d total=%d\n",
		m.ID, m.Environment, summary.Saved,
		m.NumContinuousActions, m.NumDiscreteBranches, m.SumOfDiscreteBranchSizes, m.TotalNumberOfActions())
	for _, u := range m.Units {
		fmt.Fprintf(stdout, "unit=%s kind=%s continuous=%d+%d discrete=%d+%d mask_offset=%d branches=%s\n",
			u.Name, u.Kind, u.ContinuousOffset, u.ContinuousLength,
			u.DiscreteOffset, u.DiscreteLength, u.MaskOffset, formatInts(u.BranchSizes))
	}
	return nil
}

func (a app) runManifests(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("manifests", flag.ContinueOnError)
	clientOpts := a.registerClientFlags(fs)
	limit := fs.Int("limit", 20, "max manifests to list")
	all := fs.Bool("all", false, "list manifests of every environment")
	id := fs.String("id", "", "show a single manifest")
	deleteID := fs.String("delete", "", "delete a manifest")
	jsonOut := fs.Bool("json", false, "emit manifests as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := clientOpts.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	switch {
	case *deleteID != "":
		if err := client.DeleteManifest(ctx, *deleteID); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted manifest=%s\n", *deleteID)
		return nil
	case *id != "":
		m, err := client.Manifest(ctx, *id)
		if err != nil {
			return err
		}
		return writeJSON(m)
	}

	environment := *clientOpts.environment
	if *all {
		environment = ""
	}
	manifests, err := client.Manifests(ctx, api.ManifestsRequest{Environment: environment, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(manifests)
	}
	if len(manifests) == 0 {
		fmt.Fprintln(stdout, "no manifests found")
		return nil
	}
	for _, m := range manifests {
		fmt.Fprintf(stdout, "manifest=%s environment=%s created_at=%s units=%d total=%d\n",
			m.ID, m.Environment, m.CreatedAtUTC.Format(time.RFC3339), len(m.Units), m.TotalNumberOfActions())
	}
	return nil
}

func (a app) runSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	clientOpts := a.registerClientFlags(fs)
	var unitFlags, maskFlags, heuristicFlags stringList
	fs.Var(&unitFlags, "unit", "actuator as name=kind:shape (repeatable)")
	fs.Var(&maskFlags, "mask", "static mask as name:branch=c1,c2 (repeatable)")
	fs.Var(&heuristicFlags, "heuristic", "packed heuristic actions as name=v1,v2 (repeatable)")
	steps := fs.Int("steps", 1, "decision steps to run")
	source := fs.String("source", "random", "decision source: random|heuristic")
	seed := fs.Int64("seed", 1, "random source seed")
	jsonOut := fs.Bool("json", false, "emit steps as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps <= 0 {
		return errors.New("steps must be > 0")
	}

	units, err := unitsFromFlags(unitFlags, maskFlags, heuristicFlags)
	if err != nil {
		return err
	}

	client, err := clientOpts.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Simulate(ctx, api.SimulateRequest{
		Units:  units,
		Steps:  *steps,
		Source: *source,
		Seed:   *seed,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		type stepItem struct {
			Step       int       `json:"step"`
			Continuous []float32 `json:"continuous"`
			Discrete   []int32   `json:"discrete"`
			Mask       []bool    `json:"mask,omitempty"`
		}
		items := make([]stepItem, 0, len(summary.Steps))
		for _, s := range summary.Steps {
			items = append(items, stepItem{Step: s.Step, Continuous: s.Continuous, Discrete: s.Discrete, Mask: s.Mask})
		}
		return writeJSON(items)
	}
	for _, s := range summary.Steps {
		for _, l := range summary.Layout {
			fmt.Fprintf(stdout, "step=%d unit=%s continuous=%s discrete=%s\n",
				s.Step, l.Name,
				formatFloats(s.Continuous[l.ContinuousOffset:l.ContinuousOffset+l.ContinuousLength]),
				formatInt32s(s.Discrete[l.DiscreteOffset:l.DiscreteOffset+l.DiscreteLength]))
		}
	}
	for _, u := range summary.Final {
		fmt.Fprintf(stdout, "final unit=%s continuous=%s discrete=%s\n",
			u.Name, formatFloats(u.Continuous), formatInt32s(u.Discrete))
	}
	return nil
}

func unitsFromFlags(unitFlags, maskFlags, heuristicFlags []string) ([]api.UnitRequest, error) {
	if len(unitFlags) == 0 {
		return nil, errors.New("at least one -unit is required")
	}
	units := make([]api.UnitRequest, 0, len(unitFlags))
	for _, raw := range unitFlags {
		u, err := parseUnit(raw)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if err := applyMasks(units, maskFlags); err != nil {
		return nil, err
	}
	if err := applyHeuristics(units, heuristicFlags); err != nil {
		return nil, err
	}
	return units, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ",")
}

func formatInt32s(values []int32) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ",")
}

func formatFloats(values []float32) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return strings.Join(parts, ",")
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: actuatorctl <kinds|layout|manifests|simulate> [flags]", msg)
}
