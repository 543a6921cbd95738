package actuation

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"actuation/internal/actions"
	"actuation/internal/actuator"
	"actuation/internal/agent"
	protoio "actuation/internal/io"
	"actuation/internal/logging"
	"actuation/internal/model"
	"actuation/internal/storage"
)

const (
	defaultDBPath      = "actuation.db"
	defaultEnvironment = "default"
	defaultSteps       = 1
)

type (
	Segment[T actions.Element] = actions.Segment[T]
	Buffers                    = actions.Buffers
	Spec                       = actions.Spec
	DiscreteActionMask         = actions.DiscreteActionMask
	MaskWriter                 = actions.MaskWriter
	Actuator                   = protoio.Actuator
	HeuristicProvider          = protoio.HeuristicProvider
	Manager                    = actuator.Manager
	ManagerOptions             = actuator.Options
	UnitLayout                 = actuator.UnitLayout
	LayoutManifest             = model.LayoutManifest
	Decision                   = agent.Decision
	DecisionRequest            = agent.DecisionRequest
	DecisionSource             = agent.DecisionSource
)

var (
	NewManager     = actuator.NewManager
	MakeContinuous = actions.MakeContinuous
	MakeDiscrete   = actions.MakeDiscrete
	CombineSpecs   = actions.Combine
	NewBuffers     = actions.NewBuffers
	EmptyBuffers   = actions.EmptyBuffers

	ErrFinalized          = actuator.ErrFinalized
	ErrActionSizeMismatch = actuator.ErrActionSizeMismatch
	ErrDuplicateName      = actuator.ErrDuplicateName
)

type Options struct {
	StoreKind      string
	DBPath         string
	Environment    string
	SkipValidation bool
	// StrictActionKinds rejects layouts that mix purely continuous actuators
	// with discrete ones.
	StrictActionKinds bool
	Logger            logging.Logger
}

type Client struct {
	store             storage.Store
	environment       string
	skipValidation    bool
	strictActionKinds bool
	logger            logging.Logger
}

// UnitRequest describes one actuator to build from the kind registry.
type UnitRequest struct {
	Name string
	Kind string
	Spec Spec
	// Disallow lists choices masked on every step, keyed by local branch.
	Disallow map[int][]int
	// Heuristic holds the packed actions the unit suggests when asked.
	Heuristic []float32
}

type LayoutRequest struct {
	Units []UnitRequest
	Save  bool
}

type LayoutSummary struct {
	Manifest LayoutManifest
	Saved    bool
}

type ManifestsRequest struct {
	Environment string
	Limit       int
}

type KindItem struct {
	Kind        string
	Description string
}

type SimulateRequest struct {
	Units []UnitRequest
	Steps int
	// Source is "random" or "heuristic".
	Source string
	Seed   int64
}

type StepRecord struct {
	Step       int
	Continuous []float32
	Discrete   []int32
	Mask       []bool
}

// UnitActions is what one actuator last received.
type UnitActions struct {
	Name       string
	Continuous []float32
	Discrete   []int32
}

type SimulateSummary struct {
	Layout []UnitLayout
	Steps  []StepRecord
	// Final holds the last actions of every unit that can report them, in
	// layout order, captured before the episode is reset.
	Final []UnitActions
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	environment := opts.Environment
	if environment == "" {
		environment = defaultEnvironment
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:             store,
		environment:       environment,
		skipValidation:    opts.SkipValidation,
		strictActionKinds: opts.StrictActionKinds,
		logger:            logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Kinds lists the actuator kinds usable in the client's environment.
func (c *Client) Kinds() []KindItem {
	kinds := protoio.ListActuatorsForEnvironment(c.environment)
	out := make([]KindItem, 0, len(kinds))
	for _, kind := range kinds {
		description, _ := protoio.DescribeActuator(kind)
		out = append(out, KindItem{Kind: kind, Description: description})
	}
	return out
}

// Compose builds every requested unit and adds it to a new manager. The
// manager is not finalized.
func (c *Client) Compose(units []UnitRequest) (*Manager, error) {
	m := actuator.NewManager(func(o *actuator.Options) {
		o.Logger = c.logger
		o.SkipValidation = c.skipValidation
		o.AllowHybridActions = !c.strictActionKinds
		o.Capacity = len(units)
	})
	for _, unit := range units {
		a, err := c.buildUnit(unit)
		if err != nil {
			return nil, err
		}
		if err := m.Add(a); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (c *Client) buildUnit(unit UnitRequest) (Actuator, error) {
	if unit.Name == "" {
		return nil, errors.New("unit name is required")
	}
	a, err := protoio.ResolveActuator(unit.Kind, unit.Name, c.environment, unit.Spec)
	if err != nil {
		return nil, err
	}

	if len(unit.Disallow) > 0 {
		masker, ok := a.(interface {
			DisallowChoices(branch int, choices ...int) error
		})
		if !ok {
			return nil, fmt.Errorf("actuator %s (%s) does not support static masks", unit.Name, unit.Kind)
		}
		branches := make([]int, 0, len(unit.Disallow))
		for b := range unit.Disallow {
			branches = append(branches, b)
		}
		slices.Sort(branches)
		for _, b := range branches {
			if err := masker.DisallowChoices(b, unit.Disallow[b]...); err != nil {
				return nil, err
			}
		}
	}

	if len(unit.Heuristic) > 0 {
		h, ok := a.(interface {
			SetHeuristic(continuous []float32, discrete []int32)
		})
		if !ok {
			return nil, fmt.Errorf("actuator %s (%s) does not support heuristics", unit.Name, unit.Kind)
		}
		n := unit.Spec.NumContinuousActions
		if len(unit.Heuristic) != n+unit.Spec.NumDiscreteBranches() {
			return nil, fmt.Errorf("%w: unit %s heuristic has %d values, want %d",
				ErrActionSizeMismatch, unit.Name, len(unit.Heuristic), n+unit.Spec.NumDiscreteBranches())
		}
		discrete := make([]int32, 0, len(unit.Heuristic)-n)
		for _, v := range unit.Heuristic[n:] {
			discrete = append(discrete, int32(v))
		}
		h.SetHeuristic(unit.Heuristic[:n], discrete)
	}
	return a, nil
}

// Layout composes and finalizes the units and optionally stores the
// resulting manifest.
func (c *Client) Layout(ctx context.Context, req LayoutRequest) (LayoutSummary, error) {
	m, err := c.Compose(req.Units)
	if err != nil {
		return LayoutSummary{}, err
	}
	manifest, err := m.Manifest(c.environment)
	if err != nil {
		return LayoutSummary{}, err
	}
	if !req.Save {
		return LayoutSummary{Manifest: manifest}, nil
	}
	if err := c.store.SaveManifest(ctx, manifest); err != nil {
		return LayoutSummary{}, fmt.Errorf("save manifest: %w", err)
	}
	c.logger.Info("layout manifest saved", "id", manifest.ID, "environment", manifest.Environment, "units", len(manifest.Units))
	return LayoutSummary{Manifest: manifest, Saved: true}, nil
}

// Manifests lists stored manifests, newest first.
func (c *Client) Manifests(ctx context.Context, req ManifestsRequest) ([]LayoutManifest, error) {
	manifests, err := c.store.ListManifests(ctx, req.Environment)
	if err != nil {
		return nil, err
	}
	slices.Reverse(manifests)
	if req.Limit > 0 && len(manifests) > req.Limit {
		manifests = manifests[:req.Limit]
	}
	return manifests, nil
}

func (c *Client) Manifest(ctx context.Context, id string) (LayoutManifest, error) {
	manifest, ok, err := c.store.GetManifest(ctx, id)
	if err != nil {
		return LayoutManifest{}, err
	}
	if !ok {
		return LayoutManifest{}, fmt.Errorf("manifest not found: %s", id)
	}
	return manifest, nil
}

func (c *Client) DeleteManifest(ctx context.Context, id string) error {
	return c.store.DeleteManifest(ctx, id)
}

// Simulate runs the units through the step protocol with a built-in
// decision source and records what was decided.
func (c *Client) Simulate(ctx context.Context, req SimulateRequest) (SimulateSummary, error) {
	if req.Steps <= 0 {
		req.Steps = defaultSteps
	}
	m, err := c.Compose(req.Units)
	if err != nil {
		return SimulateSummary{}, err
	}
	if err := m.Finalize(); err != nil {
		return SimulateSummary{}, err
	}

	var source DecisionSource
	switch req.Source {
	case "", "random":
		source = agent.NewRandomSource(req.Seed)
	case "heuristic":
		source = agent.NewHeuristicSource(m)
	default:
		return SimulateSummary{}, fmt.Errorf("unsupported decision source: %s", req.Source)
	}

	recorder := &recordingSource{next: source}
	cortex, err := agent.NewCortex("simulate", m, recorder)
	if err != nil {
		return SimulateSummary{}, err
	}
	if _, err := cortex.Run(ctx, req.Steps); err != nil {
		return SimulateSummary{}, err
	}
	final := lastActions(m)
	cortex.EndEpisode()

	return SimulateSummary{Layout: m.Layout(), Steps: recorder.steps, Final: final}, nil
}

func lastActions(m *Manager) []UnitActions {
	out := make([]UnitActions, 0, m.Len())
	for _, a := range m.All() {
		snap, ok := a.(protoio.SnapshotActuator)
		if !ok {
			continue
		}
		last := snap.Last()
		out = append(out, UnitActions{
			Name:       a.Name(),
			Continuous: last.Continuous.Slice(),
			Discrete:   last.Discrete.Slice(),
		})
	}
	return out
}

type recordingSource struct {
	next  DecisionSource
	steps []StepRecord
}

func (r *recordingSource) Decide(ctx context.Context, req DecisionRequest) (Decision, error) {
	d, err := r.next.Decide(ctx, req)
	if err != nil {
		return Decision{}, err
	}
	r.steps = append(r.steps, StepRecord{
		Step:       req.Step,
		Continuous: slices.Clone(d.Continuous),
		Discrete:   slices.Clone(d.Discrete),
		Mask:       slices.Clone(req.Mask),
	})
	return d, nil
}
