package main

import (
	"fmt"
	"strconv"
	"strings"

	protoio "actuation/internal/io"
	api "actuation/pkg/actuation"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, " ")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parseUnit reads "name=kind:shape". The shape depends on the kind:
//
//	continuous  N          three continuous actions: "3"
//	discrete    B1,B2,...  branch sizes: "3,2"
//	hybrid      N/B1,...   "1/3,2"
//	null        empty
//
// Any kind accepts the explicit "N/B1,..." form.
func parseUnit(raw string) (api.UnitRequest, error) {
	name, rest, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return api.UnitRequest{}, fmt.Errorf("invalid unit %q: want name=kind:shape", raw)
	}
	kind, shape, _ := strings.Cut(rest, ":")
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return api.UnitRequest{}, fmt.Errorf("invalid unit %q: kind is required", raw)
	}
	spec, err := parseShape(protoio.CanonicalActuatorKind(kind), strings.TrimSpace(shape))
	if err != nil {
		return api.UnitRequest{}, fmt.Errorf("invalid unit %q: %w", raw, err)
	}
	return api.UnitRequest{Name: name, Kind: kind, Spec: spec}, nil
}

func parseShape(kind, shape string) (api.Spec, error) {
	if shape == "" {
		return api.Spec{}, nil
	}
	if continuous, branches, ok := strings.Cut(shape, "/"); ok {
		n, err := parseCount(continuous)
		if err != nil {
			return api.Spec{}, err
		}
		sizes, err := parseInts(branches)
		if err != nil {
			return api.Spec{}, err
		}
		return api.Spec{NumContinuousActions: n, BranchSizes: sizes}, nil
	}
	switch kind {
	case protoio.DiscreteActuatorKind:
		sizes, err := parseInts(shape)
		if err != nil {
			return api.Spec{}, err
		}
		return api.MakeDiscrete(sizes...), nil
	default:
		n, err := parseCount(shape)
		if err != nil {
			return api.Spec{}, err
		}
		return api.MakeContinuous(n), nil
	}
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return n, nil
}

func parseInts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloats(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

// applyMasks reads "name:branch=c1,c2" entries into the matching units.
func applyMasks(units []api.UnitRequest, masks []string) error {
	for _, raw := range masks {
		target, choices, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("invalid mask %q: want name:branch=c1,c2", raw)
		}
		name, branchRaw, ok := strings.Cut(target, ":")
		if !ok {
			return fmt.Errorf("invalid mask %q: want name:branch=c1,c2", raw)
		}
		branch, err := strconv.Atoi(strings.TrimSpace(branchRaw))
		if err != nil {
			return fmt.Errorf("invalid mask %q: bad branch", raw)
		}
		values, err := parseInts(choices)
		if err != nil {
			return fmt.Errorf("invalid mask %q: %w", raw, err)
		}
		i, err := unitIndex(units, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		if units[i].Disallow == nil {
			units[i].Disallow = make(map[int][]int)
		}
		units[i].Disallow[branch] = append(units[i].Disallow[branch], values...)
	}
	return nil
}

// applyHeuristics reads "name=v1,v2" entries holding packed actions.
func applyHeuristics(units []api.UnitRequest, heuristics []string) error {
	for _, raw := range heuristics {
		name, values, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("invalid heuristic %q: want name=v1,v2", raw)
		}
		parsed, err := parseFloats(values)
		if err != nil {
			return fmt.Errorf("invalid heuristic %q: %w", raw, err)
		}
		i, err := unitIndex(units, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		units[i].Heuristic = parsed
	}
	return nil
}

func unitIndex(units []api.UnitRequest, name string) (int, error) {
	for i, u := range units {
		if u.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown unit: %s", name)
}
