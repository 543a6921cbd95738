package storage

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"actuation/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var (
	ErrVersionMismatch = errors.New("record version mismatch")
	ErrInvalidManifest = errors.New("invalid layout manifest")
)

func EncodeManifest(m model.LayoutManifest) ([]byte, error) {
	if err := validateManifest(m); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func DecodeManifest(data []byte) (model.LayoutManifest, error) {
	var manifest model.LayoutManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return model.LayoutManifest{}, err
	}
	if err := checkVersion(manifest.VersionedRecord); err != nil {
		return model.LayoutManifest{}, err
	}
	if err := validateManifest(manifest); err != nil {
		return model.LayoutManifest{}, err
	}
	return manifest, nil
}

// validateManifest checks that the unit table tiles the flat stores exactly.
func validateManifest(m model.LayoutManifest) error {
	if m.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidManifest)
	}
	continuous, discrete, mask := 0, 0, 0
	for _, u := range m.Units {
		if u.ContinuousOffset != continuous || u.DiscreteOffset != discrete || u.MaskOffset != mask {
			return fmt.Errorf("%w: unit %s offsets continuous=%d discrete=%d mask=%d, want %d %d %d",
				ErrInvalidManifest, u.Name, u.ContinuousOffset, u.DiscreteOffset, u.MaskOffset, continuous, discrete, mask)
		}
		if len(u.BranchSizes) != u.DiscreteLength {
			return fmt.Errorf("%w: unit %s has %d branch sizes for %d branches",
				ErrInvalidManifest, u.Name, len(u.BranchSizes), u.DiscreteLength)
		}
		continuous += u.ContinuousLength
		discrete += u.DiscreteLength
		for _, size := range u.BranchSizes {
			mask += size
		}
	}
	if continuous != m.NumContinuousActions || discrete != m.NumDiscreteBranches || mask != m.SumOfDiscreteBranchSizes {
		return fmt.Errorf("%w: units sum to continuous=%d discrete=%d mask=%d, totals are %d %d %d",
			ErrInvalidManifest, continuous, discrete, mask,
			m.NumContinuousActions, m.NumDiscreteBranches, m.SumOfDiscreteBranchSizes)
	}
	return nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

func cloneManifest(m model.LayoutManifest) model.LayoutManifest {
	m.Units = slices.Clone(m.Units)
	for i := range m.Units {
		m.Units[i].BranchSizes = slices.Clone(m.Units[i].BranchSizes)
	}
	return m
}

func sortManifests(manifests []model.LayoutManifest) {
	slices.SortFunc(manifests, func(a, b model.LayoutManifest) int {
		if c := a.CreatedAtUTC.Compare(b.CreatedAtUTC); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
