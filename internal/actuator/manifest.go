package actuator

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"actuation/internal/model"
	"actuation/internal/storage"
)

// Manifest snapshots the finalized layout under a fresh id so it can be
// stored and matched by an external decision process. It finalizes the
// manager if needed.
func (m *Manager) Manifest(environment string) (model.LayoutManifest, error) {
	if err := m.ensureFinalized(); err != nil {
		return model.LayoutManifest{}, err
	}
	units := make([]model.UnitLayout, 0, len(m.layout))
	for i, l := range m.layout {
		units = append(units, model.UnitLayout{
			Name:             l.Name,
			Kind:             m.actuators[i].ActionSpec().Kind().String(),
			ContinuousOffset: l.ContinuousOffset,
			ContinuousLength: l.ContinuousLength,
			DiscreteOffset:   l.DiscreteOffset,
			DiscreteLength:   l.DiscreteLength,
			MaskOffset:       l.MaskOffset,
			BranchSizes:      slices.Clone(l.BranchSizes),
		})
	}
	return model.LayoutManifest{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:                       uuid.NewString(),
		Environment:              environment,
		CreatedAtUTC:             time.Now().UTC(),
		Units:                    units,
		NumContinuousActions:     m.numContinuousActions,
		NumDiscreteBranches:      m.numDiscreteBranches,
		SumOfDiscreteBranchSizes: m.sumOfDiscreteBranchSizes,
	}, nil
}
