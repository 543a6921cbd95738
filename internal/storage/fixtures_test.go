package storage

import (
	"path/filepath"
	"time"

	"actuation/internal/model"
)

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

// sampleManifest is the layout of "a" with two continuous actions next to
// "b" with one continuous action and branches [3, 2].
func sampleManifest(id, environment string, createdAt time.Time) model.LayoutManifest {
	return model.LayoutManifest{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		Environment:     environment,
		CreatedAtUTC:    createdAt.UTC(),
		Units: []model.UnitLayout{
			{Name: "a", Kind: "continuous", ContinuousLength: 2},
			{
				Name:             "b",
				Kind:             "discrete",
				ContinuousOffset: 2,
				ContinuousLength: 1,
				DiscreteLength:   2,
				BranchSizes:      []int{3, 2},
			},
		},
		NumContinuousActions:     3,
		NumDiscreteBranches:      2,
		SumOfDiscreteBranchSizes: 5,
	}
}

func manifestIDs(manifests []model.LayoutManifest) []string {
	ids := make([]string, 0, len(manifests))
	for _, m := range manifests {
		ids = append(ids, m.ID)
	}
	return ids
}
