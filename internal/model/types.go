package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// UnitLayout records where one actuator's actions sit in the flat stores.
type UnitLayout struct {
	Name             string `json:"name"`
	Kind             string `json:"kind,omitempty"`
	ContinuousOffset int    `json:"continuous_offset"`
	ContinuousLength int    `json:"continuous_length"`
	DiscreteOffset   int    `json:"discrete_offset"`
	DiscreteLength   int    `json:"discrete_length"`
	MaskOffset       int    `json:"mask_offset"`
	BranchSizes      []int  `json:"branch_sizes,omitempty"`
}

// LayoutManifest is a finalized actuator layout. It never carries action
// values.
type LayoutManifest struct {
	VersionedRecord
	ID                       string       `json:"id"`
	Environment              string       `json:"environment"`
	CreatedAtUTC             time.Time    `json:"created_at_utc"`
	Units                    []UnitLayout `json:"units"`
	NumContinuousActions     int          `json:"num_continuous_actions"`
	NumDiscreteBranches      int          `json:"num_discrete_branches"`
	SumOfDiscreteBranchSizes int          `json:"sum_of_discrete_branch_sizes"`
}

// TotalNumberOfActions is the length of the packed action vector.
func (m LayoutManifest) TotalNumberOfActions() int {
	return m.NumContinuousActions + m.NumDiscreteBranches
}

// Unit returns the layout of the unit called name.
func (m LayoutManifest) Unit(name string) (UnitLayout, bool) {
	for _, u := range m.Units {
		if u.Name == name {
			return u, true
		}
	}
	return UnitLayout{}, false
}
