package io

import "strings"

const (
	VectorActuatorAliasName        = "vector"
	ContinuousActionsAliasName     = "continuous_actions"
	BranchedActuatorAliasName      = "branched"
	MultiDiscreteActuatorAliasName = "multi_discrete"
	MixedActuatorAliasName         = "mixed"
	HybridActionSpaceAliasName     = "hybrid_action_space"
	PassiveActuatorAliasName       = "passive"
)

var actuatorAliasToCanonical = map[string]string{
	strings.ToLower(VectorActuatorAliasName):        ContinuousActuatorKind,
	strings.ToLower(ContinuousActionsAliasName):     ContinuousActuatorKind,
	strings.ToLower(BranchedActuatorAliasName):      DiscreteActuatorKind,
	strings.ToLower(MultiDiscreteActuatorAliasName): DiscreteActuatorKind,
	strings.ToLower(MixedActuatorAliasName):         HybridActuatorKind,
	strings.ToLower(HybridActionSpaceAliasName):     HybridActuatorKind,
	strings.ToLower(PassiveActuatorAliasName):       NullActuatorKind,
}

func CanonicalActuatorKind(kind string) string {
	trimmed := strings.TrimSpace(kind)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := actuatorAliasToCanonical[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}
