package storage

import (
	"context"

	"actuation/internal/model"
)

// Store persists finalized actuator layouts.
type Store interface {
	Init(ctx context.Context) error
	SaveManifest(ctx context.Context, manifest model.LayoutManifest) error
	GetManifest(ctx context.Context, id string) (model.LayoutManifest, bool, error)
	// ListManifests returns manifests oldest first, optionally restricted to
	// one environment. An empty environment lists all of them.
	ListManifests(ctx context.Context, environment string) ([]model.LayoutManifest, error)
	DeleteManifest(ctx context.Context, id string) error
}
