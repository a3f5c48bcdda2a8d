// Package prefs stores per-user, per-object-type field visibility
// preferences: an ordered list of visible api_names consumed by the
// relationship resolver and by list views.
package prefs

import (
	"context"
	"errors"

	"github.com/groblegark/krecords/internal/store"
)

// Provider answers which field api_names a user wants visible for an object
// type. A nil result with nil error means "no preference recorded"; the
// caller applies its own default.
type Provider interface {
	VisibleFields(ctx context.Context, userID, objectTypeID string) ([]string, error)
}

// StoreProvider is the store-backed Provider.
type StoreProvider struct {
	store store.Store
}

// New returns a store-backed preference provider.
func New(s store.Store) *StoreProvider {
	return &StoreProvider{store: s}
}

// VisibleFields returns the recorded preference, or (nil, nil) when the user
// has none for this object type.
func (p *StoreProvider) VisibleFields(ctx context.Context, userID, objectTypeID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	fields, err := p.store.GetVisibleFields(ctx, userID, objectTypeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return fields, nil
}

// SetVisibleFields records the preference, replacing any existing one.
func (p *StoreProvider) SetVisibleFields(ctx context.Context, userID, objectTypeID string, fields []string) error {
	return p.store.SetVisibleFields(ctx, userID, objectTypeID, fields)
}
