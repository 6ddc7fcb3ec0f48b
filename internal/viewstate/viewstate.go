// Package viewstate persists a user's chosen display mode and page size
// across visits.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shoplocal/directory-service/internal/cache"
	"github.com/shoplocal/directory-service/internal/domain"
	"github.com/shoplocal/directory-service/internal/log"
)

// ErrInvalidPreference rejects a save with an unknown display mode or a
// page size outside the allowed set.
var ErrInvalidPreference = errors.New("invalid view preference")

// Manager loads and saves view preferences. Mode and page size live
// under separate namespaced keys; anything stored that fails validation
// (including hand-edited garbage) falls back to the built-in default
// instead of leaking into UI state.
type Manager struct {
	store  cache.Store
	prefix string
}

func NewManager(store cache.Store, prefix string) *Manager {
	return &Manager{store: store, prefix: prefix}
}

func (m *Manager) modeKey(sessionID string) string {
	return fmt.Sprintf("%s:viewstate:%s:mode", m.prefix, sessionID)
}

func (m *Manager) sizeKey(sessionID string) string {
	return fmt.Sprintf("%s:viewstate:%s:page_size", m.prefix, sessionID)
}

// Load returns the stored preference, substituting defaults per field
// for anything missing or invalid. Load never fails.
func (m *Manager) Load(ctx context.Context, sessionID string) domain.ViewPreference {
	pref := domain.DefaultViewPreference()

	if raw, err := m.store.Get(ctx, m.modeKey(sessionID)); err == nil {
		if mode := string(raw); domain.ValidViewMode(mode) {
			pref.Mode = mode
		}
	} else if !errors.Is(err, cache.ErrNotFound) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("view mode read error")
	}

	if raw, err := m.store.Get(ctx, m.sizeKey(sessionID)); err == nil {
		if n, convErr := strconv.Atoi(string(raw)); convErr == nil && domain.ValidPageSize(n) {
			pref.PageSize = n
		}
	} else if !errors.Is(err, cache.ErrNotFound) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("page size read error")
	}

	return pref
}

// Save validates and stores the preference.
func (m *Manager) Save(ctx context.Context, sessionID string, pref domain.ViewPreference) error {
	if !domain.ValidViewMode(pref.Mode) {
		return fmt.Errorf("%w: mode %q", ErrInvalidPreference, pref.Mode)
	}
	if !domain.ValidPageSize(pref.PageSize) {
		return fmt.Errorf("%w: page size %d", ErrInvalidPreference, pref.PageSize)
	}

	if err := m.store.Set(ctx, m.modeKey(sessionID), []byte(pref.Mode)); err != nil {
		return fmt.Errorf("failed to save view mode: %w", err)
	}
	if err := m.store.Set(ctx, m.sizeKey(sessionID), []byte(strconv.Itoa(pref.PageSize))); err != nil {
		return fmt.Errorf("failed to save page size: %w", err)
	}
	return nil
}
