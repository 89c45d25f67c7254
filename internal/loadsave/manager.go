// Package loadsave implements load-or-extract-then-save for tracer data.
//
// Obtain either returns the cached artifact for a key or extracts every
// requested step from raw output, stitches the steps into one time-ordered
// table per kind, and optionally persists the result:
//
//	NotLoaded -> LoadedFromCache
//	NotLoaded -> Extracting -> Stitched -> Saved | StitchedUnsaved
//
// A corrupt artifact is an error, not a reason to rebuild. A failed save is
// reported alongside the result and never discards it.
package loadsave

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/san-kum/nucleosynth/internal/catalog"
	"github.com/san-kum/nucleosynth/internal/extract"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/storage"
	"github.com/san-kum/nucleosynth/internal/table"
)

// Result is the stitched data for one key.
type Result struct {
	Key         paths.Key
	Tables      map[table.Kind]*table.Table
	Composition map[table.CompKind]*table.Table
	Network     network.Network
	State       State
	// Path is the artifact location, set when loaded or saved.
	Path    string
	SavedAt time.Time
	// SaveErr is a *CacheWriteError when persisting failed.
	SaveErr error
}

// Obtainer is what the tracer entity needs from a Manager.
type Obtainer interface {
	Obtain(key paths.Key, policy CachePolicy, persist bool) (*Result, error)
}

type Manager struct {
	extractor extract.Extractor
	store     *storage.Store
	catalog   *catalog.Catalog
	log       log.Interface
	now       func() time.Time
}

type Option func(*Manager)

func WithLogger(l log.Interface) Option {
	return func(m *Manager) { m.log = l }
}

// WithCatalog records every saved artifact in c.
func WithCatalog(c *catalog.Catalog) Option {
	return func(m *Manager) { m.catalog = c }
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(extractor extract.Extractor, store *storage.Store, opts ...Option) *Manager {
	m := &Manager{
		extractor: extractor,
		store:     store,
		log:       log.Log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Obtain(key paths.Key, policy CachePolicy, persist bool) (*Result, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	ctx := m.log.WithFields(log.Fields{"key": key.String(), "policy": policy.String()})

	if policy == UseCacheIfPresent {
		snap, ok, err := m.store.Load(key)
		if err != nil {
			return nil, err
		}
		if ok {
			path, _ := m.store.Path(key)
			ctx.WithField("path", path).Debug("loaded from cache")
			return &Result{
				Key:         key,
				Tables:      snap.Tables,
				Composition: snap.Composition,
				Network:     snap.Network,
				State:       LoadedFromCache,
				Path:        path,
				SavedAt:     snap.SavedAt,
			}, nil
		}
		ctx.Debug("cache miss")
	}

	if err := checkOrder(key.Steps); err != nil {
		return nil, err
	}

	parts := make([]*extract.StepData, 0, len(key.Steps))
	for _, step := range key.Steps {
		data, err := m.extractor.Extract(key.Model, key.TracerID, step)
		if err != nil {
			return nil, err
		}
		parts = append(parts, data)
	}

	s, err := stitch(parts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	ctx.WithField("rows", s.tables[table.Stir].Len()).Info("extracted")

	res := &Result{
		Key:         key,
		Tables:      s.tables,
		Composition: s.composition,
		Network:     s.network,
		State:       StitchedUnsaved,
	}
	if !persist {
		return res, nil
	}

	snap := &storage.Snapshot{
		Key:         key,
		SavedAt:     m.now().UTC(),
		Network:     s.network,
		Tables:      s.tables,
		Composition: s.composition,
	}
	path, size, err := m.store.Save(snap)
	if err != nil {
		res.SaveErr = &CacheWriteError{Key: key, Path: path, Err: err}
		ctx.WithError(err).Warn("failed to save cache artifact")
		return res, nil
	}
	res.State = Saved
	res.Path = path
	res.SavedAt = snap.SavedAt
	ctx.WithFields(log.Fields{"path": path, "bytes": size}).Info("saved")

	if m.catalog != nil {
		entry := catalog.Entry{Key: key, Path: path, Rows: snap.Rows(), Bytes: size, SavedAt: snap.SavedAt}
		if err := m.catalog.Record(context.Background(), entry); err != nil {
			// The artifact is already on disk; only the index is stale.
			ctx.WithError(err).Warn("failed to record artifact in catalog")
		}
	}
	return res, nil
}
