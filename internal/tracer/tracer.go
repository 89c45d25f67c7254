// Package tracer is the user-facing handle for one mass tracer.
//
// New obtains the stitched tables of a (model, tracer, steps) key through a
// loadsave.Obtainer, keeps private copies of them, and derives:
//
//   - sumy, abar and zbar columns on the columns table
//   - composition summed over A and over Z
//   - total heating, the time integral of the heating rate
//
// A Tracer is read-only after construction. Accessors return copies.
package tracer

import (
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/san-kum/nucleosynth/internal/analysis"
	"github.com/san-kum/nucleosynth/internal/loadsave"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/table"
)

// DefaultMass is the tracer mass in solar masses when none is given.
const DefaultMass = 0.01

var (
	ErrInvalidMass = errors.New("tracer: mass must be positive")
	ErrNoOutput    = errors.New("tracer: no SkyNet output for this tracer")
)

// Derived column names on the columns table.
const (
	SumY = "sumy"
	Abar = "abar"
	Zbar = "zbar"
)

type Tracer struct {
	key  paths.Key
	mass float64

	tables      map[table.Kind]*table.Table
	composition map[table.CompKind]*table.Table
	network     network.Network
	sums        map[table.CompKind]map[network.Group]*table.Table

	totalHeating float64
	hasHeating   bool

	state   loadsave.State
	path    string
	savedAt time.Time
	saveErr error
}

type options struct {
	reload bool
	save   bool
	mass   float64
	log    log.Interface
}

type Option func(*options)

// WithReload skips any cached artifact and extracts from raw output.
func WithReload(reload bool) Option {
	return func(o *options) { o.reload = reload }
}

// WithSave controls whether freshly extracted data is cached. Default true.
func WithSave(save bool) Option {
	return func(o *options) { o.save = save }
}

func WithMass(mass float64) Option {
	return func(o *options) { o.mass = mass }
}

func WithLogger(l log.Interface) Option {
	return func(o *options) { o.log = l }
}

// New builds the tracer for (model, id, steps).
func New(obtainer loadsave.Obtainer, model string, id int, steps []int, opts ...Option) (*Tracer, error) {
	o := options{save: true, mass: DefaultMass, log: log.Log}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mass <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidMass, o.mass)
	}

	key := paths.Key{Model: model, TracerID: id, Steps: append([]int(nil), steps...)}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	res, err := obtainer.Obtain(key, loadsave.Policy(o.reload), o.save)
	if err != nil {
		return nil, err
	}
	if !res.Key.Equal(key) {
		return nil, fmt.Errorf("tracer: obtained %s for %s", res.Key, key)
	}

	tr := &Tracer{
		key:         key,
		mass:        o.mass,
		tables:      make(map[table.Kind]*table.Table, len(res.Tables)),
		composition: make(map[table.CompKind]*table.Table, len(res.Composition)),
		network:     append(network.Network(nil), res.Network...),
		state:       res.State,
		path:        res.Path,
		savedAt:     res.SavedAt,
		saveErr:     res.SaveErr,
	}
	for k, t := range res.Tables {
		tr.tables[k] = t.Clone()
	}
	for k, t := range res.Composition {
		tr.composition[k] = t.Clone()
	}

	ctx := o.log.WithField("tracer", tr.Title())
	if err := tr.derive(); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if tr.endsEarly() {
		ctx.Warn("columns table ends before the stir table")
	}
	ctx.WithField("source", tr.state.String()).Debug("loaded")
	return tr, nil
}

func (tr *Tracer) derive() error {
	cols := tr.tables[table.Columns]
	y := tr.composition[table.Y]
	if cols == nil || y == nil {
		return nil
	}

	sumy, err := network.SumY(y, tr.network)
	if err != nil {
		return err
	}
	abar := make([]float64, len(sumy))
	for i, s := range sumy {
		abar[i] = 1 / s
	}
	ye, err := cols.Column("ye")
	if err != nil {
		return err
	}
	zbar, err := network.Zbar(ye, sumy)
	if err != nil {
		return err
	}
	for _, c := range []struct {
		name   string
		values []float64
	}{{SumY, sumy}, {Abar, abar}, {Zbar, zbar}} {
		if err := cols.AddColumn(c.name, c.values); err != nil {
			return err
		}
	}

	tr.sums = make(map[table.CompKind]map[network.Group]*table.Table)
	for kind, comp := range tr.composition {
		tr.sums[kind] = make(map[network.Group]*table.Table)
		for _, g := range []network.Group{network.GroupA, network.GroupZ} {
			s, err := network.Sums(comp, tr.network, g)
			if err != nil {
				return err
			}
			tr.sums[kind][g] = s
		}
	}

	if cols.Has(analysis.HeatingRate) {
		q, err := analysis.TotalHeating(cols)
		if err != nil {
			return err
		}
		tr.totalHeating, tr.hasHeating = q, true
	}
	return nil
}

func (tr *Tracer) Key() paths.Key {
	k := tr.key
	k.Steps = append([]int(nil), tr.key.Steps...)
	return k
}

func (tr *Tracer) Mass() float64 { return tr.mass }

// Title labels plots and summaries: "traj_s12.0, tracer_0".
func (tr *Tracer) Title() string {
	return fmt.Sprintf("%s, tracer_%d", tr.key.Model, tr.key.TracerID)
}

// Table returns a copy of the table of the given kind, nil when absent.
func (tr *Tracer) Table(kind table.Kind) *table.Table {
	if t := tr.tables[kind]; t != nil {
		return t.Clone()
	}
	return nil
}

// Kinds lists the table kinds present, in canonical order.
func (tr *Tracer) Kinds() []table.Kind {
	var out []table.Kind
	for _, k := range table.Kinds {
		if tr.tables[k] != nil {
			out = append(out, k)
		}
	}
	return out
}

func (tr *Tracer) Composition(kind table.CompKind) *table.Table {
	if t := tr.composition[kind]; t != nil {
		return t.Clone()
	}
	return nil
}

func (tr *Tracer) Network() network.Network {
	return append(network.Network(nil), tr.network...)
}

// Sums returns the composition of kind summed over A or Z.
func (tr *Tracer) Sums(kind table.CompKind, g network.Group) (*table.Table, error) {
	s := tr.sums[kind][g]
	if s == nil {
		return nil, ErrNoOutput
	}
	return s.Clone(), nil
}

// SelectNetwork returns the isotopes with the given Z and/or A; nil matches
// any.
func (tr *Tracer) SelectNetwork(z, a *int) network.Network {
	return tr.network.Select(z, a)
}

// SelectComposition returns the time column plus the composition columns of
// the isotopes matching z and/or a.
func (tr *Tracer) SelectComposition(kind table.CompKind, z, a *int) (*table.Table, error) {
	comp := tr.composition[kind]
	if comp == nil {
		return nil, ErrNoOutput
	}
	names := []string{table.Time}
	for _, iso := range tr.network.Select(z, a) {
		names = append(names, iso.Name)
	}
	cols := make([][]float64, len(names))
	for i, name := range names {
		c, err := comp.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = append([]float64(nil), c...)
	}
	return table.New(names, cols)
}

// TotalHeating is the heating rate integrated over the columns time range.
func (tr *Tracer) TotalHeating() (float64, error) {
	if !tr.hasHeating {
		return 0, ErrNoOutput
	}
	return tr.totalHeating, nil
}

// FreeExpansion reports whether the columns table covers the stir table's
// time span, i.e. the network ran through free expansion.
func (tr *Tracer) FreeExpansion() bool {
	cols, stir := tr.tables[table.Columns], tr.tables[table.Stir]
	if cols == nil || stir == nil {
		return false
	}
	cs, ce, ok1 := cols.TimeSpan()
	ss, se, ok2 := stir.TimeSpan()
	return ok1 && ok2 && cs <= ss && ce >= se
}

// endsEarly reports whether the network output stops before the trajectory
// does. A late start is normal: SkyNet picks up after the STIR run begins.
func (tr *Tracer) endsEarly() bool {
	cols, stir := tr.tables[table.Columns], tr.tables[table.Stir]
	if cols == nil || stir == nil {
		return false
	}
	_, ce, ok1 := cols.TimeSpan()
	_, se, ok2 := stir.TimeSpan()
	return ok1 && ok2 && ce < se
}

// Source is how the data was obtained.
func (tr *Tracer) Source() loadsave.State { return tr.state }

// Path is the cache artifact location, empty when nothing was read or
// written.
func (tr *Tracer) Path() string { return tr.path }

func (tr *Tracer) SavedAt() time.Time { return tr.savedAt }

// SaveErr is the cache write failure, if persisting was requested and failed.
func (tr *Tracer) SaveErr() error { return tr.saveErr }
