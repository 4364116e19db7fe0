package lattice

// Scheme closes the lattice at the domain edges after streaming. Apply runs
// on a single goroutine once every streaming band has finished, and each
// scheme writes its corner cells last.
type Scheme interface {
	Kind() SchemeKind
	Wrap() Wrap
	Apply(st *State)
}

// boundaryParams carries the run parameters the closures depend on.
type boundaryParams struct {
	model        *Model
	nx, ny       int
	rho0         float64
	omega        float64
	force        [2]float64
	inlet        float64
	inletDensity InletDensityMode
}

// newScheme builds the closure named by cfg.Scheme. cfg must be validated.
func newScheme(cfg Config, m *Model) (Scheme, error) {
	p := boundaryParams{
		model:        m,
		nx:           cfg.NX,
		ny:           cfg.NY,
		rho0:         cfg.Rho0,
		omega:        cfg.Omega(),
		force:        cfg.BodyForce,
		inlet:        cfg.InletVelocity,
		inletDensity: cfg.InletDensity,
	}
	switch cfg.Scheme {
	case SchemePeriodic:
		return periodicScheme{}, nil
	case SchemePeriodicBounceBack:
		return bounceBackScheme{p: p}, nil
	case SchemePeriodicZouHe:
		return zouHeWallScheme{p: p}, nil
	case SchemeProfileInletOutlet:
		return &profileScheme{p: p, corners: boxCorners(m, p.nx, p.ny)}, nil
	case SchemeZouHeInletPeriodic:
		return &inletRingScheme{p: p, corners: boxCorners(m, p.nx, p.ny)}, nil
	}
	return nil, invalidConfig("unknown boundary scheme %q", cfg.Scheme)
}

// periodicScheme is the fully periodic box; streaming alone closes it.
type periodicScheme struct{}

func (periodicScheme) Kind() SchemeKind { return SchemePeriodic }
func (periodicScheme) Wrap() Wrap       { return WrapBoth }
func (periodicScheme) Apply(*State)     {}

// bounceBackScheme is periodic in x with bounce-back walls on the first and
// last rows.
type bounceBackScheme struct{ p boundaryParams }

func (bounceBackScheme) Kind() SchemeKind { return SchemePeriodicBounceBack }
func (bounceBackScheme) Wrap() Wrap       { return WrapX }

func (s bounceBackScheme) Apply(st *State) {
	bounceBackWalls(s.p.model, st)
}

// zouHeWallScheme is periodic in x with exact Zou-He no-slip walls.
type zouHeWallScheme struct{ p boundaryParams }

func (zouHeWallScheme) Kind() SchemeKind { return SchemePeriodicZouHe }
func (zouHeWallScheme) Wrap() Wrap       { return WrapX }

func (s zouHeWallScheme) Apply(st *State) {
	zouHeWalls(st, s.p.force)
}

// profileScheme drives a parabolic inlet and an extrapolated outlet between
// bounce-back walls.
type profileScheme struct {
	p       boundaryParams
	corners []cornerRule
}

func (*profileScheme) Kind() SchemeKind { return SchemeProfileInletOutlet }
func (*profileScheme) Wrap() Wrap       { return WrapX }

func (s *profileScheme) Apply(st *State) {
	profileInlet(s.p, st)
	extrapolatedOutlet(s.p, st)
	bounceBackWalls(s.p.model, st)
	applyCorners(s.p.model, st, s.corners)
}

// inletRingScheme joins the interior columns into a periodic ring and injects
// a Zou-He velocity inlet at x=0.
type inletRingScheme struct {
	p       boundaryParams
	corners []cornerRule
}

func (*inletRingScheme) Kind() SchemeKind { return SchemeZouHeInletPeriodic }
func (*inletRingScheme) Wrap() Wrap       { return WrapX }

func (s *inletRingScheme) Apply(st *State) {
	ghostRing(st)
	zouHeInlet(s.p, st)
	bounceBackWalls(s.p.model, st)
	applyCorners(s.p.model, st, s.corners)
}

// gather copies the populations of cell idx into f.
func gather(st *State, idx int, f *[Q]float64) {
	for i := 0; i < Q; i++ {
		f[i] = st.F[i][idx]
	}
}

// scatter writes f back into cell idx.
func scatter(st *State, idx int, f *[Q]float64) {
	for i := 0; i < Q; i++ {
		st.F[i][idx] = f[i]
	}
}
