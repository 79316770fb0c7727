package planner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/malla/core/academic"
	"github.com/trezcool/malla/core/projection"
)

type (
	Service interface {
		// Start loads the student's data and opens a manual planning session.
		Start(ctx context.Context, sess SessionContext) (*Session, error)
		Session(id, owner string) (*Session, error)
		Abandon(id, owner string) error
		// Save persists the finalized plan of a session. On failure the plan stays in the
		// session so that saving can be retried.
		Save(ctx context.Context, id, owner, name string) (projection.Projection, error)
		// Auto builds the automatic plan; it is stored only when save is true.
		Auto(ctx context.Context, sess SessionContext, name string, save bool) (projection.Projection, error)
		Curriculum(ctx context.Context, sess SessionContext) (Progress, error)
	}

	service struct {
		loader   *Loader
		projSvc  projection.Service
		sessions *SessionStore
		opts     Options
	}
)

var _ Service = (*service)(nil)

func NewService(
	curricula academic.CurriculumProvider,
	completion academic.CompletionProvider,
	projSvc projection.Service,
	sessions *SessionStore,
	opts Options,
) Service {
	return &service{
		loader:   NewLoader(curricula, completion),
		projSvc:  projSvc,
		sessions: sessions,
		opts:     opts.withDefaults(),
	}
}

func (svc *service) Start(ctx context.Context, sess SessionContext) (*Session, error) {
	data, err := svc.loader.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	sim := NewSimulator(sess, data.Curriculum, data.State, svc.opts)
	s := newSession(sess.StudentID, sim, svc.opts.Now())
	svc.sessions.Add(s)
	return s, nil
}

func (svc *service) Session(id, owner string) (*Session, error) {
	return svc.sessions.Get(id, owner)
}

func (svc *service) Abandon(id, owner string) error {
	return svc.sessions.Remove(id, owner)
}

func (svc *service) Save(ctx context.Context, id, owner, name string) (projection.Projection, error) {
	s, err := svc.sessions.Get(id, owner)
	if err != nil {
		return projection.Projection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved != nil {
		return *s.saved, nil
	}
	plan, ok := s.sim.Plan()
	if !ok {
		return projection.Projection{}, ErrNotFinalized
	}
	proj, err := svc.projSvc.Save(ctx, Serialize(plan, name))
	if err != nil {
		return projection.Projection{}, errors.Wrap(err, "saving projection")
	}
	s.saved = &proj
	return proj, nil
}

func (svc *service) Auto(ctx context.Context, sess SessionContext, name string, save bool) (projection.Projection, error) {
	data, err := svc.loader.Load(ctx, sess)
	if err != nil {
		return projection.Projection{}, err
	}
	plan := AutoPlan(sess, data.Curriculum, data.State, svc.opts)
	proj := Serialize(plan, name)
	if !save {
		return proj, nil
	}
	proj, err = svc.projSvc.Save(ctx, proj)
	return proj, errors.Wrap(err, "saving projection")
}

func (svc *service) Curriculum(ctx context.Context, sess SessionContext) (Progress, error) {
	data, err := svc.loader.Load(ctx, sess)
	if err != nil {
		return Progress{}, err
	}
	return Summarize(data.Curriculum, data.State), nil
}

// NewOptions builds planner options from the configured credit cap.
func NewOptions(creditCap int, now func() time.Time) Options {
	return Options{CreditCap: creditCap, Now: now}
}
