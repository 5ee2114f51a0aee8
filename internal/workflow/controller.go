package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/analysis"
	"github.com/spigell/jobmatch/internal/logger"
)

var (
	ErrNoFileSelected = errors.New("no file selected")
	ErrBusy           = errors.New("analysis already in progress")
	ErrSuperseded     = errors.New("analysis superseded by a newer cycle")
	ErrNoSuchJob      = errors.New("job is not part of the current matches")
)

// Service is the remote analysis service as seen by the controller.
type Service interface {
	ParseResume(ctx context.Context, doc *analysis.Document) (*analysis.Profile, error)
	MatchJobs(ctx context.Context, skills []string) (analysis.MatchSet, error)
}

// Controller sequences selection, upload, matching and the job detail view.
// Every state change goes through apply, so listeners see transitions in order.
type Controller struct {
	svc    Service
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	selection *analysis.Document
	// selected indexes state.Matches; -1 when the detail view is closed.
	selected int
	// epoch identifies the current cycle. Results from older epochs are dropped.
	epoch     uint64
	cancel    context.CancelFunc
	listeners []func(State)
}

func New(svc Service, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}

	return &Controller{
		svc:      svc,
		logger:   log,
		state:    idle(),
		selected: -1,
	}
}

// Subscribe registers fn to be called with every new state. fn runs while the
// controller is locked and must not call back into it.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) Selection() *analysis.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// SelectFile replaces the selection and discards previous results. A cycle
// still in flight is cancelled and its late responses are ignored.
func (c *Controller) SelectFile(doc *analysis.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.logger.Info("in-flight analysis abandoned", zap.String("reason", "new file selected"))
	}

	c.epoch++
	c.selection = doc
	c.selected = -1
	c.apply(idle())
}

// Analyze runs one cycle for the selected document and returns the state it
// ended in. Service failures end in PhaseError and are not returned as errors.
// The selection is kept, so a failed cycle can be retried with the same document.
func (c *Controller) Analyze(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state.Busy() {
		state := c.state.clone()
		c.mu.Unlock()
		return state, ErrBusy
	}

	if c.selection == nil {
		state := c.state.clone()
		c.mu.Unlock()
		return state, ErrNoFileSelected
	}

	c.epoch++
	epoch := c.epoch
	doc := c.selection
	c.selected = -1

	cycleCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.apply(uploading())
	c.mu.Unlock()
	defer cancel()

	log := logger.WithFields(c.logger, logger.CycleFields(uuid.NewString(), doc.Name)...)
	log.Info("starting analysis", zap.Int("size", doc.Size()), zap.Int("pages", doc.Pages))

	profile, err := c.svc.ParseResume(cycleCtx, doc)
	if err != nil {
		log.Warn("parsing resume failed", zap.Error(err))
		return c.finish(epoch, failed(MsgParseFailed, err), log)
	}

	if !profile.HasSkills() {
		log.Info("finishing analysis", zap.String("reason", "no skills found"))
		return c.finish(epoch, ready(profile, nil, MsgNoSkills), log)
	}

	log.Info("resume parsed", zap.Strings("skills", profile.Skills))

	if !c.commit(epoch, awaitingMatches(profile)) {
		log.Info("dropping parse result", zap.String("reason", "superseded"))
		return c.State(), ErrSuperseded
	}

	jobs, err := c.svc.MatchJobs(cycleCtx, profile.Skills)
	if err != nil {
		log.Warn("matching jobs failed", zap.Error(err))
		return c.finish(epoch, failed(MsgMatchFailed, err), log)
	}

	if jobs.Len() == 0 {
		log.Info("finishing analysis", zap.String("reason", "no matching jobs"))
		return c.finish(epoch, ready(profile, nil, MsgNoJobs), log)
	}

	log.Info("finishing analysis", zap.Int("matches", jobs.Len()))
	return c.finish(epoch, ready(profile, jobs, ""), log)
}

// OpenJob opens the detail view for the job at index of the current matches.
// Opening another job replaces the previous one.
func (c *Controller) OpenJob(index int) (*analysis.JobMatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseReady || index < 0 || index >= c.state.Matches.Len() {
		return nil, ErrNoSuchJob
	}

	c.selected = index
	return c.state.Matches[index], nil
}

func (c *Controller) CloseJob() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = -1
}

// SelectedJob returns the job whose detail view is open.
func (c *Controller) SelectedJob() (*analysis.JobMatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected < 0 || c.state.Phase != PhaseReady || c.selected >= c.state.Matches.Len() {
		return nil, false
	}
	return c.state.Matches[c.selected], true
}

func (c *Controller) finish(epoch uint64, next State, log *zap.Logger) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		log.Info("dropping stale response", zap.Stringer("phase", next.Phase))
		return c.state.clone(), ErrSuperseded
	}

	c.cancel = nil
	c.apply(next)
	return c.state.clone(), nil
}

func (c *Controller) commit(epoch uint64, next State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return false
	}

	c.apply(next)
	return true
}

// apply must be called with mu held.
func (c *Controller) apply(next State) {
	c.logger.Debug("state transition",
		zap.Stringer("from", c.state.Phase),
		zap.Stringer("to", next.Phase),
		zap.String("message", next.Message),
	)

	c.state = next
	for _, fn := range c.listeners {
		fn(next.clone())
	}
}
