package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobmatch/internal/analysis"
	"github.com/spigell/jobmatch/internal/interview"
	"github.com/spigell/jobmatch/internal/present"
)

type parseResult struct {
	profile *analysis.Profile
	err     error
}

type matchResult struct {
	jobs analysis.MatchSet
	err  error
}

type fakeService struct {
	mu         sync.Mutex
	parseCalls int
	matchCalls int
	lastSkills []string
	parse      parseResult
	match      matchResult
	// parseGates[i], when present, supplies the result of the i-th parse call.
	parseGates  []chan parseResult
	parseCalled chan struct{}
	// matchGate, when set, supplies the result of every match call.
	matchGate   chan matchResult
	matchCalled chan struct{}
}

func (f *fakeService) ParseResume(_ context.Context, _ *analysis.Document) (*analysis.Profile, error) {
	f.mu.Lock()
	var gate chan parseResult
	if f.parseCalls < len(f.parseGates) {
		gate = f.parseGates[f.parseCalls]
	}
	f.parseCalls++
	called := f.parseCalled
	res := f.parse
	f.mu.Unlock()

	if called != nil {
		called <- struct{}{}
	}
	if gate != nil {
		res = <-gate
	}
	return res.profile, res.err
}

func (f *fakeService) MatchJobs(_ context.Context, skills []string) (analysis.MatchSet, error) {
	f.mu.Lock()
	f.matchCalls++
	f.lastSkills = skills
	gate, called := f.matchGate, f.matchCalled
	res := f.match
	f.mu.Unlock()

	if called != nil {
		called <- struct{}{}
	}
	if gate != nil {
		res = <-gate
	}
	return res.jobs, res.err
}

func (f *fakeService) respond(parse parseResult, match matchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parse = parse
	f.match = match
}

func (f *fakeService) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parseCalls, f.matchCalls
}

func email(s string) *string { return &s }

func testDocument() *analysis.Document {
	return &analysis.Document{Name: "cv.pdf", Data: []byte("%PDF")}
}

func TestAnalyzeWithoutFile(t *testing.T) {
	svc := &fakeService{}
	ctrl := New(svc, zap.NewNop())

	state, err := ctrl.Analyze(context.Background())
	if !errors.Is(err, ErrNoFileSelected) {
		t.Fatalf("expected ErrNoFileSelected, got %v", err)
	}
	if state.Phase != PhaseIdle {
		t.Fatalf("expected idle, got %s", state.Phase)
	}
	if parses, matches := svc.calls(); parses != 0 || matches != 0 {
		t.Fatalf("expected no service calls, got %d parse and %d match", parses, matches)
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	job := &analysis.JobMatch{Title: "Data Engineer", Company: "Acme", MatchScore: 2, CommonSkills: []string{"python", "sql"}}
	svc := &fakeService{
		parse: parseResult{profile: &analysis.Profile{Email: email("jane@example.com"), Skills: []string{"python", "sql"}}},
		match: matchResult{jobs: analysis.MatchSet{job}},
	}
	ctrl := New(svc, zap.NewNop())

	var phases []Phase
	var messages []string
	ctrl.Subscribe(func(s State) {
		phases = append(phases, s.Phase)
		messages = append(messages, s.Message)
	})

	ctrl.SelectFile(testDocument())
	state, err := ctrl.Analyze(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.Phase != PhaseReady {
		t.Fatalf("expected ready, got %s", state.Phase)
	}
	if state.Matches.Len() != 1 || state.Matches[0] != job {
		t.Fatalf("unexpected matches: %+v", state.Matches)
	}
	if state.Message != "" {
		t.Fatalf("expected message cleared, got %q", state.Message)
	}
	if state.Busy() {
		t.Fatalf("expected busy flag cleared")
	}
	if !state.HasResults() {
		t.Fatalf("expected results to be present")
	}
	if parses, matches := svc.calls(); parses != 1 || matches != 1 {
		t.Fatalf("expected one call each, got %d parse and %d match", parses, matches)
	}
	if strings.Join(svc.lastSkills, ",") != "python,sql" {
		t.Fatalf("unexpected skills sent: %v", svc.lastSkills)
	}

	wantPhases := []Phase{PhaseIdle, PhaseUploading, PhaseAwaitingMatches, PhaseReady}
	if len(phases) != len(wantPhases) {
		t.Fatalf("expected phases %v, got %v", wantPhases, phases)
	}
	for i := range wantPhases {
		if phases[i] != wantPhases[i] {
			t.Fatalf("expected phases %v, got %v", wantPhases, phases)
		}
	}
	if messages[1] != MsgParsing {
		t.Fatalf("unexpected uploading message: %q", messages[1])
	}
	if messages[2] != "Found 2 skills. Looking for matches..." {
		t.Fatalf("unexpected awaiting message: %q", messages[2])
	}
}

func TestAnalyzeNoSkills(t *testing.T) {
	for name, profile := range map[string]*analysis.Profile{
		"empty skills":  {Skills: []string{}},
		"absent skills": {},
		"nil profile":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{parse: parseResult{profile: profile}}
			ctrl := New(svc, zap.NewNop())
			ctrl.SelectFile(testDocument())

			state, err := ctrl.Analyze(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if state.Phase != PhaseReady {
				t.Fatalf("expected ready, got %s", state.Phase)
			}
			if state.Matches.Len() != 0 {
				t.Fatalf("expected empty matches")
			}
			if state.Message != MsgNoSkills {
				t.Fatalf("unexpected message: %q", state.Message)
			}
			if state.Busy() {
				t.Fatalf("expected busy flag cleared")
			}
			if _, matches := svc.calls(); matches != 0 {
				t.Fatalf("expected no match call, got %d", matches)
			}
		})
	}
}

func TestAnalyzeParseFailure(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	svc := &fakeService{parse: parseResult{err: errors.New("connection refused")}}
	ctrl := New(svc, zap.New(core))
	ctrl.SelectFile(testDocument())

	state, err := ctrl.Analyze(context.Background())
	if err != nil {
		t.Fatalf("service errors must not escape, got %v", err)
	}
	if state.Phase != PhaseError {
		t.Fatalf("expected error phase, got %s", state.Phase)
	}
	if !strings.Contains(state.Message, "Failed to analyze resume.") {
		t.Fatalf("unexpected message: %q", state.Message)
	}
	if state.Busy() {
		t.Fatalf("expected busy flag cleared")
	}
	if state.Profile != nil || state.Matches != nil {
		t.Fatalf("expected results cleared on error")
	}
	if state.Cause == nil {
		t.Fatalf("expected cause to be kept")
	}
	if _, matches := svc.calls(); matches != 0 {
		t.Fatalf("expected no match call, got %d", matches)
	}

	warnings := observed.FilterMessage("parsing resume failed").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	if warnings[0].ContextMap()["file"] != "cv.pdf" {
		t.Fatalf("expected file field, got %v", warnings[0].ContextMap())
	}
}

func TestAnalyzeMatchFailure(t *testing.T) {
	svc := &fakeService{
		parse: parseResult{profile: &analysis.Profile{Skills: []string{"go"}}},
		match: matchResult{err: errors.New("timeout")},
	}
	ctrl := New(svc, zap.NewNop())
	ctrl.SelectFile(testDocument())

	state, err := ctrl.Analyze(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Phase != PhaseError {
		t.Fatalf("expected error phase, got %s", state.Phase)
	}
	if state.Message != MsgMatchFailed {
		t.Fatalf("unexpected message: %q", state.Message)
	}
	if state.Profile != nil {
		t.Fatalf("expected profile cleared on error")
	}
}

func TestAnalyzeNoMatches(t *testing.T) {
	svc := &fakeService{
		parse: parseResult{profile: &analysis.Profile{Skills: []string{"cobol"}}},
		match: matchResult{jobs: analysis.MatchSet{}},
	}
	ctrl := New(svc, zap.NewNop())
	ctrl.SelectFile(testDocument())

	state, err := ctrl.Analyze(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Phase != PhaseReady {
		t.Fatalf("expected ready, got %s", state.Phase)
	}
	if state.Matches.Len() != 0 {
		t.Fatalf("expected empty matches")
	}
	if state.Message != MsgNoJobs {
		t.Fatalf("unexpected message: %q", state.Message)
	}
	if state.Profile == nil {
		t.Fatalf("expected profile kept")
	}
}

func TestDetailView(t *testing.T) {
	first := &analysis.JobMatch{Title: "Frontend", Company: "Acme", MatchScore: 2, CommonSkills: []string{"react", "cobol"}}
	second := &analysis.JobMatch{Title: "Backend", Company: "Globex", MatchScore: 1, CommonSkills: []string{"go"}}
	svc := &fakeService{
		parse: parseResult{profile: &analysis.Profile{Skills: []string{"react", "cobol", "go"}}},
		match: matchResult{jobs: analysis.MatchSet{first, second}},
	}
	ctrl := New(svc, zap.NewNop())

	if _, err := ctrl.OpenJob(0); !errors.Is(err, ErrNoSuchJob) {
		t.Fatalf("expected ErrNoSuchJob before results, got %v", err)
	}

	ctrl.SelectFile(testDocument())
	if _, err := ctrl.Analyze(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job, err := ctrl.OpenJob(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job != first {
		t.Fatalf("expected first job")
	}

	questions := present.NewDetail(job).Questions
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if want, _ := interview.Lookup("react"); questions[0] != want {
		t.Fatalf("unexpected react question: %q", questions[0])
	}
	if !strings.Contains(questions[1], "cobol") {
		t.Fatalf("expected fallback mentioning cobol, got %q", questions[1])
	}

	if _, err := ctrl.OpenJob(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected, ok := ctrl.SelectedJob(); !ok || selected != second {
		t.Fatalf("expected second job to replace the first")
	}

	if _, err := ctrl.OpenJob(2); !errors.Is(err, ErrNoSuchJob) {
		t.Fatalf("expected ErrNoSuchJob, got %v", err)
	}

	ctrl.CloseJob()
	if _, ok := ctrl.SelectedJob(); ok {
		t.Fatalf("expected detail view closed")
	}

	if _, err := ctrl.OpenJob(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl.SelectFile(testDocument())
	if _, ok := ctrl.SelectedJob(); ok {
		t.Fatalf("expected detail view cleared by new selection")
	}
	if state := ctrl.State(); state.Phase != PhaseIdle || state.Matches != nil {
		t.Fatalf("expected previous results discarded, got %+v", state)
	}
}

func TestAnalyzeWhileBusy(t *testing.T) {
	gate := make(chan parseResult)
	svc := &fakeService{
		parseGates:  []chan parseResult{gate},
		parseCalled: make(chan struct{}, 1),
	}
	ctrl := New(svc, zap.NewNop())
	ctrl.SelectFile(testDocument())

	done := make(chan State)
	go func() {
		state, _ := ctrl.Analyze(context.Background())
		done <- state
	}()
	<-svc.parseCalled

	if !ctrl.State().Busy() {
		t.Fatalf("expected busy while parsing")
	}

	if _, err := ctrl.Analyze(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	gate <- parseResult{err: errors.New("boom")}
	state := <-done
	if state.Phase != PhaseError {
		t.Fatalf("expected error phase, got %s", state.Phase)
	}
	if parses, _ := svc.calls(); parses != 1 {
		t.Fatalf("expected a single parse call, got %d", parses)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	staleGate, freshGate := make(chan parseResult), make(chan parseResult)
	svc := &fakeService{
		parseGates:  []chan parseResult{staleGate, freshGate},
		parseCalled: make(chan struct{}, 2),
		match:       matchResult{jobs: analysis.MatchSet{{Title: "Fresh", Company: "New Co"}}},
	}
	ctrl := New(svc, zap.NewNop())

	type outcome struct {
		state State
		err   error
	}

	ctrl.SelectFile(testDocument())
	stale := make(chan outcome, 1)
	go func() {
		state, err := ctrl.Analyze(context.Background())
		stale <- outcome{state, err}
	}()
	<-svc.parseCalled

	// A new selection abandons the first cycle and lets a second one start.
	ctrl.SelectFile(&analysis.Document{Name: "newer.pdf"})
	if ctrl.State().Busy() {
		t.Fatalf("expected new selection to clear the busy flag")
	}

	fresh := make(chan outcome, 1)
	go func() {
		state, err := ctrl.Analyze(context.Background())
		fresh <- outcome{state, err}
	}()
	<-svc.parseCalled

	freshGate <- parseResult{profile: &analysis.Profile{Skills: []string{"go"}}}
	second := <-fresh
	if second.err != nil {
		t.Fatalf("unexpected error: %v", second.err)
	}
	if second.state.Phase != PhaseReady || second.state.Matches[0].Title != "Fresh" {
		t.Fatalf("unexpected fresh state: %+v", second.state)
	}

	staleGate <- parseResult{err: errors.New("late failure")}
	select {
	case first := <-stale:
		if !errors.Is(first.err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", first.err)
		}
	case <-time.After(time.Second):
		t.Fatal("stale cycle did not return")
	}

	state := ctrl.State()
	if state.Phase != PhaseReady || state.Matches.Len() != 1 || state.Matches[0].Title != "Fresh" {
		t.Fatalf("stale response overwrote newer state: %+v", state)
	}
	if _, matches := svc.calls(); matches != 1 {
		t.Fatalf("expected exactly one match call, got %d", matches)
	}
}

func TestRetryAfterFailureReusesSelection(t *testing.T) {
	for name, svc := range map[string]*fakeService{
		"parse failure": {
			parse: parseResult{err: errors.New("connection refused")},
			match: matchResult{jobs: analysis.MatchSet{{Title: "Go Developer", Company: "Acme"}}},
		},
		"match failure": {
			parse: parseResult{profile: &analysis.Profile{Skills: []string{"go"}}},
			match: matchResult{err: errors.New("timeout")},
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctrl := New(svc, zap.NewNop())
			doc := testDocument()
			ctrl.SelectFile(doc)

			state, err := ctrl.Analyze(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if state.Phase != PhaseError {
				t.Fatalf("expected error phase, got %s", state.Phase)
			}
			if ctrl.Selection() != doc {
				t.Fatalf("expected selection kept after failure")
			}

			svc.respond(
				parseResult{profile: &analysis.Profile{Skills: []string{"go"}}},
				matchResult{jobs: analysis.MatchSet{{Title: "Go Developer", Company: "Acme"}}},
			)

			state, err = ctrl.Analyze(context.Background())
			if err != nil {
				t.Fatalf("retry without a new selection failed: %v", err)
			}
			if state.Phase != PhaseReady || state.Matches.Len() != 1 {
				t.Fatalf("expected ready with one match, got %+v", state)
			}
			if state.Message != "" || state.Cause != nil {
				t.Fatalf("expected error cleared, got %q (%v)", state.Message, state.Cause)
			}
			if parses, _ := svc.calls(); parses != 2 {
				t.Fatalf("expected the document to be uploaded twice, got %d", parses)
			}
		})
	}
}

func TestStaleMatchResponseIsDiscarded(t *testing.T) {
	gate := make(chan matchResult)
	svc := &fakeService{
		parse:       parseResult{profile: &analysis.Profile{Skills: []string{"go"}}},
		matchGate:   gate,
		matchCalled: make(chan struct{}, 1),
	}
	ctrl := New(svc, zap.NewNop())
	ctrl.SelectFile(testDocument())

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Analyze(context.Background())
		done <- err
	}()
	<-svc.matchCalled

	if phase := ctrl.State().Phase; phase != PhaseAwaitingMatches {
		t.Fatalf("expected awaiting matches, got %s", phase)
	}

	ctrl.SelectFile(&analysis.Document{Name: "newer.pdf"})
	gate <- matchResult{jobs: analysis.MatchSet{{Title: "Stale", Company: "Old Co"}}}

	select {
	case err := <-done:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("abandoned cycle did not return")
	}

	state := ctrl.State()
	if state.Phase != PhaseIdle || state.Profile != nil || state.Matches != nil {
		t.Fatalf("late matches overwrote the new selection: %+v", state)
	}
	if state.Busy() {
		t.Fatalf("expected busy flag cleared")
	}
	if ctrl.Selection().Name != "newer.pdf" {
		t.Fatalf("expected newer selection kept, got %s", ctrl.Selection().Name)
	}
}

func TestStateIsACopy(t *testing.T) {
	svc := &fakeService{
		parse: parseResult{profile: &analysis.Profile{Skills: []string{"go"}}},
		match: matchResult{jobs: analysis.MatchSet{{Title: "A"}, {Title: "B"}}},
	}
	ctrl := New(svc, zap.NewNop())
	ctrl.SelectFile(testDocument())
	if _, err := ctrl.Analyze(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := ctrl.State()
	state.Matches[0], state.Matches[1] = state.Matches[1], state.Matches[0]

	if again := ctrl.State(); again.Matches[0].Title != "A" {
		t.Fatalf("expected controller state to keep rank order")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseAwaitingMatches.String() != "awaiting_matches" {
		t.Fatalf("unexpected phase name: %s", PhaseAwaitingMatches)
	}
	if Phase(42).String() != "phase(42)" {
		t.Fatalf("unexpected unknown phase name: %s", Phase(42))
	}
}
