package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/giygas/bpmn-tools/templates/entities"
)

type mockStore struct {
	mu          sync.Mutex
	templates   []entities.Template
	failures    []entities.Failure
	lastUpdated time.Time
	updating    bool
	updateCount int
}

func (m *mockStore) GetTemplates() []entities.Template { return m.templates }
func (m *mockStore) GetFailures() []entities.Failure   { return m.failures }
func (m *mockStore) GetLastUpdated() time.Time         { return m.lastUpdated }
func (m *mockStore) IsUpdating() bool                  { return m.updating }
func (m *mockStore) GetServerStartTime() time.Time     { return time.Time{} }

func (m *mockStore) UpdateTemplates(result *entities.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = result.Templates
	m.failures = result.Failures
	m.lastUpdated = time.Now()
	m.updateCount++
}

func (m *mockStore) BeginUpdate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updating {
		return false
	}
	m.updating = true
	return true
}

func (m *mockStore) EndUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updating = false
}

type mockAggregator struct {
	result *entities.Result
	err    error
	paths  []string
	block  bool // wait for ctx before answering
}

func (m *mockAggregator) Save(ctx context.Context, path string) (*entities.Result, error) {
	m.paths = append(m.paths, path)
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newResult(n int) *entities.Result {
	templates := make([]entities.Template, n)
	for i := range templates {
		templates[i] = entities.Template(`{}`)
	}
	return &entities.Result{Templates: templates, Sources: n}
}

func TestStartWithoutScheduleLoadsOnce(t *testing.T) {
	store := &mockStore{}
	agg := &mockAggregator{result: newResult(3)}

	s := NewScheduler(store, agg, "out.json", nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if store.updateCount != 1 {
		t.Errorf("Expected one update, got %d", store.updateCount)
	}
	if len(store.templates) != 3 {
		t.Errorf("Expected 3 templates in store, got %d", len(store.templates))
	}
	if len(agg.paths) != 1 || agg.paths[0] != "out.json" {
		t.Errorf("Expected a save to out.json, got %v", agg.paths)
	}
	if !s.NextRun().IsZero() {
		t.Errorf("Expected no next run, got %v", s.NextRun())
	}
	if store.updating {
		t.Error("Store should not be left updating")
	}
}

func TestStartWithSchedule(t *testing.T) {
	store := &mockStore{}
	s := NewScheduler(store, &mockAggregator{result: newResult(1)}, "out.json", []string{"06:00", "18:00"})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	next := s.NextRun()
	if next.IsZero() {
		t.Fatal("Expected a next run time")
	}
	if !next.After(time.Now()) {
		t.Errorf("Expected next run in the future, got %v", next)
	}
	if next.Sub(time.Now()) > 24*time.Hour {
		t.Errorf("Expected next run within a day, got %v", next)
	}
	if m := next.Minute(); m != 0 {
		t.Errorf("Expected next run on the hour, got %v", next)
	}
	if h := next.Hour(); h != 6 && h != 18 {
		t.Errorf("Expected next run at 06:00 or 18:00, got %v", next)
	}
}

func TestStartFailsWhenInitialLoadFails(t *testing.T) {
	store := &mockStore{}
	s := NewScheduler(store, &mockAggregator{err: errors.New("disk full")}, "out.json", []string{"06:00"})

	err := s.Start(context.Background())
	if err == nil {
		t.Fatal("Expected error from failed initial load")
	}
	if store.updateCount != 0 {
		t.Error("Store should not be updated after a failed save")
	}
	if store.updating {
		t.Error("Store should not be left updating")
	}
	if !s.NextRun().IsZero() {
		t.Error("Nothing should be scheduled after a failed start")
	}
}

func TestRefreshSkipsWhileUpdating(t *testing.T) {
	store := &mockStore{updating: true}
	agg := &mockAggregator{result: newResult(1)}
	s := NewScheduler(store, agg, "out.json", nil)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(agg.paths) != 0 {
		t.Error("Aggregator should not run while another update is in progress")
	}
}

func TestRefreshKeepsPartialResults(t *testing.T) {
	store := &mockStore{}
	result := newResult(2)
	result.Sources = 3
	result.Failures = []entities.Failure{{URL: "https://example.com/x.json", Error: "404"}}

	s := NewScheduler(store, &mockAggregator{result: result}, "out.json", nil)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if len(store.templates) != 2 || len(store.failures) != 1 {
		t.Errorf("Expected partial result to be stored, got %d templates, %d failures", len(store.templates), len(store.failures))
	}
}

func TestStartReturnsWhenContextCancelled(t *testing.T) {
	store := &mockStore{}
	s := NewScheduler(store, &mockAggregator{block: true}, "out.json", []string{"06:00"})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after the context was cancelled")
	}

	if store.updateCount != 0 {
		t.Error("Store should not be updated by a cancelled load")
	}
	if store.updating {
		t.Error("Store should not be left updating")
	}
	if !s.NextRun().IsZero() {
		t.Error("Nothing should be scheduled after a cancelled start")
	}
}
