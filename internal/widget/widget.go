// Package widget implements the location selection widget: a choice list
// fed page by page from the search API and an ordered, capped selection.
package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexivanou/sportslocations/internal/model"
	"go.uber.org/zap"
)

var (
	ErrSelectionLimitExceeded = errors.New("selection limit exceeded")
	ErrDuplicateSelection     = errors.New("location already selected")
	ErrUnknownChoice          = errors.New("location is not among the choices")
	ErrClosed                 = errors.New("widget closed")
)

// Fetcher loads one page of search results
type Fetcher interface {
	Search(ctx context.Context, q model.QueryParams) (*model.SearchResponse, error)
}

// State is the lifecycle state of a widget
type State int

const (
	StateUninitialized State = iota
	StateBound
)

func (s State) String() string {
	if s == StateBound {
		return "bound"
	}
	return "uninitialized"
}

// Status describes the last fetch
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusNoMatches
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusNoMatches:
		return "no matches"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Config holds per-instance settings
type Config struct {
	MaxSelected int
	MinSelected int
	Debounce    time.Duration
	// Filters is read every time a query is issued
	Filters func() map[string]string
}

// View is a snapshot of the widget for rendering
type View struct {
	State    State
	Status   Status
	Search   string
	Page     int
	HasMore  bool
	Choices  []Node
	Selected model.Selection
	Notice   string
	Err      error
}

// Widget holds the state of one selection field. Methods are safe for
// concurrent use; fetches run in the background and at most one is in flight.
type Widget struct {
	fetcher   Fetcher
	cfg       Config
	debouncer *Debouncer
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	status   Status
	search   string
	page     int
	hasMore  bool
	choices  []Node
	selected model.Selection
	notice   string
	lastErr  error
	closed   bool
	seq      uint64
	cancel   context.CancelFunc
	onChange []func(model.Selection)

	// running counts fetch goroutines; idle is signalled on mu when it drops to zero
	running int
	idle    *sync.Cond
}

// New creates an unbound widget holding the persisted selection
func New(fetcher Fetcher, cfg Config, selected model.Selection, logger *zap.Logger) *Widget {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Widget{
		fetcher:   fetcher,
		cfg:       cfg,
		debouncer: NewDebouncer(cfg.Debounce),
		logger:    logger.Named("widget"),
		page:      1,
		selected:  selected.Dedupe(),
	}
	w.idle = sync.NewCond(&w.mu)
	return w
}

// OnChange registers a callback invoked with the new value after every add or remove
func (w *Widget) OnChange(fn func(model.Selection)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Activate binds the widget and loads the first page for the current search.
// It does nothing once bound.
func (w *Widget) Activate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.state == StateBound {
		return
	}
	w.state = StateBound
	w.issue(1)
}

// OnSearchInput schedules a fresh page-1 query once input settles.
// Empty text leaves the current choices alone.
func (w *Widget) OnSearchInput(text string) {
	if text == "" {
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.state = StateBound
	w.mu.Unlock()

	w.debouncer.Trigger(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.closed {
			return
		}
		w.search = text
		w.issue(1)
	})
}

// LoadMore requests the next page when more results exist and nothing is
// loading. It reports whether a request was issued.
func (w *Widget) LoadMore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.state != StateBound || !w.hasMore || w.status == StatusLoading {
		return false
	}
	w.issue(w.page + 1)
	return true
}

// CancelPendingRequest aborts the in-flight request; its response, if it
// still arrives, is discarded.
func (w *Widget) CancelPendingRequest() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
	if w.status == StatusLoading {
		w.status = StatusIdle
	}
}

// AddChoice moves a choice into the selection
func (w *Widget) AddChoice(id int) error {
	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}

	leaf, ok := findLeaf(w.choices, id)
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownChoice, id)
	}
	if leaf.Disabled || w.selected.Contains(id) {
		w.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrDuplicateSelection, id)
	}
	if w.cfg.MaxSelected > 0 && len(w.selected)+1 > w.cfg.MaxSelected {
		w.notice = fmt.Sprintf("Maximum values reached ( %d values )", w.cfg.MaxSelected)
		w.mu.Unlock()
		return fmt.Errorf("%w: max %d", ErrSelectionLimitExceeded, w.cfg.MaxSelected)
	}

	w.notice = ""
	w.selected = append(w.selected, model.SelectionEntry{ID: id, Text: leaf.Text})
	markDisabled(w.choices, w.selected)
	value, listeners := w.changeLocked()
	w.mu.Unlock()

	notify(listeners, value)
	return nil
}

// RemoveChoice drops an id from the selection and re-enables its choice.
// It reports whether the id was selected.
func (w *Widget) RemoveChoice(id int) bool {
	w.mu.Lock()

	if w.closed || !w.selected.Contains(id) {
		w.mu.Unlock()
		return false
	}

	kept := make(model.Selection, 0, len(w.selected)-1)
	for _, e := range w.selected {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	w.selected = kept
	w.notice = ""
	markDisabled(w.choices, w.selected)
	value, listeners := w.changeLocked()
	w.mu.Unlock()

	notify(listeners, value)
	return true
}

// Value returns a copy of the selection
func (w *Widget) Value() model.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append(model.Selection{}, w.selected...)
}

// Valid reports whether the selection satisfies the configured minimum
func (w *Widget) Valid() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.selected) >= w.cfg.MinSelected
}

// View returns a snapshot for rendering
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View{
		State:    w.state,
		Status:   w.status,
		Search:   w.search,
		Page:     w.page,
		HasMore:  w.hasMore,
		Choices:  cloneNodes(w.choices),
		Selected: append(model.Selection{}, w.selected...),
		Notice:   w.notice,
		Err:      w.lastErr,
	}
}

// Wait blocks until pending debounced input and in-flight requests settled
func (w *Widget) Wait() {
	w.debouncer.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.waitIdleLocked()
}

// Close cancels pending work; later operations are no-ops
func (w *Widget) Close() {
	w.debouncer.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.cancelLocked()
	w.waitIdleLocked()
}

func (w *Widget) waitIdleLocked() {
	for w.running > 0 {
		w.idle.Wait()
	}
}

// issue starts a request for page, superseding any in-flight one. Caller holds mu.
func (w *Widget) issue(page int) {
	w.cancelLocked()

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	seq := w.seq
	w.status = StatusLoading

	q := model.QueryParams{Search: w.search, Page: page}
	if w.cfg.Filters != nil {
		q.Filters = w.cfg.Filters()
	}

	w.running++
	go func() {
		defer cancel()

		resp, err := w.fetcher.Search(ctx, q)
		w.apply(seq, page, resp, err)
	}()
}

// cancelLocked aborts the current request and invalidates its sequence number
func (w *Widget) cancelLocked() {
	w.seq++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Widget) apply(seq uint64, page int, resp *model.SearchResponse, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() {
		w.running--
		if w.running == 0 {
			w.idle.Broadcast()
		}
	}()

	if seq != w.seq || w.closed {
		w.logger.Debug("Discarding stale response", zap.Int("page", page))
		return
	}
	w.cancel = nil

	if err != nil {
		w.logger.Warn("Failed to load choices", zap.Int("page", page), zap.Error(err))
		w.status = StatusFailed
		w.lastErr = err
		return
	}
	w.lastErr = nil

	var nodes []Node
	if resp != nil {
		nodes = Walk(resp.Results)
	}

	if len(nodes) == 0 {
		w.hasMore = false
		if page == 1 {
			w.choices = nil
			w.page = 1
			w.status = StatusNoMatches
			return
		}
		w.status = StatusReady
		return
	}

	if page == 1 {
		w.choices = MergeGroups(nodes)
	} else {
		w.choices = MergeGroups(append(w.choices, nodes...))
	}
	w.page = page
	w.hasMore = resp.More
	w.status = StatusReady
	markDisabled(w.choices, w.selected)
}

func (w *Widget) changeLocked() (model.Selection, []func(model.Selection)) {
	value := append(model.Selection{}, w.selected...)
	listeners := append([]func(model.Selection){}, w.onChange...)
	return value, listeners
}

func notify(listeners []func(model.Selection), value model.Selection) {
	for _, fn := range listeners {
		fn(value)
	}
}
