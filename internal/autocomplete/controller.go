// Package autocomplete turns keystrokes into debounced, cached place searches.
//
// A Controller owns one input box. Every Input call restarts a debounce
// timer; only the last keystroke in a window reaches the searcher. Results are
// cached per verbatim query for the controller's lifetime.
//
// Each Input bumps a generation number. Timer callbacks and search responses
// carry the generation they were started under and are ignored once a newer
// one exists, so a slow response for "Pa" cannot overwrite results for "Par".
package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/city-distance-service/internal/domain"
	"github.com/couchcryptid/city-distance-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultDebounce is the quiet period after the last keystroke before a search.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultSearchTimeout bounds a single provider call.
	DefaultSearchTimeout = 10 * time.Second

	loadFailedMessage = "failed to load places"
)

var (
	// ErrNotReady is returned by Select when no suggestions are showing.
	ErrNotReady = errors.New("autocomplete: no suggestions to select from")
	// ErrIndexOutOfRange is returned by Select for an index outside the candidates.
	ErrIndexOutOfRange = errors.New("autocomplete: candidate index out of range")
)

// Options configures a Controller. Zero values take defaults.
type Options struct {
	Clock         clockwork.Clock
	Debounce      time.Duration
	SearchTimeout time.Duration
	Logger        *slog.Logger
	Metrics       *observability.Metrics
}

// Controller is the state machine behind one autocomplete input.
// It is safe for concurrent use.
type Controller struct {
	searcher      domain.PlaceSearcher
	clock         clockwork.Clock
	debounce      time.Duration
	searchTimeout time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics

	mu         sync.Mutex
	state      State
	cache      *queryCache
	timer      clockwork.Timer
	generation uint64
	closed     bool
}

// New creates an idle controller backed by searcher.
func New(searcher domain.PlaceSearcher, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultSearchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	return &Controller{
		searcher:      searcher,
		clock:         opts.Clock,
		debounce:      opts.Debounce,
		searchTimeout: opts.SearchTimeout,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		state:         State{Kind: Idle},
		cache:         newQueryCache(),
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Selected returns the chosen candidate, if the controller is in Selected.
func (c *Controller) Selected() (domain.PlaceCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != Selected || c.state.Selection == nil {
		return domain.PlaceCandidate{}, false
	}
	return *c.state.Selection, true
}

// Input handles a change of the input text. Any pending timer is cancelled,
// any selection is discarded, and a new debounce window starts unless the
// text is blank.
func (c *Controller) Input(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.stopTimerLocked()
	c.generation++

	if domain.IsBlankQuery(text) {
		c.state = State{Kind: Idle, Input: text}
		return
	}

	gen := c.generation
	c.state = State{Kind: Debouncing, Input: text}
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(gen, text) })
}

// Select picks the candidate at index from the visible suggestions.
func (c *Controller) Select(index int) (domain.PlaceCandidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind != Ready {
		return domain.PlaceCandidate{}, fmt.Errorf("%w (state %s)", ErrNotReady, c.state.Kind)
	}
	if index < 0 || index >= len(c.state.Candidates) {
		return domain.PlaceCandidate{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(c.state.Candidates))
	}

	chosen := c.state.Candidates[index]
	c.state = State{Kind: Selected, Input: chosen.Label, Selection: &chosen}
	return chosen, nil
}

// Dismiss hides the suggestion list, as when the user clicks outside the
// widget. State and cache are unchanged.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SuggestionsVisible = false
}

// Focus shows the suggestion list again if there is one to show.
func (c *Controller) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind == Ready && len(c.state.Candidates) > 0 {
		c.state.SuggestionsVisible = true
	}
}

// Close cancels any pending debounce timer. Later events are ignored and a
// search already in flight is discarded when it returns.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.generation++
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fire runs when the debounce window for gen elapses.
func (c *Controller) fire(gen uint64, query string) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	if cached, ok := c.cache.get(query); ok {
		c.metrics.AutocompleteCache.WithLabelValues("hit").Inc()
		c.readyLocked(cached)
		c.mu.Unlock()
		return
	}
	c.metrics.AutocompleteCache.WithLabelValues("miss").Inc()
	c.state = State{Kind: Loading, Input: query}
	c.mu.Unlock()

	go c.search(gen, query)
}

// search calls the provider and applies the result if gen is still current.
func (c *Controller) search(gen uint64, query string) {
	c.metrics.AutocompleteSearch.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), c.searchTimeout)
	candidates, err := c.searcher.Search(ctx, query)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		// Cached even when stale: the entry is keyed by its own query.
		c.cache.put(query, candidates)
	}
	if c.closed || gen != c.generation {
		c.metrics.AutocompleteStale.Inc()
		c.logger.Debug("discarding stale search response", "query", query)
		return
	}
	if err != nil {
		c.logger.Warn("place search failed", "query", query, "error", err)
		c.state = State{Kind: Error, Input: query, Message: loadFailedMessage}
		return
	}
	c.readyLocked(candidates)
}

func (c *Controller) readyLocked(candidates []domain.PlaceCandidate) {
	c.state = State{
		Kind:               Ready,
		Input:              c.state.Input,
		Candidates:         candidates,
		SuggestionsVisible: len(candidates) > 0,
	}
}
