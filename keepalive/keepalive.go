// Package keepalive issues periodic trivial reads against the content tables
// so that a hosted database on an idle-suspending plan stays awake.
package keepalive

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults for the ping schedule.
const (
	DefaultDelay    = 5 * time.Second
	DefaultInterval = 11 * time.Hour
	DefaultTimeout  = 30 * time.Second
)

// DefaultTables are the tables read on each firing.
var DefaultTables = []string{"projects", "blog_posts"}

// Target performs a single one-row read of table.
type Target interface {
	Ping(ctx context.Context, table string) error
}

// Result is the outcome of pinging one table.
type Result struct {
	Table    string
	Err      error
	Duration time.Duration
}

// OK reports whether the ping succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Pinger runs the keep-alive schedule. Start and Stop may be called from any
// goroutine.
type Pinger struct {
	target     Target
	tables     []string
	delay      time.Duration
	interval   time.Duration
	timeout    time.Duration
	production bool
	log        logrus.FieldLogger
	observe    func(Result)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// Option configures a Pinger.
type Option func(*Pinger)

// WithSchedule sets the initial delay and the interval between firings.
// Non-positive values keep the defaults.
func WithSchedule(delay, interval time.Duration) Option {
	return func(p *Pinger) {
		if delay > 0 {
			p.delay = delay
		}
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithTimeout bounds each firing.
func WithTimeout(d time.Duration) Option {
	return func(p *Pinger) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithProduction marks the environment as production, where Start does nothing.
func WithProduction(production bool) Option {
	return func(p *Pinger) { p.production = production }
}

// WithLogger sets the logger for per-table outcomes.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pinger) {
		if l != nil {
			p.log = l
		}
	}
}

// WithTables overrides the tables read on each firing.
func WithTables(tables ...string) Option {
	return func(p *Pinger) {
		if len(tables) > 0 {
			p.tables = tables
		}
	}
}

// WithObserver registers a callback invoked with every result.
func WithObserver(fn func(Result)) Option {
	return func(p *Pinger) { p.observe = fn }
}

// New returns a stopped Pinger for target.
func New(target Target, opts ...Option) *Pinger {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	p := &Pinger{
		target:   target,
		tables:   DefaultTables,
		delay:    DefaultDelay,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		log:      discard,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start begins the schedule: one firing after the initial delay, then one per
// interval. It does nothing in production or when already running, and
// reports whether a schedule was started.
func (p *Pinger) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.production {
		p.log.Debug("keepalive disabled in production")
		return false
	}
	if p.running {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	go p.loop(ctx, p.done)
	p.log.WithFields(logrus.Fields{
		"delay":    p.delay.String(),
		"interval": p.interval.String(),
	}).Info("keepalive started")
	return true
}

// Stop cancels the schedule and waits for an in-flight firing to finish.
// Calling Stop on a stopped Pinger is a no-op.
func (p *Pinger) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	cancel()
	<-done
	p.log.Info("keepalive stopped")
}

// Running reports whether a schedule is active.
func (p *Pinger) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pinger) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	p.fire(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fire(ctx)
		}
	}
}

func (p *Pinger) fire(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	p.PingOnce(ctx)
}

// PingOnce reads one row from every table and returns the per-table results.
// Failures are logged and returned, never raised.
func (p *Pinger) PingOnce(ctx context.Context) []Result {
	results := make([]Result, 0, len(p.tables))
	for _, table := range p.tables {
		r := p.pingTable(ctx, table)
		entry := p.log.WithFields(logrus.Fields{
			"table":    r.Table,
			"duration": r.Duration.String(),
		})
		if r.Err != nil {
			entry.WithError(r.Err).Warn("keepalive ping failed")
		} else {
			entry.Info("keepalive ping ok")
		}
		if p.observe != nil {
			p.observe(r)
		}
		results = append(results, r)
	}
	return results
}

func (p *Pinger) pingTable(ctx context.Context, table string) (r Result) {
	start := time.Now()
	r.Table = table
	defer func() {
		if rec := recover(); rec != nil {
			r.Err = &panicError{value: rec}
		}
		r.Duration = time.Since(start)
	}()
	r.Err = p.target.Ping(ctx, table)
	return r
}

type panicError struct{ value any }

func (e *panicError) Error() string {
	return "keepalive: ping panicked: " + stringify(e.value)
}

func stringify(v any) string {
	switch x := v.(type) {
	case error:
		return x.Error()
	case string:
		return x
	default:
		return "unknown panic"
	}
}
