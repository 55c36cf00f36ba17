// internal/explorer/explorer.go
// Hierarchical navigation over one database session: profiles, catalog
// levels, row pages and ad hoc queries. All backend I/O runs off the event
// loop; responses are applied only when still the latest for their slot.
package explorer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dbdeck/dbdeck/internal/config"
	"github.com/dbdeck/dbdeck/internal/cred"
	"github.com/dbdeck/dbdeck/internal/db"
	"github.com/dbdeck/dbdeck/internal/history"
	"github.com/dbdeck/dbdeck/internal/query"
)

// ProfileSource supplies connection profiles. *config.Config satisfies it.
type ProfileSource interface {
	ListProfiles() []config.Profile
	ProfileByID(id string) (*config.Profile, error)
}

// Recorder persists executed queries. *history.Store satisfies it.
type Recorder interface {
	Add(ctx context.Context, entry *history.Entry) error
}

// Options configure an explorer.
type Options struct {
	Profiles ProfileSource
	Resolver *cred.Resolver
	History  Recorder

	// OpenBackend defaults to db.New.
	OpenBackend func(kind db.Kind, logger *slog.Logger) (db.Backend, error)

	// DefaultProfile preselects a profile on the connection list.
	DefaultProfile string

	PageSize  int
	MaxRows   int
	BatchSize int
	Logger    *slog.Logger
}

// intentKind enumerates what the renderer can ask for.
type intentKind int

const (
	intentEnter intentKind = iota
	intentBack
	intentRefresh
	intentSelect
	intentOpenQueryEditor
	intentSetQueryText
	intentRunQuery
	intentCancel
	intentNextPage
	intentPrevPage
	intentDismissError
	intentDisconnect
)

type intent struct {
	kind intentKind
	key  string
	text string
}

// envelope wraps an async completion with its slot and sequence number.
type envelope struct {
	slot slot
	seq  uint64
	msg  any
}

// Explorer owns the navigation state machine. A single goroutine started
// by Run owns every field below the channels; outside callers interact
// only through intent methods and Snapshot/Updates.
type Explorer struct {
	profiles    ProfileSource
	resolver    *cred.Resolver
	history     Recorder
	openBackend func(kind db.Kind, logger *slog.Logger) (db.Backend, error)
	pageSize    int
	maxRows     int
	batchSize   int
	logger      *slog.Logger

	intents     chan intent
	completions chan envelope
	done        chan struct{}

	state    State
	stack    []frame
	selected string
	loading  bool
	banner   string

	session  *db.Session
	executor *query.Executor
	profile  config.Profile

	currentDatabase string
	currentSchema   string
	currentTable    string

	databases []db.Database
	schemas   []db.Schema
	tables    []db.Table
	columns   []db.Column

	page    *db.QueryResult
	pageNum int

	result    *db.QueryResult
	queryText string
	lastRun   string

	seqs    [slotCount]uint64
	cancels [slotCount]context.CancelFunc

	mu      sync.RWMutex
	snap    Snapshot
	updates chan Snapshot
}

// New creates an explorer. Run must be called before intents have effect.
func New(opts Options) *Explorer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	openBackend := opts.OpenBackend
	if openBackend == nil {
		openBackend = db.New
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = query.DefaultMaxRows
	}

	e := &Explorer{
		profiles:    opts.Profiles,
		resolver:    opts.Resolver,
		history:     opts.History,
		openBackend: openBackend,
		pageSize:    pageSize,
		maxRows:     maxRows,
		batchSize:   opts.BatchSize,
		logger:      logger,
		intents:     make(chan intent, 16),
		completions: make(chan envelope, 8),
		done:        make(chan struct{}),
		updates:     make(chan Snapshot, 1),
		state:       StateConnectionList,
	}
	e.selected = e.firstProfileKey()
	if opts.DefaultProfile != "" && e.profiles != nil {
		if _, err := e.profiles.ProfileByID(opts.DefaultProfile); err == nil {
			e.selected = opts.DefaultProfile
		}
	}
	e.storeSnapshot()
	return e
}

// Run drives the event loop until ctx is cancelled.
func (e *Explorer) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.shutdown()

	e.publish()
	for {
		select {
		case <-ctx.Done():
			return nil
		case it := <-e.intents:
			e.handle(it)
		case env := <-e.completions:
			e.complete(env)
		}
	}
}

// Snapshot returns the last published view.
func (e *Explorer) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Updates delivers the latest snapshot after each change. The channel is
// coalescing: an unread stale snapshot is replaced, never queued behind.
func (e *Explorer) Updates() <-chan Snapshot {
	return e.updates
}

// Intent methods, safe from any goroutine.

func (e *Explorer) Enter(key string)         { e.send(intent{kind: intentEnter, key: key}) }
func (e *Explorer) Back()                    { e.send(intent{kind: intentBack}) }
func (e *Explorer) Refresh()                 { e.send(intent{kind: intentRefresh}) }
func (e *Explorer) Select(key string)        { e.send(intent{kind: intentSelect, key: key}) }
func (e *Explorer) OpenQueryEditor()         { e.send(intent{kind: intentOpenQueryEditor}) }
func (e *Explorer) SetQueryText(text string) { e.send(intent{kind: intentSetQueryText, text: text}) }
func (e *Explorer) RunQuery(text string)     { e.send(intent{kind: intentRunQuery, text: text}) }
func (e *Explorer) Cancel()                  { e.send(intent{kind: intentCancel}) }
func (e *Explorer) NextPage()                { e.send(intent{kind: intentNextPage}) }
func (e *Explorer) PrevPage()                { e.send(intent{kind: intentPrevPage}) }
func (e *Explorer) DismissError()            { e.send(intent{kind: intentDismissError}) }
func (e *Explorer) Disconnect()              { e.send(intent{kind: intentDisconnect}) }

func (e *Explorer) send(it intent) {
	select {
	case e.intents <- it:
	case <-e.done:
	}
}

// handle runs on the loop goroutine.
func (e *Explorer) handle(it intent) {
	switch it.kind {
	case intentEnter:
		e.enter(it.key)
	case intentBack:
		e.back()
	case intentRefresh:
		e.refresh()
	case intentSelect:
		e.applySelect(it.key)
	case intentOpenQueryEditor:
		e.openQueryEditor()
	case intentSetQueryText:
		e.queryText = it.text
	case intentRunQuery:
		e.runQuery(it.text)
	case intentCancel:
		e.cancelInflight()
	case intentNextPage:
		e.turnPage(1)
	case intentPrevPage:
		e.turnPage(-1)
	case intentDismissError:
		e.banner = ""
	case intentDisconnect:
		e.disconnect()
	}
	e.publish()
}

// complete applies an async response if it is still the latest for its
// slot; anything older is dropped so stale data can never overwrite newer
// state.
func (e *Explorer) complete(env envelope) {
	if env.seq != e.seqs[env.slot] {
		e.logger.Debug("dropping stale response", "slot", env.slot.String(), "seq", env.seq, "latest", e.seqs[env.slot])
		return
	}
	if cancel := e.cancels[env.slot]; cancel != nil {
		cancel()
		e.cancels[env.slot] = nil
	}
	// Another slot may still be working.
	e.loading = e.anyInflight()

	switch msg := env.msg.(type) {
	case connectDone:
		e.applyConnect(msg)
	case catalogDone:
		e.applyCatalog(msg)
	case queryDone:
		e.applyQuery(msg)
	}
	e.publish()
}

// issue stamps a new sequence number for a slot, cancelling whatever was
// in flight there, and runs fn off the loop. fn must deliver its result
// through the returned post function.
func (e *Explorer) issue(slot slot, fn func(ctx context.Context, post func(msg any))) {
	if cancel := e.cancels[slot]; cancel != nil {
		cancel()
	}
	e.seqs[slot]++
	seq := e.seqs[slot]

	parent := context.Background()
	if slot != slotConnect && e.session != nil {
		parent = e.session.Context()
	}
	ctx, cancel := context.WithCancel(parent)
	e.cancels[slot] = cancel
	e.loading = true

	post := func(msg any) {
		select {
		case e.completions <- envelope{slot: slot, seq: seq, msg: msg}:
		case <-e.done:
		}
	}
	go fn(ctx, post)
}

// bump invalidates any in-flight operation for a slot without starting a
// new one.
func (e *Explorer) bump(slot slot) {
	if cancel := e.cancels[slot]; cancel != nil {
		cancel()
		e.cancels[slot] = nil
	}
	e.seqs[slot]++
}

func (e *Explorer) cancelInflight() {
	cancelled := false
	for s := slot(0); s < slotCount; s++ {
		if e.cancels[s] != nil {
			e.bump(s)
			cancelled = true
		}
	}
	if cancelled {
		e.loading = false
	}
}

func (e *Explorer) anyInflight() bool {
	for s := slot(0); s < slotCount; s++ {
		if e.cancels[s] != nil {
			return true
		}
	}
	return false
}

func (e *Explorer) shutdown() {
	for s := slot(0); s < slotCount; s++ {
		if e.cancels[s] != nil {
			e.cancels[s]()
			e.cancels[s] = nil
		}
	}
	if e.session != nil {
		if err := e.session.Close(); err != nil {
			e.logger.Warn("session close failed", "error", err)
		}
		e.session = nil
	}
}

// push records the current state and selection for Back.
func (e *Explorer) push() {
	e.stack = append(e.stack, frame{state: e.state, selected: e.selected})
}

func (e *Explorer) back() {
	// Leaving the state makes any pending load for it irrelevant.
	e.cancelInflight()
	e.banner = ""

	if len(e.stack) == 0 {
		return
	}
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	e.state = top.state
	e.selected = top.selected

	switch e.state {
	case StateConnectionList:
		e.closeSession()
	case StateDatabaseList:
		e.currentDatabase = ""
		e.currentSchema = ""
		e.currentTable = ""
	case StateSchemaList:
		e.currentSchema = ""
		e.currentTable = ""
	case StateTableList:
		e.currentTable = ""
	}
}

func (e *Explorer) applySelect(key string) {
	for _, entry := range e.entries() {
		if entry.Key == key {
			e.selected = key
			return
		}
	}
}

func (e *Explorer) openQueryEditor() {
	if e.session == nil {
		return
	}
	if e.state == StateQueryEditor {
		return
	}
	e.push()
	e.state = StateQueryEditor
	e.banner = ""
}

// selectedOr returns key when given, else the current selection.
func (e *Explorer) selectedOr(key string) string {
	if key != "" {
		return key
	}
	return e.selected
}

func (e *Explorer) firstProfileKey() string {
	if e.profiles == nil {
		return ""
	}
	if list := e.profiles.ListProfiles(); len(list) > 0 {
		return list[0].ID
	}
	return ""
}
