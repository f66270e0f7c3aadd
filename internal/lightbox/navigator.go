// Package lightbox tracks the single-image view: which list it was opened
// from, which record is showing, and how prev/next move through that list.
package lightbox

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fygallery/internal/catalog"
)

// ErrRecordNotFound is logged when a record is opened with a context list
// that does not contain it. The navigator then starts at the first entry.
var ErrRecordNotFound = errors.New("record not found in context list")

// State of the lightbox.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Direction of a navigation step.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// Event describes the lightbox after a transition.
type Event struct {
	Session    string // changes on every Open
	Generation uint64 // increases on every transition
	Closed     bool
	Record     catalog.ImageRecord
	Index      int // 0-based position in the open list, -1 when closed
	Total      int
}

// Position is the 1-based index shown to the user.
func (e Event) Position() int { return e.Index + 1 }

// Counter renders "<position> / <total>", or "" when there is nothing to
// step through.
func (e Event) Counter() string {
	if e.Closed || e.Total <= 1 {
		return ""
	}
	return fmt.Sprintf("%d / %d", e.Position(), e.Total)
}

// Navigator is the lightbox state machine. It is safe for concurrent use;
// listeners are called in transition order.
type Navigator struct {
	opMu sync.Mutex // serializes transition-then-notify
	mu   sync.RWMutex

	list       []catalog.ImageRecord
	index      int
	session    string
	generation uint64

	listeners map[int]func(Event)
	nextID    int
	log       logrus.FieldLogger
}

// New creates a closed Navigator.
func New(log logrus.FieldLogger) *Navigator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Navigator{index: -1, listeners: make(map[int]func(Event)), log: log}
}

// Open shows record, taking a snapshot of list as the navigation context.
// Any earlier session is replaced. An empty list is treated as a list holding
// only record.
func (n *Navigator) Open(record catalog.ImageRecord, list []catalog.ImageRecord) Event {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	snapshot := catalog.CloneAll(list)
	if len(snapshot) == 0 {
		snapshot = []catalog.ImageRecord{record.Clone()}
	}
	index := -1
	for i, r := range snapshot {
		if r.ID == record.ID {
			index = i
			break
		}
	}
	if index < 0 {
		n.log.WithError(ErrRecordNotFound).WithFields(logrus.Fields{
			"id":  record.ID,
			"src": record.Src,
		}).Warn("Opening lightbox at first record")
		index = 0
	}

	n.mu.Lock()
	n.list = snapshot
	n.index = index
	n.session = uuid.NewString()
	n.generation++
	ev := n.eventLocked()
	n.mu.Unlock()

	n.notify(ev)
	return ev
}

// Navigate steps through the open list, wrapping at both ends. It reports
// false and changes nothing when the lightbox is closed, the list has fewer
// than two records, or dir is not Previous or Next.
func (n *Navigator) Navigate(dir Direction) (Event, bool) {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	n.mu.Lock()
	length := len(n.list)
	if n.index < 0 || length <= 1 || (dir != Previous && dir != Next) {
		ev := n.eventLocked()
		n.mu.Unlock()
		return ev, false
	}
	n.index = (n.index + int(dir) + length) % length
	n.generation++
	ev := n.eventLocked()
	n.mu.Unlock()

	n.notify(ev)
	return ev, true
}

// Close hides the lightbox and drops the context list. It reports false if
// the lightbox was already closed.
func (n *Navigator) Close() (Event, bool) {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	n.mu.Lock()
	if n.index < 0 {
		ev := n.eventLocked()
		n.mu.Unlock()
		return ev, false
	}
	n.list = nil
	n.index = -1
	n.generation++
	ev := n.eventLocked()
	n.mu.Unlock()

	n.notify(ev)
	return ev, true
}

// State reports whether the lightbox is open.
func (n *Navigator) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.index < 0 {
		return Closed
	}
	return Open
}

// Index returns the current position, or -1 when closed.
func (n *Navigator) Index() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index
}

// Len returns the size of the open list (0 when closed).
func (n *Navigator) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.list)
}

// Current returns the event describing the present state.
func (n *Navigator) Current() Event {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.eventLocked()
}

// IsCurrent reports whether generation still identifies the showing record.
// Work started for an older generation should be discarded.
func (n *Navigator) IsCurrent(generation uint64) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index >= 0 && n.generation == generation
}

// Subscribe registers fn for future transitions and returns a function that
// removes it. fn must not call back into the Navigator.
func (n *Navigator) Subscribe(fn func(Event)) (cancel func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

func (n *Navigator) eventLocked() Event {
	ev := Event{
		Session:    n.session,
		Generation: n.generation,
		Index:      n.index,
		Total:      len(n.list),
		Closed:     n.index < 0,
	}
	if n.index >= 0 {
		ev.Record = n.list[n.index].Clone()
	}
	return ev
}

// notify runs listeners outside mu. Caller holds opMu.
func (n *Navigator) notify(ev Event) {
	n.mu.RLock()
	fns := make([]func(Event), 0, len(n.listeners))
	for id := 0; id < n.nextID; id++ {
		if fn, ok := n.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	n.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
