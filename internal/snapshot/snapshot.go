package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/tree"
	"github.com/vk/liveui/internal/value"
)

// Key addresses one captured attribute.
type Key struct {
	ID   nodeid.ID
	Name string
}

func (k Key) String() string {
	return string(k.ID) + "#" + k.Name
}

// Snapshot is an immutable point-in-time capture. It is consumed at most
// once and its entries are discarded afterwards.
type Snapshot struct {
	ID    uuid.UUID
	Taken time.Time

	mu       sync.RWMutex
	entries  map[Key][]byte
	consumed atomic.Bool
}

// Info is the payload-free description of a snapshot that is safe to hand
// to other components after the snapshot itself has been consumed.
type Info struct {
	ID      uuid.UUID `json:"id"`
	Taken   time.Time `json:"taken"`
	Entries int       `json:"entries"`
}

// Report summarizes a restoration pass.
type Report struct {
	Restored int   `json:"restored"`
	Dropped  int   `json:"dropped"`
	Lost     []Key `json:"-"`
}

// entry is the stored form of one captured attribute. Springs also carry
// their target and velocity so motion resumes where it left off.
type entry struct {
	Value    value.Value `msgpack:"v"`
	Target   float64     `msgpack:"t,omitempty"`
	Velocity float64     `msgpack:"dv,omitempty"`
}

var (
	marshal   = msgpack.Marshal
	unmarshal = msgpack.Unmarshal
)

// EncodeError reports an attribute that could not be captured.
type EncodeError struct {
	Key Key
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("snapshot: encode %s: %v", e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Capture walks t depth-first and records every persistent attribute:
// persistent state, machine states, and in-flight animations and springs.
// Derived values are never captured. Attributes that fail to encode are
// left out of the snapshot and reported as joined *EncodeError values; the
// snapshot is returned either way.
func Capture(t *tree.Tree, now time.Time) (*Snapshot, error) {
	s := &Snapshot{
		ID:      uuid.New(),
		Taken:   now,
		entries: make(map[Key][]byte),
	}
	var errs []error
	put := func(k Key, e entry) {
		if err := s.put(k, e); err != nil {
			errs = append(errs, err)
		}
	}
	t.Walk(func(n, _ *tree.Node) bool {
		for _, sv := range n.State {
			if sv.Persistent {
				put(Key{ID: n.ID, Name: tree.StatePrefix + sv.Name}, entry{Value: sv.Value})
			}
		}
		for _, m := range n.Machines {
			put(Key{ID: n.ID, Name: tree.MachinePrefix + m.Decl.Name}, entry{Value: value.Enum(m.Current)})
		}
		for _, a := range n.Animations {
			if a.InFlight() {
				put(Key{ID: n.ID, Name: tree.AnimationPrefix + a.Name}, entry{Value: value.Number(a.Progress)})
			}
		}
		for _, sp := range n.Springs {
			if sp.InFlight() {
				put(Key{ID: n.ID, Name: tree.SpringPrefix + sp.Decl.Name}, entry{
					Value:    value.Number(sp.Value),
					Target:   sp.Target,
					Velocity: sp.Velocity,
				})
			}
		}
		return true
	})
	return s, errors.Join(errs...)
}

func (s *Snapshot) put(k Key, e entry) error {
	b, err := marshal(e)
	if err != nil {
		return &EncodeError{Key: k, Err: err}
	}
	s.entries[k] = b
	return nil
}

func (s *Snapshot) lookup(k Key) (entry, bool) {
	s.mu.RLock()
	b, ok := s.entries[k]
	s.mu.RUnlock()
	if !ok {
		return entry{}, false
	}
	var e entry
	if err := unmarshal(b, &e); err != nil {
		return entry{}, false
	}
	return e, true
}

// Len is the number of captured entries.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys lists captured keys in identity then name order.
func (s *Snapshot) Keys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}

// Value decodes one captured entry.
func (s *Snapshot) Value(k Key) (value.Value, bool) {
	e, ok := s.lookup(k)
	if !ok {
		return value.Null, false
	}
	return e.Value, true
}

// Info describes the snapshot without exposing its entries.
func (s *Snapshot) Info() Info {
	return Info{ID: s.ID, Taken: s.Taken, Entries: s.Len()}
}

// MarkConsumed flags the snapshot as used. It returns false when the
// snapshot had already been consumed.
func (s *Snapshot) MarkConsumed() bool {
	return s.consumed.CompareAndSwap(false, true)
}

// Consumed reports whether MarkConsumed has been called.
func (s *Snapshot) Consumed() bool {
	return s.consumed.Load()
}

// Discard drops every entry.
func (s *Snapshot) Discard() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Restore overwrites initial values in t with captured ones, in place, and
// then recomputes derived values from the restored state. Entries that do
// not fit t are dropped and listed in the report.
func Restore(t *tree.Tree, s *Snapshot) Report {
	var r Report
	for _, k := range s.Keys() {
		e, ok := s.lookup(k)
		if ok {
			ok = apply(t, k, e)
		}
		if ok {
			r.Restored++
			continue
		}
		r.Dropped++
		r.Lost = append(r.Lost, k)
	}
	t.Walk(func(n, _ *tree.Node) bool {
		_ = n.Recompute()
		return true
	})
	return r
}

func apply(t *tree.Tree, k Key, e entry) bool {
	n, ok := t.Find(k.ID)
	if !ok {
		return false
	}
	v := e.Value
	switch {
	case strings.HasPrefix(k.Name, tree.StatePrefix):
		sv, ok := n.StateVar(strings.TrimPrefix(k.Name, tree.StatePrefix))
		if !ok || !sv.Persistent {
			return false
		}
		// A retyped variable keeps its new initial value.
		if !sv.Value.IsNull() && sv.Value.Kind() != v.Kind() {
			return false
		}
		sv.Value = v
		return true

	case strings.HasPrefix(k.Name, tree.MachinePrefix):
		m, ok := n.Machine(strings.TrimPrefix(k.Name, tree.MachinePrefix))
		if !ok || v.Kind() != value.KindEnum {
			return false
		}
		state, _ := v.AsString()
		if !m.Decl.HasState(state) {
			return false
		}
		m.Current = state
		return true

	case strings.HasPrefix(k.Name, tree.AnimationPrefix):
		a, ok := n.Animation(strings.TrimPrefix(k.Name, tree.AnimationPrefix))
		if !ok {
			return false
		}
		p, isNum := v.AsNumber()
		if !isNum || p <= 0 || p >= 1 {
			return false
		}
		a.Progress = p
		return true

	case strings.HasPrefix(k.Name, tree.SpringPrefix):
		sp, ok := n.Spring(strings.TrimPrefix(k.Name, tree.SpringPrefix))
		if !ok {
			return false
		}
		x, isNum := v.AsNumber()
		if !isNum {
			return false
		}
		sp.Value, sp.Target, sp.Velocity = x, e.Target, e.Velocity
		return true
	}
	return false
}
