package schedule

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"timetable-service/internal/timegrid"
)

// Store holds one teacher's sessions and recurring templates. It is not
// safe for concurrent writers; callers serialize mutations per teacher.
type Store struct {
	grid      *timegrid.Grid
	sessions  map[SessionID]Session
	templates map[string]RecurringTemplate
	newID     func() string
}

type StoreOption func(*Store)

// WithIDGenerator replaces uuid-based ids, mostly for tests.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) { s.newID = fn }
}

func NewStore(grid *timegrid.Grid, opts ...StoreOption) *Store {
	if grid == nil {
		grid = timegrid.Default()
	}
	s := &Store{
		grid:      grid,
		sessions:  make(map[SessionID]Session),
		templates: make(map[string]RecurringTemplate),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load seeds the store with already persisted state.
func (s *Store) Load(sessions []Session, templates []RecurringTemplate) error {
	for _, sess := range sessions {
		if sess.ID == "" {
			return &ValidationError{Field: "id", Reason: "persisted session without id"}
		}
		if _, dup := s.sessions[sess.ID]; dup {
			return fmt.Errorf("load: duplicate session id %s", sess.ID)
		}
		if err := sess.validate(); err != nil {
			return fmt.Errorf("load session %s: %w", sess.ID, err)
		}
		s.sessions[sess.ID] = sess
	}
	for _, t := range templates {
		if t.ID == "" {
			return &ValidationError{Field: "id", Reason: "persisted template without id"}
		}
		if _, dup := s.templates[t.ID]; dup {
			return fmt.Errorf("load: duplicate template id %s", t.ID)
		}
		s.templates[t.ID] = t
	}
	return nil
}

func (s *Store) Grid() *timegrid.Grid { return s.grid }

func (s *Store) Len() int { return len(s.sessions) }

// Create validates sess, refuses breaks and overlaps, and stores it.
func (s *Store) Create(sess Session) (Session, error) {
	if err := s.checkPlacement(sess, ""); err != nil {
		return Session{}, err
	}
	if sess.ID == "" {
		sess.ID = s.newID()
	} else if _, taken := s.sessions[sess.ID]; taken {
		return Session{}, &ValidationError{Field: "id", Reason: fmt.Sprintf("session %s already exists", sess.ID)}
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) checkPlacement(sess Session, ignore SessionID) error {
	if err := sess.validate(); err != nil {
		return err
	}
	if brk, ok := s.grid.BreakOverlapping(sess.StartTime, sess.EndTime); ok {
		return &ValidationError{
			Field:  "start_time",
			Reason: fmt.Sprintf("%s-%s overlaps %s (%s-%s)", sess.StartTime, sess.EndTime, brk.Label, brk.Start, brk.End),
		}
	}
	if blocking, ok := FindConflict(sess.Day, sess.StartTime, sess.EndTime, s.others(ignore)); ok {
		return &ConflictError{Blocking: blocking.Booking()}
	}
	return nil
}

func (s *Store) Get(id SessionID) (Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, sessionNotFound(id)
	}
	return sess, nil
}

func (s *Store) Delete(id SessionID) (Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, sessionNotFound(id)
	}
	delete(s.sessions, id)
	return sess, nil
}

// List returns every session ordered by day, start and id.
func (s *Store) List() []Session {
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sortSessions(out)
	return out
}

func (s *Store) ListByDay(day timegrid.Day) []Session {
	var out []Session
	for _, sess := range s.sessions {
		if sess.Day == day {
			out = append(out, sess)
		}
	}
	sortSessions(out)
	return out
}

// Patch lists the fields Replace may change; nil means unchanged.
// An empty CustomLabel clears the label.
type Patch struct {
	ClassRef    *string         `json:"class_ref,omitempty"`
	Day         *timegrid.Day   `json:"day,omitempty"`
	StartTime   *timegrid.Clock `json:"start_time,omitempty"`
	EndTime     *timegrid.Clock `json:"end_time,omitempty"`
	Room        *string         `json:"room,omitempty"`
	SessionType *SessionType    `json:"session_type,omitempty"`
	CustomLabel *string         `json:"custom_label,omitempty"`
}

func (p Patch) movesTime() bool {
	return p.Day != nil || p.StartTime != nil || p.EndTime != nil
}

// Replace applies patch to id. Moving a merged session is refused; it
// has to be split first.
func (s *Store) Replace(id SessionID, patch Patch) (Session, error) {
	cur, ok := s.sessions[id]
	if !ok {
		return Session{}, sessionNotFound(id)
	}
	if cur.IsMerged && patch.movesTime() {
		return Session{}, &ValidationError{Field: "start_time", Reason: "split a merged session before moving it"}
	}
	next := cur
	if patch.ClassRef != nil {
		next.ClassRef = *patch.ClassRef
	}
	if patch.Day != nil {
		next.Day = *patch.Day
	}
	if patch.StartTime != nil {
		next.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		next.EndTime = *patch.EndTime
	}
	if patch.Room != nil {
		next.Room = *patch.Room
	}
	if patch.SessionType != nil {
		next.SessionType = *patch.SessionType
	}
	if patch.CustomLabel != nil {
		if *patch.CustomLabel == "" {
			next.CustomLabel = nil
		} else {
			next.CustomLabel = strPtr(*patch.CustomLabel)
		}
	}
	if err := s.checkPlacement(next, id); err != nil {
		return Session{}, err
	}
	s.sessions[id] = next
	return next, nil
}

// others lists every session except ignore.
func (s *Store) others(ignore SessionID) []Session {
	out := make([]Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if id != ignore {
			out = append(out, sess)
		}
	}
	return out
}

func (s *Store) has(id SessionID) bool {
	_, ok := s.sessions[id]
	return ok
}

// put and remove are the only unchecked mutations; the engine calls them
// after validating a whole merge or split.
func (s *Store) put(sess Session) { s.sessions[sess.ID] = sess }
func (s *Store) remove(id SessionID) { delete(s.sessions, id) }

func (s *Store) CreateTemplate(t RecurringTemplate) (RecurringTemplate, error) {
	if err := t.validate(); err != nil {
		return RecurringTemplate{}, err
	}
	if brk, ok := s.grid.BreakOverlapping(t.StartTime, t.EndTime); ok {
		return RecurringTemplate{}, &ValidationError{
			Field:  "start_time",
			Reason: fmt.Sprintf("%s-%s overlaps %s", t.StartTime, t.EndTime, brk.Label),
		}
	}
	for _, other := range s.Templates() {
		if other.Day != t.Day || !other.semesterIntersects(t) {
			continue
		}
		if overlaps(other.StartTime, other.EndTime, t.StartTime, t.EndTime) {
			return RecurringTemplate{}, &ConflictError{Blocking: other.Booking()}
		}
	}
	if t.ID == "" {
		t.ID = s.newID()
	} else if _, taken := s.templates[t.ID]; taken {
		return RecurringTemplate{}, &ValidationError{Field: "id", Reason: fmt.Sprintf("template %s already exists", t.ID)}
	}
	s.templates[t.ID] = t
	return t, nil
}

func (s *Store) GetTemplate(id string) (RecurringTemplate, error) {
	t, ok := s.templates[id]
	if !ok {
		return RecurringTemplate{}, templateNotFound(id)
	}
	return t, nil
}

func (s *Store) DeleteTemplate(id string) (RecurringTemplate, error) {
	t, ok := s.templates[id]
	if !ok {
		return RecurringTemplate{}, templateNotFound(id)
	}
	delete(s.templates, id)
	return t, nil
}

// Templates returns templates ordered by day, start and id.
func (s *Store) Templates() []RecurringTemplate {
	out := make([]RecurringTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
	return out
}

func sortSessions(out []Session) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}
