package schedule

import (
	"go.uber.org/zap"
)

// DefaultLabel is used when a merge does not name its lab session.
const DefaultLabel = "Lab Session"

// Delta is the complete persisted effect of one engine operation.
type Delta struct {
	Upserted          []Session           `json:"upserted,omitempty"`
	Deleted           []SessionID         `json:"deleted,omitempty"`
	TemplatesUpserted []RecurringTemplate `json:"templates_upserted,omitempty"`
	TemplatesDeleted  []string            `json:"templates_deleted,omitempty"`
}

func (d Delta) Empty() bool {
	return len(d.Upserted) == 0 && len(d.Deleted) == 0 &&
		len(d.TemplatesUpserted) == 0 && len(d.TemplatesDeleted) == 0
}

// Append folds o into d. An upsert in d is dropped when o deletes or
// rewrites the same session, so an id present in both Upserted and
// Deleted always means "delete, then write".
func (d Delta) Append(o Delta) Delta {
	superseded := make(map[SessionID]bool, len(o.Upserted)+len(o.Deleted))
	for _, s := range o.Upserted {
		superseded[s.ID] = true
	}
	for _, id := range o.Deleted {
		superseded[id] = true
	}
	var kept []Session
	for _, s := range d.Upserted {
		if !superseded[s.ID] {
			kept = append(kept, s)
		}
	}
	d.Upserted = append(kept, o.Upserted...)
	d.Deleted = append(d.Deleted, o.Deleted...)
	d.TemplatesUpserted = append(d.TemplatesUpserted, o.TemplatesUpserted...)
	d.TemplatesDeleted = append(d.TemplatesDeleted, o.TemplatesDeleted...)
	return d
}

type MergeResult struct {
	Session  Session   `json:"session"`
	Absorbed SessionID `json:"absorbed"`
}

func (r MergeResult) Delta() Delta {
	return Delta{Upserted: []Session{r.Session}, Deleted: []SessionID{r.Absorbed}}
}

type SplitResult struct {
	First  Session `json:"first"`
	Second Session `json:"second"`
}

func (r SplitResult) Delta() Delta {
	return Delta{Upserted: []Session{r.First, r.Second}}
}

// PlaceResult is a created or reclassified session and the merge it
// triggered, if any.
type PlaceResult struct {
	Session Session      `json:"session"`
	Merge   *MergeResult `json:"merge,omitempty"`

	created bool
}

func (r PlaceResult) Delta() Delta {
	if r.Merge == nil {
		return Delta{Upserted: []Session{r.Session}}
	}
	d := Delta{Upserted: []Session{r.Merge.Session}}
	// A freshly created session absorbed by the merge was never persisted.
	if !(r.created && r.Merge.Absorbed == r.Session.ID) {
		d.Deleted = []SessionID{r.Merge.Absorbed}
	}
	return d
}

// Engine runs merge, split and auto-merge over a Store.
type Engine struct {
	store        *Store
	rules        *Rules
	log          *zap.Logger
	defaultLabel string
}

type EngineOption func(*Engine)

func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithDefaultLabel(label string) EngineOption {
	return func(e *Engine) {
		if label != "" {
			e.defaultLabel = label
		}
	}
}

func NewEngine(store *Store, rules *Rules, opts ...EngineOption) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	e := &Engine{store: store, rules: rules, log: zap.NewNop(), defaultLabel: DefaultLabel}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() *Store { return e.store }
func (e *Engine) Rules() *Rules { return e.rules }

// Candidates lists merge candidates across the whole store.
func (e *Engine) Candidates() []MergeCandidate {
	return MergeCandidates(e.store.List(), e.rules)
}

// Merge folds secondID into firstID. All checks run before the store is
// touched, so a failed merge leaves it unchanged.
func (e *Engine) Merge(firstID, secondID SessionID, customLabel *string) (MergeResult, error) {
	first, err := e.store.Get(firstID)
	if err != nil {
		return MergeResult{}, err
	}
	second, err := e.store.Get(secondID)
	if err != nil {
		return MergeResult{}, err
	}
	block, err := e.rules.Pair(first, second)
	if err != nil {
		return MergeResult{}, err
	}

	label := e.defaultLabel
	if customLabel != nil && *customLabel != "" {
		label = *customLabel
	}

	earlier, later := first, second
	if later.StartTime < earlier.StartTime {
		earlier, later = later, earlier
	}

	merged := first
	merged.Room = earlier.Room
	merged.SecondRoom = later.Room
	merged.StartTime = block.Start()
	merged.EndTime = block.End()
	merged.PreviousType = first.SessionType
	merged.SessionType = Lab
	merged.IsMerged = true
	merged.MergedWith = strPtr(secondID)
	merged.CustomLabel = strPtr(label)

	e.store.remove(secondID)
	e.store.put(merged)

	e.log.Debug("sessions merged",
		zap.String("session_id", merged.ID),
		zap.String("absorbed_id", secondID),
		zap.String("class_ref", merged.ClassRef),
		zap.Stringer("day", merged.Day),
		zap.Stringer("block", block),
	)
	return MergeResult{Session: merged, Absorbed: secondID}, nil
}

// Split restores the two one-hour halves of a merged session. The first
// half keeps the merged id; the second reuses MergedWith when it is free.
func (e *Engine) Split(mergedID SessionID) (SplitResult, error) {
	s, err := e.store.Get(mergedID)
	if err != nil {
		return SplitResult{}, err
	}
	if !s.IsMerged {
		return SplitResult{}, &InvalidSplitError{ID: mergedID, Reason: "session is not merged"}
	}
	block, ok := e.rules.BlockSpanning(s.StartTime, s.EndTime)
	if !ok {
		return SplitResult{}, &InvalidSplitError{
			ID:     mergedID,
			Reason: "merged range " + s.StartTime.String() + "-" + s.EndTime.String() + " matches no lab block",
		}
	}

	restored := s.PreviousType
	if restored == "" {
		restored = Lecture
	}

	first := s
	first.StartTime, first.EndTime = block.First.Start, block.First.End
	first.SessionType = restored
	first.PreviousType = ""
	first.IsMerged = false
	first.MergedWith = nil
	first.CustomLabel = nil
	first.SecondRoom = ""

	secondID := ""
	if s.MergedWith != nil && !e.store.has(*s.MergedWith) {
		secondID = *s.MergedWith
	} else {
		secondID = e.store.newID()
	}
	second := Session{
		ID:          secondID,
		ClassRef:    s.ClassRef,
		Day:         s.Day,
		StartTime:   block.Second.Start,
		EndTime:     block.Second.End,
		Room:        s.SecondRoom,
		SessionType: restored,
	}

	rest := e.store.others(mergedID)
	for _, half := range []Session{first, second} {
		if blocking, clash := FindConflict(half.Day, half.StartTime, half.EndTime, rest); clash {
			return SplitResult{}, &ConflictError{Blocking: blocking.Booking()}
		}
	}

	e.store.put(first)
	e.store.put(second)

	e.log.Debug("session split",
		zap.String("session_id", first.ID),
		zap.String("restored_id", second.ID),
		zap.Stringer("block", block),
	)
	return SplitResult{First: first, Second: second}, nil
}

// Create stores a session without the auto-merge policy.
func (e *Engine) Create(s Session) (Session, error) {
	return e.store.Create(s)
}

// Place creates s and, when its partner slot already holds the same
// class, merges the two exactly as a manual Merge would.
func (e *Engine) Place(s Session) (PlaceResult, error) {
	created, err := e.store.Create(s)
	if err != nil {
		return PlaceResult{}, err
	}
	res := PlaceResult{Session: created, created: true}

	mr, err := e.autoMerge(created)
	if err != nil {
		e.store.remove(created.ID)
		return PlaceResult{}, err
	}
	res.Merge = mr
	return res, nil
}

// ChangeClass moves a session to another class and applies auto-merge.
func (e *Engine) ChangeClass(id SessionID, classRef string) (PlaceResult, error) {
	updated, err := e.store.Replace(id, Patch{ClassRef: &classRef})
	if err != nil {
		return PlaceResult{}, err
	}
	res := PlaceResult{Session: updated}
	if updated.IsMerged {
		return res, nil
	}
	mr, err := e.autoMerge(updated)
	if err != nil {
		return PlaceResult{}, err
	}
	res.Merge = mr
	return res, nil
}

func (e *Engine) autoMerge(s Session) (*MergeResult, error) {
	block, half, ok := e.rules.FindBlockForSlot(s.StartTime, s.EndTime)
	if !ok {
		return nil, nil
	}
	partnerSlot := e.rules.PartnerSlot(block, half)
	for _, p := range e.store.ListByDay(s.Day) {
		if p.ID == s.ID || p.IsMerged || p.ClassRef != s.ClassRef || !occupies(p, partnerSlot) {
			continue
		}
		firstID, secondID := s.ID, p.ID
		if half == SecondHalf {
			firstID, secondID = p.ID, s.ID
		}
		mr, err := e.Merge(firstID, secondID, nil)
		if err != nil {
			return nil, err
		}
		return &mr, nil
	}
	return nil, nil
}

// Remove deletes a session.
func (e *Engine) Remove(id SessionID) (Delta, error) {
	if _, err := e.store.Delete(id); err != nil {
		return Delta{}, err
	}
	return Delta{Deleted: []SessionID{id}}, nil
}

// AutoMergeAll merges every current candidate. Blocks never share slots,
// so candidates are disjoint and each merge is independent.
func (e *Engine) AutoMergeAll(customLabel *string) ([]MergeResult, error) {
	var out []MergeResult
	for _, c := range e.Candidates() {
		mr, err := e.Merge(c.First.ID, c.Second.ID, customLabel)
		if err != nil {
			return out, err
		}
		out = append(out, mr)
	}
	return out, nil
}

// MergeDelta folds several merges into one Delta.
func MergeDelta(results []MergeResult) Delta {
	var d Delta
	for _, r := range results {
		d = d.Append(r.Delta())
	}
	return d
}
