package schedule

import (
	"fmt"
	"testing"

	"timetable-service/internal/timegrid"
)

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestStore() *Store {
	return NewStore(timegrid.Default(), WithIDGenerator(seqIDs("s")))
}

func newTestEngine() *Engine {
	return NewEngine(newTestStore(), DefaultRules())
}

func mustSession(t *testing.T, day, start, end, classRef, room string) Session {
	t.Helper()
	s, err := NewSession(SessionInput{ClassRef: classRef, Day: day, StartTime: start, EndTime: end, Room: room})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func mustCreate(t *testing.T, st *Store, day, start, end, classRef, room string) Session {
	t.Helper()
	s, err := st.Create(mustSession(t, day, start, end, classRef, room))
	if err != nil {
		t.Fatalf("Create %s %s-%s: %v", day, start, end, err)
	}
	return s
}
