package app

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timetable-service/internal/schedule"
	"timetable-service/internal/timegrid"
)

// Repository loads and persists one teacher's schedule. Mutate must run
// fn and persist its Delta atomically, serialized per teacher.
type Repository interface {
	Load(ctx context.Context, teacherID string) (Schedule, error)
	Mutate(ctx context.Context, teacherID string, fn func(Schedule) (schedule.Delta, error)) error
}

//go:embed schema.sql
var schemaSQL string

type PostgresRepository struct {
	DB *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{DB: pool}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PostgresRepository) Load(ctx context.Context, teacherID string) (Schedule, error) {
	return loadSchedule(ctx, r.DB, teacherID)
}

// Mutate holds a transaction-scoped advisory lock on the teacher so two
// requests never merge or split the same schedule concurrently.
func (r *PostgresRepository) Mutate(ctx context.Context, teacherID string, fn func(Schedule) (schedule.Delta, error)) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, teacherID); err != nil {
		return fmt.Errorf("lock schedule: %w", err)
	}

	current, err := loadSchedule(ctx, tx, teacherID)
	if err != nil {
		return err
	}
	delta, err := fn(current)
	if err != nil {
		return err
	}
	if delta.Empty() {
		return tx.Commit(ctx)
	}
	if err := applyDelta(ctx, tx, teacherID, delta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func loadSchedule(ctx context.Context, q querier, teacherID string) (Schedule, error) {
	sessions, err := listSessions(ctx, q, teacherID)
	if err != nil {
		return Schedule{}, err
	}
	templates, err := listTemplates(ctx, q, teacherID)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Sessions: sessions, Templates: templates}, nil
}

func listSessions(ctx context.Context, q querier, teacherID string) ([]schedule.Session, error) {
	query := `SELECT id,class_ref,day_of_week,start_time::text,end_time::text,room,session_type,
	                 is_merged,merged_with,custom_label,previous_type,second_room
	          FROM sessions WHERE teacher_id=$1 ORDER BY day_of_week,start_time,id`
	rows, err := q.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Session
	for rows.Next() {
		var s schedule.Session
		var day int
		var start, end, sessionType, previousType string
		if err := rows.Scan(&s.ID, &s.ClassRef, &day, &start, &end, &s.Room, &sessionType,
			&s.IsMerged, &s.MergedWith, &s.CustomLabel, &previousType, &s.SecondRoom); err != nil {
			return nil, err
		}
		s.Day = timegrid.Day(day)
		if s.StartTime, err = timegrid.ParseStoredClock(start); err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		if s.EndTime, err = timegrid.ParseStoredClock(end); err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		s.SessionType = schedule.SessionType(sessionType)
		s.PreviousType = schedule.SessionType(previousType)
		out = append(out, s)
	}
	return out, rows.Err()
}

func listTemplates(ctx context.Context, q querier, teacherID string) ([]schedule.RecurringTemplate, error) {
	query := `SELECT id,class_ref,day_of_week,start_time::text,end_time::text,room,session_type,
	                 semester_start,semester_end,title
	          FROM recurring_templates WHERE teacher_id=$1 ORDER BY day_of_week,start_time,id`
	rows, err := q.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.RecurringTemplate
	for rows.Next() {
		var t schedule.RecurringTemplate
		var day int
		var start, end, sessionType string
		var semStart, semEnd time.Time
		if err := rows.Scan(&t.ID, &t.ClassRef, &day, &start, &end, &t.Room, &sessionType,
			&semStart, &semEnd, &t.Title); err != nil {
			return nil, err
		}
		t.Day = timegrid.Day(day)
		if t.StartTime, err = timegrid.ParseStoredClock(start); err != nil {
			return nil, fmt.Errorf("template %s: %w", t.ID, err)
		}
		if t.EndTime, err = timegrid.ParseStoredClock(end); err != nil {
			return nil, fmt.Errorf("template %s: %w", t.ID, err)
		}
		t.SessionType = schedule.SessionType(sessionType)
		t.SemesterStart = timegrid.DateOf(semStart)
		t.SemesterEnd = timegrid.DateOf(semEnd)
		out = append(out, t)
	}
	return out, rows.Err()
}

// applyDelta deletes before it upserts: a split may re-create a row under
// the id a merge removed.
func applyDelta(ctx context.Context, tx pgx.Tx, teacherID string, d schedule.Delta) error {
	batch := &pgx.Batch{}
	for _, id := range d.Deleted {
		batch.Queue(`DELETE FROM sessions WHERE teacher_id=$1 AND id=$2`, teacherID, id)
	}
	for _, id := range d.TemplatesDeleted {
		batch.Queue(`DELETE FROM recurring_templates WHERE teacher_id=$1 AND id=$2`, teacherID, id)
	}
	for _, s := range d.Upserted {
		batch.Queue(`INSERT INTO sessions
		    (id, teacher_id, class_ref, day_of_week, start_time, end_time, room, session_type,
		     is_merged, merged_with, custom_label, previous_type, second_room, updated_at)
		    VALUES ($1,$2,$3,$4,$5::time,$6::time,$7,$8,$9,$10,$11,$12,$13,now())
		    ON CONFLICT (id) DO UPDATE SET
		     class_ref=EXCLUDED.class_ref, day_of_week=EXCLUDED.day_of_week,
		     start_time=EXCLUDED.start_time, end_time=EXCLUDED.end_time, room=EXCLUDED.room,
		     session_type=EXCLUDED.session_type, is_merged=EXCLUDED.is_merged,
		     merged_with=EXCLUDED.merged_with, custom_label=EXCLUDED.custom_label,
		     previous_type=EXCLUDED.previous_type, second_room=EXCLUDED.second_room, updated_at=now()
		    WHERE sessions.teacher_id=EXCLUDED.teacher_id`,
			s.ID, teacherID, s.ClassRef, int(s.Day), s.StartTime.String(), s.EndTime.String(), s.Room,
			string(s.SessionType), s.IsMerged, s.MergedWith, s.CustomLabel, string(s.PreviousType), s.SecondRoom)
	}
	for _, t := range d.TemplatesUpserted {
		batch.Queue(`INSERT INTO recurring_templates
		    (id, teacher_id, class_ref, day_of_week, start_time, end_time, room, session_type,
		     semester_start, semester_end, title)
		    VALUES ($1,$2,$3,$4,$5::time,$6::time,$7,$8,$9::date,$10::date,$11)
		    ON CONFLICT (id) DO NOTHING`,
			t.ID, teacherID, t.ClassRef, int(t.Day), t.StartTime.String(), t.EndTime.String(), t.Room,
			string(t.SessionType), t.SemesterStart.String(), t.SemesterEnd.String(), t.Title)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("persist schedule change: %w", err)
		}
	}
	return br.Close()
}
