package logs

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/abtracker/internal/telemetry/tracing"
	"github.com/2beens/abtracker/internal/workout"
	"github.com/2beens/abtracker/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const schema = `
CREATE TABLE IF NOT EXISTS workout_log (
	seq         BIGSERIAL UNIQUE,
	id          BIGINT PRIMARY KEY,
	template_id TEXT NOT NULL,
	date        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS workout_log_set (
	log_id      BIGINT NOT NULL REFERENCES workout_log (id),
	position    INT NOT NULL,
	exercise_id TEXT NOT NULL,
	weight      DOUBLE PRECISION NOT NULL,
	reps        INT NOT NULL,
	PRIMARY KEY (log_id, position)
);
`

// PsqlRepo keeps the log in postgres. The append order is the order of
// the seq column, not of ids.
type PsqlRepo struct {
	db *pgxpool.Pool
}

func NewPsqlRepo(db *pgxpool.Pool) *PsqlRepo {
	return &PsqlRepo{
		db: db,
	}
}

func (r *PsqlRepo) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.ensure-schema")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create workout log tables: %w", err)
	}
	return nil
}

func (r *PsqlRepo) Add(ctx context.Context, entry workout.LogEntry) (_ *workout.LogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("log.id", entry.ID))
	span.SetAttributes(attribute.Int("log.sets", len(entry.Sets)))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO workout_log (id, template_id, date)
		VALUES ($1, $2, $3)
	`,
		entry.ID, entry.TemplateID, entry.Date,
	); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateLogEntry, entry.ID)
		}
		return nil, fmt.Errorf("insert workout log: %w", err)
	}

	if len(entry.Sets) > 0 {
		batch := &pgx.Batch{}
		for i, set := range entry.Sets {
			batch.Queue(`
				INSERT INTO workout_log_set (log_id, position, exercise_id, weight, reps)
				VALUES ($1, $2, $3, $4, $5)
			`, entry.ID, i, set.ExerciseID, set.Weight, set.Reps)
		}

		br := tx.SendBatch(ctx, batch)
		for range entry.Sets {
			if _, err = br.Exec(); err != nil {
				_ = br.Close()
				return nil, fmt.Errorf("insert workout log set: %w", err)
			}
		}
		if err = br.Close(); err != nil {
			return nil, fmt.Errorf("close sets batch: %w", err)
		}
	}

	added := copyEntry(entry)
	return &added, nil
}

func (r *PsqlRepo) Get(ctx context.Context, id int64) (_ *workout.LogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("log.id", id))

	entries, err := r.list(ctx, `WHERE l.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrLogEntryNotFound
	}
	return &entries[0], nil
}

func (r *PsqlRepo) ListAll(ctx context.Context) (_ []workout.LogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entries, err := r.list(ctx, "")
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("log.count", len(entries)))
	return entries, nil
}

func (r *PsqlRepo) list(ctx context.Context, where string, args ...any) ([]workout.LogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.template_id, l.date, s.exercise_id, s.weight, s.reps
		FROM workout_log l
		LEFT JOIN workout_log_set s ON s.log_id = l.id
		`+where+`
		ORDER BY l.seq ASC, s.position ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]workout.LogEntry, 0)
	for rows.Next() {
		var (
			id         int64
			templateID string
			date       string
			exerciseID *string
			weight     *float64
			reps       *int
		)
		if err := rows.Scan(&id, &templateID, &date, &exerciseID, &weight, &reps); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}

		if len(entries) == 0 || entries[len(entries)-1].ID != id {
			entries = append(entries, workout.LogEntry{
				ID:         id,
				TemplateID: templateID,
				Date:       date,
				Sets:       []workout.SetEntry{},
			})
		}

		// no sets for this log (left join)
		if exerciseID == nil || weight == nil || reps == nil {
			continue
		}

		last := &entries[len(entries)-1]
		last.Sets = append(last.Sets, workout.SetEntry{
			ExerciseID: *exerciseID,
			Weight:     *weight,
			Reps:       *reps,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *PsqlRepo) Count(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workout_log`).Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

func (r *PsqlRepo) LastID(ctx context.Context) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.lastid")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var last *int64
	if err := r.db.QueryRow(ctx, `SELECT MAX(id) FROM workout_log`).Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	if last == nil {
		return 0, nil
	}
	return *last, nil
}
