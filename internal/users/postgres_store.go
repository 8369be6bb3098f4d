package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/telemetry/tracing"
	"github.com/2beens/sportsee/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// Schema creates the tables used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS sportsee_user (
	id              TEXT PRIMARY KEY,
	username        TEXT NOT NULL UNIQUE,
	password_hash   TEXT NOT NULL,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL DEFAULT '',
	age             INTEGER NOT NULL DEFAULT 0,
	weight          DOUBLE PRECISION NOT NULL DEFAULT 0,
	height          DOUBLE PRECISION NOT NULL DEFAULT 0,
	profile_picture TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS running_session (
	id         SERIAL PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES sportsee_user (id) ON DELETE CASCADE,
	date       DATE NOT NULL,
	distance   DOUBLE PRECISION NOT NULL DEFAULT 0,
	duration   DOUBLE PRECISION NOT NULL DEFAULT 0,
	calories   DOUBLE PRECISION NOT NULL DEFAULT 0,
	hr_min     DOUBLE PRECISION,
	hr_max     DOUBLE PRECISION,
	hr_average DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS running_session_user_date_idx ON running_session (user_id, date);
`

const selectUserColumns = `id, username, password_hash, first_name, last_name, created_at, age, weight, height, profile_picture`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.ensureSchema")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = s.db.Exec(ctx, Schema)
	return err
}

func (s *PostgresStore) ByUsername(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.byUsername")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("username", username))

	return s.queryUser(ctx, `SELECT `+selectUserColumns+` FROM sportsee_user WHERE username = $1;`, username)
}

func (s *PostgresStore) ByID(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.byId")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	return s.queryUser(ctx, `SELECT `+selectUserColumns+` FROM sportsee_user WHERE id = $1;`, id)
}

func (s *PostgresStore) queryUser(ctx context.Context, query string, arg string) (*User, error) {
	var u User
	p := &u.UserInfos
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash,
		&p.FirstName, &p.LastName, &p.CreatedAt, &p.Age, &p.Weight, &p.Height, &p.ProfilePicture,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) Sessions(ctx context.Context, userID string, rng running.DateRange) (_ []running.RawSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.sessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("range.start", rng.StartIso),
		attribute.String("range.end", rng.EndIso),
	)

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sportsee_user WHERE id = $1);`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	query, args, err := sessionsQuery(userID, rng)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []running.RawSession{}
	for rows.Next() {
		var session running.RawSession
		var hrMin, hrMax, hrAvg *float64
		if err := rows.Scan(
			&session.Date, &session.Distance, &session.Duration, &session.CaloriesBurned,
			&hrMin, &hrMax, &hrAvg,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if hrMin != nil || hrMax != nil || hrAvg != nil {
			session.HeartRate = &running.RawHeartRate{
				Min:     deref(hrMin),
				Max:     deref(hrMax),
				Average: deref(hrAvg),
			}
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("sessions.count", len(sessions)))

	return sessions, nil
}

func sessionsQuery(userID string, rng running.DateRange) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			to_char(date, 'YYYY-MM-DD'), distance, duration, calories, hr_min, hr_max, hr_average
		FROM running_session
		WHERE user_id = $1`)
	args := []any{userID}

	if rng.StartIso != "" {
		start, err := running.ParseLocalDate(rng.StartIso)
		if err != nil {
			return "", nil, err
		}
		args = append(args, start)
		sb.WriteString(fmt.Sprintf(" AND date >= $%d", len(args)))
	}
	if rng.EndIso != "" {
		end, err := running.ParseLocalDate(rng.EndIso)
		if err != nil {
			return "", nil, err
		}
		args = append(args, end)
		sb.WriteString(fmt.Sprintf(" AND date <= $%d", len(args)))
	}
	sb.WriteString(" ORDER BY date ASC, id ASC;")

	return sb.String(), args, nil
}

// Insert stores the user and its sessions in one transaction.
// A plain password is hashed before it is stored.
func (s *PostgresStore) Insert(ctx context.Context, user User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.insert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", user.ID))

	passwordHash := user.PasswordHash
	if passwordHash == "" {
		passwordHash, err = pkg.HashPasswordWithCost(user.Password, bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	p := user.UserInfos
	if _, err = tx.Exec(
		ctx,
		`INSERT INTO sportsee_user (`+selectUserColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		user.ID, user.Username, passwordHash,
		p.FirstName, p.LastName, p.CreatedAt, p.Age, p.Weight, p.Height, p.ProfilePicture,
	); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return fmt.Errorf("%w: %s", ErrUserExists, user.ID)
		}
		return err
	}

	batch := &pgx.Batch{}
	for _, session := range user.RunningData {
		date, err := running.ParseLocalDate(session.Date)
		if err != nil {
			return err
		}
		var hrMin, hrMax, hrAvg *float64
		if hr := session.HeartRate; hr != nil {
			hrMin, hrMax, hrAvg = &hr.Min, &hr.Max, &hr.Average
		}
		batch.Queue(
			`INSERT INTO running_session (user_id, date, distance, duration, calories, hr_min, hr_max, hr_average)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
			user.ID, date, session.Distance, session.Duration, session.CaloriesBurned, hrMin, hrMax, hrAvg,
		)
	}
	if batch.Len() > 0 {
		if err = tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert sessions: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

var _ Store = (*PostgresStore)(nil)
