package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
)

const schema = `
CREATE TABLE IF NOT EXISTS cx_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cx_touchpoints (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	position    INT  NOT NULL
);

CREATE TABLE IF NOT EXISTS cx_personas (
	id          TEXT PRIMARY KEY,
	position    BIGSERIAL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	grp         TEXT NOT NULL DEFAULT '',
	relevance   DOUBLE PRECISION NOT NULL,
	volume      DOUBLE PRECISION NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	needs       JSONB NOT NULL DEFAULT '{}',
	journey     TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS cx_services (
	id          TEXT PRIMARY KEY,
	position    BIGSERIAL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	cost        DOUBLE PRECISION NOT NULL,
	enabled     BOOLEAN NOT NULL DEFAULT FALSE,
	fulfillment JSONB NOT NULL DEFAULT '{}'
);`

const uniqueViolation = "23505"

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// BindModel stores the model name in cx_meta on first use. Vectors are kept
// as positional arrays, so reading them under another model would silently
// reorder factors.
func (s *PostgresStore) BindModel(ctx context.Context, model string) error {
	var bound string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO cx_meta (key, value) VALUES ('model', $1)
		ON CONFLICT (key) DO UPDATE SET value = cx_meta.value
		RETURNING value`, model).Scan(&bound)
	if err != nil {
		return fmt.Errorf("bind model: %w", err)
	}
	if bound != model {
		return fmt.Errorf("%w: bound to %q, asked for %q", ErrModelMismatch, bound, model)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFoundIfNone(tag pgconn.CommandTag, kind, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// Touchpoints

func (s *PostgresStore) ListTouchPoints(ctx context.Context) ([]scoring.TouchPoint, error) {
	return listTouchPoints(ctx, s.pool)
}

func listTouchPoints(ctx context.Context, q querier) ([]scoring.TouchPoint, error) {
	rows, err := q.Query(ctx, `SELECT id, name, description FROM cx_touchpoints ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tps := []scoring.TouchPoint{}
	for rows.Next() {
		var tp scoring.TouchPoint
		if err := rows.Scan(&tp.ID, &tp.Name, &tp.Description); err != nil {
			return nil, err
		}
		tps = append(tps, tp)
	}
	return tps, rows.Err()
}

func (s *PostgresStore) ReplaceTouchPoints(ctx context.Context, tps []scoring.TouchPoint) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cx_touchpoints`); err != nil {
		return err
	}
	for i, tp := range tps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cx_touchpoints (id, name, description, position)
			VALUES ($1, $2, $3, $4)`,
			tp.ID, tp.Name, tp.Description, i,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("touchpoint %s: %w", tp.ID, ErrDuplicateID)
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

// Personas

const personaColumns = `id, name, description, grp, relevance, volume, score, needs, journey`

func scanPersona(row pgx.Row) (*scoring.Persona, error) {
	p := &scoring.Persona{}
	var needsJSON []byte
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Group,
		&p.Relevance, &p.Volume, &p.Score, &needsJSON, &p.Journey,
	); err != nil {
		return nil, err
	}
	if len(needsJSON) > 0 {
		if err := json.Unmarshal(needsJSON, &p.Needs); err != nil {
			return nil, fmt.Errorf("decode needs for %s: %w", p.ID, err)
		}
	}
	if p.Needs == nil {
		p.Needs = map[string]scoring.NeedVector{}
	}
	return p, nil
}

func listPersonas(ctx context.Context, q querier) ([]scoring.Persona, error) {
	rows, err := q.Query(ctx, `SELECT `+personaColumns+` FROM cx_personas ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	personas := []scoring.Persona{}
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		personas = append(personas, *p)
	}
	return personas, rows.Err()
}

func (s *PostgresStore) ListPersonas(ctx context.Context) ([]scoring.Persona, error) {
	return listPersonas(ctx, s.pool)
}

func (s *PostgresStore) GetPersona(ctx context.Context, id string) (*scoring.Persona, error) {
	p, err := scanPersona(s.pool.QueryRow(ctx,
		`SELECT `+personaColumns+` FROM cx_personas WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *PostgresStore) CreatePersona(ctx context.Context, p *scoring.Persona) error {
	needsJSON, err := json.Marshal(p.Needs)
	if err != nil {
		return fmt.Errorf("encode needs: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO cx_personas (id, name, description, grp, relevance, volume, score, needs, journey)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Description, p.Group,
		p.Relevance, p.Volume, p.Score, needsJSON, journeyOrEmpty(p.Journey),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("persona %s: %w", p.ID, ErrDuplicateID)
	}
	return err
}

func (s *PostgresStore) UpdatePersona(ctx context.Context, p *scoring.Persona) error {
	needsJSON, err := json.Marshal(p.Needs)
	if err != nil {
		return fmt.Errorf("encode needs: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE cx_personas SET
			name = $2, description = $3, grp = $4,
			relevance = $5, volume = $6, score = $7,
			needs = $8, journey = $9
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Group,
		p.Relevance, p.Volume, p.Score, needsJSON, journeyOrEmpty(p.Journey),
	)
	if err != nil {
		return err
	}
	return notFoundIfNone(tag, "persona", p.ID)
}

func (s *PostgresStore) DeletePersona(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cx_personas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return notFoundIfNone(tag, "persona", id)
}

func journeyOrEmpty(j []string) []string {
	if j == nil {
		return []string{}
	}
	return j
}

// Services

const serviceColumns = `id, name, description, cost, enabled, fulfillment`

func scanService(row pgx.Row) (*scoring.Service, error) {
	svc := &scoring.Service{}
	var fulfillmentJSON []byte
	if err := row.Scan(
		&svc.ID, &svc.Name, &svc.Description, &svc.Cost, &svc.Enabled, &fulfillmentJSON,
	); err != nil {
		return nil, err
	}
	if len(fulfillmentJSON) > 0 {
		if err := json.Unmarshal(fulfillmentJSON, &svc.Fulfillment); err != nil {
			return nil, fmt.Errorf("decode fulfillment for %s: %w", svc.ID, err)
		}
	}
	if svc.Fulfillment == nil {
		svc.Fulfillment = map[string]scoring.FulfillmentVector{}
	}
	return svc, nil
}

func listServices(ctx context.Context, q querier) ([]scoring.Service, error) {
	rows, err := q.Query(ctx, `SELECT `+serviceColumns+` FROM cx_services ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []scoring.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *svc)
	}
	return services, rows.Err()
}

func (s *PostgresStore) ListServices(ctx context.Context) ([]scoring.Service, error) {
	return listServices(ctx, s.pool)
}

func (s *PostgresStore) GetService(ctx context.Context, id string) (*scoring.Service, error) {
	svc, err := scanService(s.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM cx_services WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	return svc, err
}

func (s *PostgresStore) CreateService(ctx context.Context, svc *scoring.Service) error {
	fulfillmentJSON, err := json.Marshal(svc.Fulfillment)
	if err != nil {
		return fmt.Errorf("encode fulfillment: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO cx_services (id, name, description, cost, enabled, fulfillment)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		svc.ID, svc.Name, svc.Description, svc.Cost, svc.Enabled, fulfillmentJSON,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("service %s: %w", svc.ID, ErrDuplicateID)
	}
	return err
}

func (s *PostgresStore) UpdateService(ctx context.Context, svc *scoring.Service) error {
	fulfillmentJSON, err := json.Marshal(svc.Fulfillment)
	if err != nil {
		return fmt.Errorf("encode fulfillment: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE cx_services SET
			name = $2, description = $3, cost = $4, enabled = $5, fulfillment = $6
		WHERE id = $1`,
		svc.ID, svc.Name, svc.Description, svc.Cost, svc.Enabled, fulfillmentJSON,
	)
	if err != nil {
		return err
	}
	return notFoundIfNone(tag, "service", svc.ID)
}

func (s *PostgresStore) SetServiceEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE cx_services SET enabled = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return err
	}
	return notFoundIfNone(tag, "service", id)
}

func (s *PostgresStore) DeleteService(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cx_services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return notFoundIfNone(tag, "service", id)
}

// Snapshot reads all three tables inside one repeatable-read transaction.
func (s *PostgresStore) Snapshot(ctx context.Context) (Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var snap Snapshot
	if snap.TouchPoints, err = listTouchPoints(ctx, tx); err != nil {
		return Snapshot{}, fmt.Errorf("list touchpoints: %w", err)
	}
	if snap.Personas, err = listPersonas(ctx, tx); err != nil {
		return Snapshot{}, fmt.Errorf("list personas: %w", err)
	}
	if snap.Services, err = listServices(ctx, tx); err != nil {
		return Snapshot{}, fmt.Errorf("list services: %w", err)
	}
	return snap, tx.Commit(ctx)
}
