package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

const schema = `
	CREATE TABLE IF NOT EXISTS registration_event (
		id           TEXT PRIMARY KEY,
		created_at   TIMESTAMPTZ NOT NULL,
		model_name   TEXT NOT NULL,
		version      TEXT NOT NULL,
		model_uri    TEXT NOT NULL,
		source       TEXT NOT NULL DEFAULT '',
		run_id       TEXT NOT NULL DEFAULT '',
		model_tags   JSONB NOT NULL DEFAULT '{}',
		version_tags JSONB NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS registration_event_model_idx
		ON registration_event (model_name, created_at DESC);
`

type registrationLedgerRepo struct {
	pool *pgxpool.Pool
}

func NewRegistrationLedger(pool *pgxpool.Pool) ports.RegistrationLedger {
	return &registrationLedgerRepo{pool: pool}
}

// EnsureSchema creates the ledger table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure registration ledger schema: %w", err)
	}
	return nil
}

func (r *registrationLedgerRepo) Record(ctx context.Context, event *domain.RegistrationEvent) error {
	modelTags, err := json.Marshal(nonNil(event.ModelTags))
	if err != nil {
		return fmt.Errorf("marshal model tags: %w", err)
	}
	versionTags, err := json.Marshal(nonNil(event.VersionTags))
	if err != nil {
		return fmt.Errorf("marshal version tags: %w", err)
	}

	query := `
		INSERT INTO registration_event
			(id, created_at, model_name, version, model_uri, source, run_id,
			 model_tags, version_tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	_, err = r.pool.Exec(ctx, query,
		event.ID, event.CreatedAt, event.ModelName, event.Version,
		event.ModelURI, event.Source, event.RunID, modelTags, versionTags,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("registration event %s already recorded", event.ID)
		}
		return fmt.Errorf("record registration event: %w", err)
	}
	return nil
}

func (r *registrationLedgerRepo) List(ctx context.Context, filter ports.RegistrationFilter) ([]*domain.RegistrationEvent, error) {
	query, args := buildListQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registration events: %w", err)
	}
	defer rows.Close()

	events := []*domain.RegistrationEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration event rows: %w", err)
	}
	return events, nil
}

func buildListQuery(filter ports.RegistrationFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filter.ModelName != "" {
		conditions = append(conditions, fmt.Sprintf("model_name = $%d", argPos))
		args = append(args, filter.ModelName)
		argPos++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, model_name, version, model_uri, source, run_id,
			   model_tags, version_tags
		FROM registration_event
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d
	`, whereClause, argPos)
	args = append(args, filter.Limit)

	return query, args
}

func scanEvent(row pgx.Row) (*domain.RegistrationEvent, error) {
	var e domain.RegistrationEvent
	var modelTags, versionTags []byte
	if err := row.Scan(
		&e.ID, &e.CreatedAt, &e.ModelName, &e.Version, &e.ModelURI,
		&e.Source, &e.RunID, &modelTags, &versionTags,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(modelTags, &e.ModelTags); err != nil {
		return nil, fmt.Errorf("unmarshal model tags: %w", err)
	}
	if err := json.Unmarshal(versionTags, &e.VersionTags); err != nil {
		return nil, fmt.Errorf("unmarshal version tags: %w", err)
	}
	return &e, nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// Ensure interface compliance
var _ ports.RegistrationLedger = (*registrationLedgerRepo)(nil)
