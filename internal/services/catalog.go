package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/pkg/models"
)

const mediaColumns = `id, title, name, genre_ids, release_date, first_air_date, overview, vote_average`

const upsertMediaSQL = `
	INSERT INTO media (` + mediaColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		name = EXCLUDED.name,
		genre_ids = EXCLUDED.genre_ids,
		release_date = EXCLUDED.release_date,
		first_air_date = EXCLUDED.first_air_date,
		overview = EXCLUDED.overview,
		vote_average = EXCLUDED.vote_average`

// PostgresCatalog serves media records from the media table.
type PostgresCatalog struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewPostgresCatalog(db DatabaseQuerier, logger *logrus.Logger) *PostgresCatalog {
	return &PostgresCatalog{
		db:     db,
		logger: logger,
	}
}

func (c *PostgresCatalog) GetMedia(ctx context.Context, id int) (*models.Media, error) {
	row := c.db.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id)

	media, err := scanMedia(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to get media %d: %w", id, err)
	}
	return media, nil
}

// ListMedia returns catalog items ordered by vote average. An empty genre
// filter matches everything; otherwise items must share at least one genre.
func (c *PostgresCatalog) ListMedia(ctx context.Context, filter models.MediaFilter) ([]models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE 1 = 1`
	args := []interface{}{}

	if len(filter.GenreIDs) > 0 {
		args = append(args, filter.GenreIDs)
		query += fmt.Sprintf(" AND genre_ids && $%d", len(args))
	}
	if len(filter.ExcludeIDs) > 0 {
		args = append(args, filter.ExcludeIDs)
		query += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
	}

	query += " ORDER BY vote_average DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	items := make([]models.Media, 0)
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to scan media row")
			continue
		}
		items = append(items, *media)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media rows: %w", err)
	}

	return items, nil
}

// UpsertMedia inserts or replaces catalog items in one transaction.
func (c *PostgresCatalog) UpsertMedia(ctx context.Context, items []models.Media) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range items {
		genres := m.GenreIDs
		if genres == nil {
			genres = []int{}
		}
		_, err := tx.Exec(ctx, upsertMediaSQL,
			m.ID, m.Title, m.Name, genres, m.ReleaseDate, m.FirstAirDate, m.Overview, m.VoteAverage)
		if err != nil {
			return fmt.Errorf("failed to upsert media %d: %w", m.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit media upsert: %w", err)
	}

	c.logger.WithField("count", len(items)).Info("Upserted media")
	return nil
}

func scanMedia(row pgx.Row) (*models.Media, error) {
	var m models.Media
	if err := row.Scan(&m.ID, &m.Title, &m.Name, &m.GenreIDs, &m.ReleaseDate, &m.FirstAirDate, &m.Overview, &m.VoteAverage); err != nil {
		return nil, err
	}
	return &m, nil
}
