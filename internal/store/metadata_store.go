package store

import (
	"context"
	"time"

	"github.com/shinyes/pastpaper/internal/models"
)

func (s *SQLStore) PutMetadata(ctx context.Context, item models.Metadata) (models.Metadata, error) {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO question_metadata (kind, name, comment, update_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, name) DO UPDATE SET
			comment = excluded.comment,
			update_time = excluded.update_time`,
		item.Kind,
		item.Name,
		item.Comment,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.Metadata{}, err
	}
	return s.GetMetadata(ctx, item.Kind, item.Name)
}

func (s *SQLStore) GetMetadata(ctx context.Context, kind models.MetadataKind, name string) (models.Metadata, error) {
	item := models.Metadata{Kind: kind}
	err := s.db.QueryRowContext(
		ctx,
		`SELECT name, comment FROM question_metadata WHERE kind = ? AND name = ?`,
		kind,
		name,
	).Scan(&item.Name, &item.Comment)
	if err != nil {
		return models.Metadata{}, err
	}
	return item, nil
}

func (s *SQLStore) ListMetadata(ctx context.Context, kind models.MetadataKind) ([]models.Metadata, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT name, comment FROM question_metadata WHERE kind = ? ORDER BY name ASC`,
		kind,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.Metadata, 0)
	for rows.Next() {
		item := models.Metadata{Kind: kind}
		if err := rows.Scan(&item.Name, &item.Comment); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (s *SQLStore) DeleteMetadata(ctx context.Context, kind models.MetadataKind, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM question_metadata WHERE kind = ? AND name = ?`, kind, name)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
