package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const (
	SettingLastSyncTime    = "sync.last_time"
	SettingAvailableFields = "sync.available_fields"
)

func (s *SQLStore) UpsertSetting(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO system_settings (key, value, update_time)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			update_time = excluded.update_time`,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM system_settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// LastSyncTime returns nil when no sync has completed yet.
func (s *SQLStore) LastSyncTime(ctx context.Context) (*time.Time, error) {
	raw, err := s.GetSetting(ctx, SettingLastSyncTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLStore) SetLastSyncTime(ctx context.Context, t time.Time) error {
	return s.UpsertSetting(ctx, SettingLastSyncTime, t.UTC().Format(time.RFC3339Nano))
}

// AvailableFields returns the column set reported by the last sync, or nil
// when unknown.
func (s *SQLStore) AvailableFields(ctx context.Context) (map[string]bool, error) {
	raw, err := s.GetSetting(ctx, SettingAvailableFields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

func (s *SQLStore) SetAvailableFields(ctx context.Context, names []string) error {
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return s.UpsertSetting(ctx, SettingAvailableFields, string(raw))
}

// ClearAvailableFields forgets the sync column set, so every search scope is
// offered again.
func (s *SQLStore) ClearAvailableFields(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM system_settings WHERE key = ?`, SettingAvailableFields)
	return err
}
