package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/shinyes/pastpaper/internal/models"
)

type SQLStore struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, username, display_name, password_hash, role, create_time, update_time`

const tokenColumns = `id, user_id, token_prefix, token_hash, description, created_at, last_used_at, expires_at, revoked_at`

func (s *SQLStore) CreateUser(ctx context.Context, username string, displayName string, role string) (models.User, error) {
	return s.CreateUserWithProfile(ctx, username, displayName, "", role)
}

func (s *SQLStore) CreateUserWithProfile(ctx context.Context, username string, displayName string, passwordHash string, role string) (models.User, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (username, display_name, password_hash, role, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		username,
		displayName,
		passwordHash,
		role,
		now,
		now,
	)
	if err != nil {
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return s.GetUserByID(ctx, id)
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
	return scanUser(row)
}

func (s *SQLStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE users SET password_hash = ?, update_time = ? WHERE id = ?`,
		passwordHash,
		time.Now().UTC().Format(time.RFC3339Nano),
		userID,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *SQLStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLStore) CreatePersonalAccessToken(ctx context.Context, userID int64, rawToken string, description string) (models.PersonalAccessToken, error) {
	return s.CreatePersonalAccessTokenWithExpiry(ctx, userID, rawToken, description, nil)
}

func (s *SQLStore) CreatePersonalAccessTokenWithExpiry(ctx context.Context, userID int64, rawToken string, description string, expiresAt *time.Time) (models.PersonalAccessToken, error) {
	tokenPrefix := rawToken
	if len(tokenPrefix) > 8 {
		tokenPrefix = tokenPrefix[:8]
	}
	var expiresValue any
	if expiresAt != nil {
		expiresValue = expiresAt.UTC().Format(time.RFC3339Nano)
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO personal_access_tokens (user_id, token_prefix, token_hash, description, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID,
		tokenPrefix,
		HashToken(rawToken),
		description,
		time.Now().UTC().Format(time.RFC3339Nano),
		expiresValue,
	)
	if err != nil {
		return models.PersonalAccessToken{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.PersonalAccessToken{}, err
	}
	return s.GetPersonalAccessTokenByID(ctx, id)
}

func (s *SQLStore) GetPersonalAccessTokenByID(ctx context.Context, id int64) (models.PersonalAccessToken, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM personal_access_tokens WHERE id = ?`, id)
	return scanToken(row)
}

func (s *SQLStore) ListPersonalAccessTokensByUserID(ctx context.Context, userID int64) ([]models.PersonalAccessToken, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+tokenColumns+`
		FROM personal_access_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.PersonalAccessToken, 0)
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, token)
	}
	return result, rows.Err()
}

func (s *SQLStore) RevokePersonalAccessToken(ctx context.Context, tokenID int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE personal_access_tokens
		SET revoked_at = ?
		WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339Nano),
		tokenID,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// GetUserByToken resolves a live (unrevoked, unexpired) token to its owner.
func (s *SQLStore) GetUserByToken(ctx context.Context, rawToken string) (models.User, models.PersonalAccessToken, error) {
	var tokenID int64
	var userID int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id
		FROM personal_access_tokens
		WHERE token_hash = ?
			AND revoked_at IS NULL
			AND (expires_at IS NULL OR expires_at > ?)`,
		HashToken(rawToken),
		time.Now().UTC().Format(time.RFC3339Nano),
	).Scan(&tokenID, &userID)
	if err != nil {
		return models.User{}, models.PersonalAccessToken{}, err
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, models.PersonalAccessToken{}, err
	}
	token, err := s.GetPersonalAccessTokenByID(ctx, tokenID)
	if err != nil {
		return models.User{}, models.PersonalAccessToken{}, err
	}
	return user, token, nil
}

func (s *SQLStore) TouchPersonalAccessToken(ctx context.Context, tokenID int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE personal_access_tokens SET last_used_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		tokenID,
	)
	return err
}

func scanUser(scanner rowScanner) (models.User, error) {
	var user models.User
	var createTime string
	var updateTime string
	if err := scanner.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Role,
		&createTime,
		&updateTime,
	); err != nil {
		return models.User{}, err
	}
	var err error
	if user.CreateTime, err = parseTime(createTime); err != nil {
		return models.User{}, err
	}
	if user.UpdateTime, err = parseTime(updateTime); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func scanToken(scanner rowScanner) (models.PersonalAccessToken, error) {
	var token models.PersonalAccessToken
	var createdAt string
	var lastUsedAt sql.NullString
	var expiresAt sql.NullString
	var revokedAt sql.NullString
	if err := scanner.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenPrefix,
		&token.TokenHash,
		&token.Description,
		&createdAt,
		&lastUsedAt,
		&expiresAt,
		&revokedAt,
	); err != nil {
		return models.PersonalAccessToken{}, err
	}
	var err error
	if token.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.PersonalAccessToken{}, err
	}
	if token.LastUsedAt, err = parseNullableTime(lastUsedAt); err != nil {
		return models.PersonalAccessToken{}, err
	}
	if token.ExpiresAt, err = parseNullableTime(expiresAt); err != nil {
		return models.PersonalAccessToken{}, err
	}
	if token.RevokedAt, err = parseNullableTime(revokedAt); err != nil {
		return models.PersonalAccessToken{}, err
	}
	return token, nil
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}

func parseNullableTime(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid {
		return nil, nil
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
