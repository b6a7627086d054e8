package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vidarr/internal/domain/consts"
	"vidarr/internal/models"
	"vidarr/internal/utils/logging"

	"github.com/Masterminds/squirrel"
)

// TokenStore persists the single current token record.
type TokenStore struct {
	DB *sql.DB
}

// GetTokenStore returns a token store instance with injected database.
func GetTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{
		DB: db,
	}
}

// GetDB returns the database.
func (ts *TokenStore) GetDB() *sql.DB {
	return ts.DB
}

// GetCurrent returns the current token record, or nil when none is stored.
func (ts *TokenStore) GetCurrent() (*models.TokenRecord, error) {
	query := squirrel.
		Select(
			consts.QTokenValue,
			consts.QTokenExtractedAt,
			consts.QTokenValidatedAt,
			consts.QTokenState,
		).
		From(consts.DBTokens).
		Where(squirrel.Eq{consts.QTokenID: 1}).
		RunWith(ts.DB)

	var (
		rec         models.TokenRecord
		validatedAt sql.NullTime
	)
	err := query.QueryRow().Scan(&rec.Value, &rec.ExtractedAt, &validatedAt, &rec.State)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to query current token: %w", err)
	}

	if validatedAt.Valid {
		rec.LastValidatedAt = validatedAt.Time
	}
	return &rec, nil
}

// Save replaces the current token record. A new extraction always
// supersedes the previous one; the old value is not versioned.
func (ts *TokenStore) Save(rec *models.TokenRecord) error {
	if rec == nil || rec.Value == "" {
		return errors.New("token record must have a value")
	}

	// Single-row upsert keyed on id=1.
	sqlQuery := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s, %s, %s) "+
			"VALUES (1, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(%s) DO UPDATE SET "+
			"%s = excluded.%s, "+
			"%s = excluded.%s, "+
			"%s = excluded.%s, "+
			"%s = excluded.%s, "+
			"%s = excluded.%s",
		consts.DBTokens,
		consts.QTokenID,
		consts.QTokenValue,
		consts.QTokenExtractedAt,
		consts.QTokenValidatedAt,
		consts.QTokenState,
		consts.QTokenUpdatedAt,
		consts.QTokenID,
		consts.QTokenValue, consts.QTokenValue,
		consts.QTokenExtractedAt, consts.QTokenExtractedAt,
		consts.QTokenValidatedAt, consts.QTokenValidatedAt,
		consts.QTokenState, consts.QTokenState,
		consts.QTokenUpdatedAt, consts.QTokenUpdatedAt,
	)

	var validatedAt any
	if !rec.LastValidatedAt.IsZero() {
		validatedAt = rec.LastValidatedAt
	}

	if _, err := ts.DB.Exec(sqlQuery, rec.Value, rec.ExtractedAt, validatedAt, rec.State, time.Now()); err != nil {
		return fmt.Errorf("failed to save token record: %w", err)
	}

	logging.D(2, "Saved token record (state: %s)", rec.State)
	return nil
}

// MarkValidated updates the validation state of the current record and
// refreshes its validation timestamp when the state is valid.
func (ts *TokenStore) MarkValidated(state models.TokenState) error {
	builder := squirrel.
		Update(consts.DBTokens).
		Set(consts.QTokenState, state).
		Set(consts.QTokenUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QTokenID: 1})

	if state == models.TokenValid {
		builder = builder.Set(consts.QTokenValidatedAt, time.Now())
	}

	result, err := builder.RunWith(ts.DB).Exec()
	if err != nil {
		return fmt.Errorf("failed to mark token %s: %w", state, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.New("no token record to update")
	}
	return nil
}

// Invalidate flips the current record to invalid and clears its freshness.
// History is not deleted; the next GetToken forces re-extraction.
func (ts *TokenStore) Invalidate() error {
	query := squirrel.
		Update(consts.DBTokens).
		Set(consts.QTokenState, models.TokenInvalid).
		Set(consts.QTokenValidatedAt, nil).
		Set(consts.QTokenUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QTokenID: 1}).
		RunWith(ts.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}
