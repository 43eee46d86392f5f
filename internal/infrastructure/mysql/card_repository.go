package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/domain/entities"
)

// CardRepository implements port.CardRepository for MySQL.
type CardRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(db *sql.DB, logger *logrus.Logger) *CardRepository {
	return &CardRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new card and fills in its generated id. A violation of
// the unique number index is reported as apperrors.ErrCardNumberTaken.
func (r *CardRepository) Create(ctx context.Context, card *entities.Card) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.create_card")
	defer span.Finish()

	query := "INSERT INTO card_info (user_id, number, holder, expiration_date) VALUES (?, ?, ?, ?)"

	startTime := time.Now()
	result, err := r.db.ExecContext(ctx, query, card.UserID, card.Number, card.Holder, card.ExpirationDate)
	duration := time.Since(startTime)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrCardNumberTaken, card.Number)
		}
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"card.user_id":    card.UserID,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return fmt.Errorf("failed to insert card: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	card.ID = id

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Card created with ID=%d [duration: %v]", card.ID, duration), logrus.Fields{
		"card.id":         card.ID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return nil
}

// FindByID finds a card by id.
func (r *CardRepository) FindByID(ctx context.Context, id int64) (*entities.Card, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_card_by_id")
	defer span.Finish()

	query := "SELECT id, user_id, number, holder, expiration_date FROM card_info WHERE id = ?"

	var card entities.Card

	startTime := time.Now()
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&card.ID,
		&card.UserID,
		&card.Number,
		&card.Holder,
		&card.ExpirationDate,
	)
	duration := time.Since(startTime)

	if err == sql.ErrNoRows {
		r.logWithTrace(ctx, fmt.Sprintf("SQL result: Card not found (id=%d) [duration: %v]", id, duration), logrus.Fields{
			"card.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, apperrors.ErrCardNotFound
	}

	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"card.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, fmt.Errorf("failed to query card: %w", err)
	}

	return &card, nil
}

// FindByIDs returns every card whose id is in ids, ordered by id. Unknown
// ids are skipped; zero matches yield an empty slice.
func (r *CardRepository) FindByIDs(ctx context.Context, ids []int64) ([]entities.Card, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_cards_by_ids")
	defer span.Finish()

	if len(ids) == 0 {
		return []entities.Card{}, nil
	}

	query := fmt.Sprintf("SELECT id, user_id, number, holder, expiration_date FROM card_info WHERE id IN (%s) ORDER BY id", placeholders(len(ids)))

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []entities.Card
	for rows.Next() {
		var card entities.Card
		if err := rows.Scan(&card.ID, &card.UserID, &card.Number, &card.Holder, &card.ExpirationDate); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Retrieved %d of %d requested cards [duration: %v]", len(cards), len(ids), duration), logrus.Fields{
		"cards.count":     len(cards),
		"sql.duration_ms": duration.Milliseconds(),
	})

	return cards, nil
}

// FindByUserID returns every card owned by the user, ordered by id. An
// unknown user and a user with zero cards both yield an empty slice; the
// service layer decides what that means.
func (r *CardRepository) FindByUserID(ctx context.Context, userID int64) ([]entities.Card, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_cards_by_user_id")
	defer span.Finish()

	query := "SELECT id, user_id, number, holder, expiration_date FROM card_info WHERE user_id = ? ORDER BY id"

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query, userID)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"card.user_id":    userID,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []entities.Card
	for rows.Next() {
		var card entities.Card
		if err := rows.Scan(&card.ID, &card.UserID, &card.Number, &card.Holder, &card.ExpirationDate); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Retrieved %d cards for user %d [duration: %v]", len(cards), userID, duration), logrus.Fields{
		"cards.count":     len(cards),
		"card.user_id":    userID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return cards, nil
}

// ExistsByNumber reports whether any card carries the number.
func (r *CardRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.card_exists_by_number")
	defer span.Finish()

	query := "SELECT EXISTS(SELECT 1 FROM card_info WHERE number = ?)"

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check card number: %w", err)
	}
	return exists, nil
}

// Update persists the mutable card fields. A violation of the unique
// number index is reported as apperrors.ErrCardNumberTaken.
func (r *CardRepository) Update(ctx context.Context, card *entities.Card) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.update_card")
	defer span.Finish()

	query := "UPDATE card_info SET user_id = ?, number = ?, holder = ?, expiration_date = ? WHERE id = ?"

	startTime := time.Now()
	result, err := r.db.ExecContext(ctx, query, card.UserID, card.Number, card.Holder, card.ExpirationDate, card.ID)
	duration := time.Since(startTime)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrCardNumberTaken, card.Number)
		}
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"card.id":         card.ID,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return fmt.Errorf("failed to update card: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrCardNotFound
	}

	return nil
}

// Delete removes the card row.
func (r *CardRepository) Delete(ctx context.Context, id int64) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.delete_card")
	defer span.Finish()

	query := "DELETE FROM card_info WHERE id = ?"

	startTime := time.Now()
	result, err := r.db.ExecContext(ctx, query, id)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"card.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return fmt.Errorf("failed to delete card: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrCardNotFound
	}

	return nil
}

func (r *CardRepository) logWithTrace(ctx context.Context, message string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogWithTrace(ctx, r.logger, "repository", message, fields)
}

func (r *CardRepository) logErrorWithTrace(ctx context.Context, message string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogErrorWithTrace(ctx, r.logger, "repository", message, err, fields)
}
