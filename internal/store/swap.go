package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

// ErrActiveOffer is returned when a chore already has an available offer.
var ErrActiveOffer = errors.New("chore already has an available swap offer")

type SwapStore struct {
	db *sql.DB
}

func NewSwapStore(db *sql.DB) *SwapStore {
	return &SwapStore{db: db}
}

func scanOffer(row scanner) (*model.SwapOffer, error) {
	var o model.SwapOffer
	var claimedBy, claimedByName sql.NullString
	var claimedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.ChoreID, &o.ChoreName, &o.OfferedBy, &o.OfferedByName, &o.OfferedAt, &o.Status,
		&claimedBy, &claimedByName, &claimedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}
	o.OfferedAt = o.OfferedAt.UTC()
	o.ClaimedBy = stringPtr(claimedBy)
	o.ClaimedByName = stringPtr(claimedByName)
	o.ClaimedAt = timePtr(claimedAt)
	o.CancelledAt = timePtr(cancelledAt)
	return &o, nil
}

const offerCols = `id, chore_id, chore_name, offered_by, offered_by_name, offered_at, status, claimed_by, claimed_by_name, claimed_at, cancelled_at`

// Create inserts an offer. The partial unique index on available offers makes
// a second available offer for the same chore fail with ErrActiveOffer.
func (s *SwapStore) Create(o model.SwapOffer) (*model.SwapOffer, error) {
	_, err := s.db.Exec(
		`INSERT INTO swap_offers (`+offerCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ChoreID, o.ChoreName, o.OfferedBy, o.OfferedByName, o.OfferedAt.UTC(), o.Status,
		nullString(o.ClaimedBy), nullString(o.ClaimedByName), nullTime(o.ClaimedAt), nullTime(o.CancelledAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrActiveOffer
		}
		return nil, fmt.Errorf("insert swap offer: %w", err)
	}
	return s.GetByID(o.ID)
}

func (s *SwapStore) GetByID(id string) (*model.SwapOffer, error) {
	row := s.db.QueryRow(`SELECT `+offerCols+` FROM swap_offers WHERE id = ?`, id)
	o, err := scanOffer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get swap offer: %w", err)
	}
	return o, nil
}

// HasAvailable reports whether the chore has an offer in status available.
func (s *SwapStore) HasAvailable(choreID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM swap_offers WHERE chore_id = ? AND status = 'available'`,
		choreID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count available offers: %w", err)
	}
	return n > 0, nil
}

// Claim moves an available offer to claimed. It reports false when the offer
// was not available, so two claimants cannot both win.
func (s *SwapStore) Claim(id, userID, userName string, at time.Time) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE swap_offers SET status = 'claimed', claimed_by = ?, claimed_by_name = ?, claimed_at = ?
		 WHERE id = ? AND status = 'available'`,
		userID, userName, at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("claim swap offer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// Cancel moves an available offer to cancelled, reporting false when it was
// not available.
func (s *SwapStore) Cancel(id string, at time.Time) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE swap_offers SET status = 'cancelled', cancelled_at = ? WHERE id = ? AND status = 'available'`,
		at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("cancel swap offer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *SwapStore) list(q string, args ...any) ([]model.SwapOffer, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []model.SwapOffer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap offer: %w", err)
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

// LatestActive returns the most recently offered non-cancelled offer for a
// chore, or nil.
func (s *SwapStore) LatestActive(choreID string) (*model.SwapOffer, error) {
	offers, err := s.list(
		`SELECT `+offerCols+` FROM swap_offers WHERE chore_id = ? AND status != 'cancelled'
		 ORDER BY offered_at DESC, seq DESC LIMIT 1`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("latest swap offer: %w", err)
	}
	if len(offers) == 0 {
		return nil, nil
	}
	return &offers[0], nil
}

// ListAvailable returns available offers, newest first.
func (s *SwapStore) ListAvailable() ([]model.SwapOffer, error) {
	offers, err := s.list(
		`SELECT ` + offerCols + ` FROM swap_offers WHERE status = 'available' ORDER BY offered_at DESC, seq DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list available offers: %w", err)
	}
	return offers, nil
}

// List returns every offer in creation order.
func (s *SwapStore) List() ([]model.SwapOffer, error) {
	offers, err := s.list(`SELECT ` + offerCols + ` FROM swap_offers ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list swap offers: %w", err)
	}
	return offers, nil
}
