package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

const escrowColumns = `e.id, e.buyer_id, e.seller_id, e.amount, e.payment_method, e.status,
		e.seller_terms, e.seller_deliverables, e.seller_reject_reason,
		e.created_at, e.updated_at, e.seller_confirmed_at, e.delivered_at, e.seller_request_time`

// EscrowRepository persists escrows. Every read and write is scoped by an
// ownership predicate so rows belonging to other users are never visible.
type EscrowRepository struct {
	db DBTX
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEscrow reads escrowColumns followed by extra destinations.
func scanEscrow(row rowScanner, extra ...any) (*domain.Escrow, error) {
	var (
		e                               domain.Escrow
		status                          string
		terms, deliverables, reason     sql.NullString
		confirmedAt, deliveredAt, relAt sql.NullTime
	)
	dest := []any{
		&e.ID, &e.BuyerID, &e.SellerID, &e.Amount, &e.PaymentMethod, &status,
		&terms, &deliverables, &reason,
		&e.CreatedAt, &e.UpdatedAt, &confirmedAt, &deliveredAt, &relAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	e.Status = st
	e.SellerTerms = nullString(terms)
	e.SellerDeliverables = nullString(deliverables)
	e.SellerRejectReason = nullString(reason)
	e.SellerConfirmedAt = nullTime(confirmedAt)
	e.DeliveredAt = nullTime(deliveredAt)
	e.SellerRequestTime = nullTime(relAt)
	return &e, nil
}

// ownerClause renders the ownership predicate for the escrows table aliased e.
func ownerClause(o domain.Owner, placeholder string) (string, error) {
	switch o.Party {
	case domain.PartyBuyer:
		return "e.buyer_id = " + placeholder, nil
	case domain.PartySeller:
		return "e.seller_id = " + placeholder, nil
	case domain.PartyEither:
		return "(e.buyer_id = " + placeholder + " OR e.seller_id = " + placeholder + ")", nil
	default:
		return "", fmt.Errorf("unknown party %q", o.Party)
	}
}

func (r *EscrowRepository) Create(ctx context.Context, e *domain.Escrow) error {
	query := `INSERT INTO escrows (buyer_id, seller_id, amount, payment_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, e.BuyerID, e.SellerID, e.Amount, e.PaymentMethod, string(e.Status)).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *EscrowRepository) FindOwned(ctx context.Context, id int64, o domain.Owner) (*domain.Escrow, error) {
	owner, err := ownerClause(o, "$2")
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + escrowColumns + `
		FROM escrows e
		WHERE e.id = $1 AND ` + owner

	e, err := scanEscrow(r.db.QueryRowContext(ctx, query, id, o.UserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *EscrowRepository) FindView(ctx context.Context, id int64, o domain.Owner) (*domain.EscrowView, error) {
	owner, err := ownerClause(o, "$2")
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + escrowColumns + `, b.email, s.email
		FROM escrows e
		JOIN users b ON b.id = e.buyer_id
		JOIN users s ON s.id = e.seller_id
		WHERE e.id = $1 AND ` + owner

	v := &domain.EscrowView{}
	e, err := scanEscrow(r.db.QueryRowContext(ctx, query, id, o.UserID), &v.BuyerEmail, &v.SellerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	v.Escrow = *e
	return v, nil
}

// UpdateStatus issues a single guarded UPDATE. The status IN (...) predicate
// makes concurrent transitions of the same row mutually exclusive.
func (r *EscrowRepository) UpdateStatus(ctx context.Context, u ports.EscrowUpdate) error {
	if len(u.From) == 0 {
		return fmt.Errorf("update escrow %d: no source statuses", u.ID)
	}

	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	sets := []string{
		"status = " + next(string(u.To)),
		"updated_at = " + next(u.At),
	}
	if u.SellerTerms != nil {
		sets = append(sets, "seller_terms = "+next(*u.SellerTerms))
	}
	if u.SellerDeliverables != nil {
		sets = append(sets, "seller_deliverables = "+next(*u.SellerDeliverables))
	}
	if u.SellerRejectReason != nil {
		sets = append(sets, "seller_reject_reason = "+next(*u.SellerRejectReason))
	}
	if u.SellerConfirmedAt != nil {
		sets = append(sets, "seller_confirmed_at = "+next(*u.SellerConfirmedAt))
	}
	if u.DeliveredAt != nil {
		sets = append(sets, "delivered_at = "+next(*u.DeliveredAt))
	}
	if u.SellerRequestTime != nil {
		sets = append(sets, "seller_request_time = "+next(*u.SellerRequestTime))
	}

	idArg := next(u.ID)
	owner, err := ownerClause(u.Owner, next(u.Owner.UserID))
	if err != nil {
		return err
	}
	from := make([]string, len(u.From))
	for i, s := range u.From {
		from[i] = next(string(s))
	}

	query := `UPDATE escrows e SET ` + strings.Join(sets, ", ") + `
		WHERE e.id = ` + idArg + ` AND ` + owner + ` AND e.status IN (` + strings.Join(from, ", ") + `)`

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrTransitionConflict
	}
	return nil
}

func (r *EscrowRepository) ListBySeller(ctx context.Context, sellerID int64) ([]domain.EscrowView, error) {
	query := `SELECT ` + escrowColumns + `, b.email
		FROM escrows e
		JOIN users b ON b.id = e.buyer_id
		WHERE e.seller_id = $1
		ORDER BY e.created_at DESC, e.id DESC`

	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]domain.EscrowView, 0)
	for rows.Next() {
		var buyerEmail string
		e, err := scanEscrow(rows, &buyerEmail)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, domain.EscrowView{Escrow: *e, BuyerEmail: buyerEmail})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// LedgerRepository appends to and reads the transactions table. It never
// updates or deletes rows.
type LedgerRepository struct {
	db DBTX
}

func (r *LedgerRepository) Append(ctx context.Context, l *domain.LedgerEntry) error {
	query := `INSERT INTO transactions (escrow_id, type, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var amount any
	if l.Amount != nil {
		amount = *l.Amount
	}
	err := r.db.QueryRowContext(ctx, query, l.EscrowID, string(l.Type), amount, l.Description, l.CreatedAt).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *LedgerRepository) ListByEscrow(ctx context.Context, escrowID int64) ([]domain.LedgerEntry, error) {
	query := `SELECT id, escrow_id, type, amount, description, created_at
		FROM transactions
		WHERE escrow_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, escrowID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var (
			l      domain.LedgerEntry
			typ    string
			amount *domain.Money
		)
		if err := rows.Scan(&l.ID, &l.EscrowID, &typ, &amount, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		l.Type = domain.LedgerType(typ)
		l.Amount = amount
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
