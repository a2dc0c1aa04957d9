package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

const (
	defaultRejectReason  = "Seller rejected without specified reason"
	defaultReleaseNote   = "Seller requested payment release"
	deliveryDescription  = "Seller submitted delivery"
	confirmDescription   = "Seller confirmed escrow"
	releasedDescription  = "Funds released to seller"
	rejectDescriptionFmt = "Seller rejected escrow: %s"
)

// IdempotencyStore abstracts the createEscrow replay cache (Redis). A key is
// reserved before the escrow is inserted, so two requests sharing it cannot
// both create one.
type IdempotencyStore interface {
	// Reserve claims key within scope. When the key is already taken, escrowID
	// is the escrow it produced, or 0 while that request is still running.
	Reserve(ctx context.Context, scope, key string) (claimed bool, escrowID int64, err error)
	Complete(ctx context.Context, scope, key string, escrowID int64) error
	Release(ctx context.Context, scope, key string) error
}

// EscrowService owns the escrow lifecycle. Every transition loads the row
// scoped to the caller, checks the transition table, applies a
// status-guarded update and writes its ledger entry in one transaction.
type EscrowService struct {
	store  ports.Store
	idem   IdempotencyStore
	files  attachmentWriter
	now    func() time.Time
	logger zerolog.Logger
}

// NewEscrowService wires the state machine. idem may be nil, which disables
// Idempotency-Key replays.
func NewEscrowService(store ports.Store, blobs ports.BlobStore, idem IdempotencyStore, logger zerolog.Logger) *EscrowService {
	now := func() time.Time { return time.Now().UTC() }
	return &EscrowService{
		store:  store,
		idem:   idem,
		files:  attachmentWriter{blobs: blobs, now: now, logger: logger},
		now:    now,
		logger: logger,
	}
}

// Create opens a new escrow in status pending. When an idempotency key was
// already used by the same buyer, the original escrow is returned instead.
func (s *EscrowService) Create(ctx context.Context, in ports.CreateEscrowInput) (*ports.CreateEscrowResult, error) {
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if in.Amount > domain.MaxMoney {
		return nil, domain.ErrAmountTooLarge
	}
	if in.IdempotencyKey == "" || s.idem == nil {
		return s.insert(ctx, in)
	}

	scope := strconv.FormatInt(in.BuyerID, 10)
	key := in.IdempotencyKey
	claimed, prior, err := s.idem.Reserve(ctx, scope, key)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed, creating without replay protection")
		return s.insert(ctx, in)
	case !claimed && prior == 0:
		return nil, domain.ErrIdempotencyInFlight
	case !claimed:
		return s.replay(ctx, prior, in)
	}

	res, err := s.insert(ctx, in)
	if err != nil {
		if rerr := s.idem.Release(context.WithoutCancel(ctx), scope, key); rerr != nil {
			s.logger.Warn().Err(rerr).Str("idempotency_key", key).Msg("failed to release idempotency key")
		}
		return nil, err
	}
	if err := s.idem.Complete(context.WithoutCancel(ctx), scope, key, res.Escrow.ID); err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency key")
	}
	return res, nil
}

func (s *EscrowService) insert(ctx context.Context, in ports.CreateEscrowInput) (*ports.CreateEscrowResult, error) {
	sellerEmail := NormalizeEmail(in.SellerEmail)
	seller, err := s.store.Users().FindByEmail(ctx, sellerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSellerNotFound
		}
		return nil, fmt.Errorf("create escrow: find seller: %w", err)
	}
	if seller.Role != domain.RoleSeller {
		return nil, domain.ErrSellerNotFound
	}
	if seller.ID == in.BuyerID {
		return nil, domain.ErrSelfEscrow
	}

	e := &domain.Escrow{
		BuyerID:       in.BuyerID,
		SellerID:      seller.ID,
		Amount:        in.Amount,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Status:        domain.StatusPending,
	}
	if err := s.store.Escrows().Create(ctx, e); err != nil {
		s.logger.Error().Err(err).Int64("buyer_id", in.BuyerID).Msg("failed to create escrow")
		return nil, fmt.Errorf("create escrow: %w", err)
	}

	s.logger.Info().Int64("escrow_id", e.ID).Int64("buyer_id", e.BuyerID).Int64("seller_id", e.SellerID).Msg("escrow created")

	return &ports.CreateEscrowResult{
		Escrow:      *e,
		BuyerEmail:  in.BuyerEmail,
		SellerEmail: seller.Email,
	}, nil
}

func (s *EscrowService) replay(ctx context.Context, escrowID int64, in ports.CreateEscrowInput) (*ports.CreateEscrowResult, error) {
	view, err := s.store.Escrows().FindView(ctx, escrowID, domain.Owner{Party: domain.PartyBuyer, UserID: in.BuyerID})
	if err != nil {
		return nil, fmt.Errorf("idempotent replay of escrow %d: %w", escrowID, err)
	}
	s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Int64("escrow_id", escrowID).Msg("idempotent replay")
	return &ports.CreateEscrowResult{
		Escrow:      view.Escrow,
		BuyerEmail:  view.BuyerEmail,
		SellerEmail: view.SellerEmail,
		Replayed:    true,
	}, nil
}

func (s *EscrowService) DepositAddress(ctx context.Context, buyerID, escrowID int64) (*domain.DepositInstructions, error) {
	e, err := s.store.Escrows().FindOwned(ctx, escrowID, domain.Owner{Party: domain.PartyBuyer, UserID: buyerID})
	if err != nil {
		return nil, wrapRead("deposit address", err)
	}
	d := domain.NewDepositInstructions(e)
	return &d, nil
}

func (s *EscrowService) ConfirmDeposit(ctx context.Context, buyerID, escrowID int64) (*ports.TransitionResult, error) {
	before, err := s.transition(ctx, domain.OpConfirmDeposit, buyerID, escrowID, nil, nil)
	if err != nil {
		return nil, err
	}
	return result(before, domain.StatusFundsInEscrow), nil
}

func (s *EscrowService) MarkPaid(ctx context.Context, buyerID, escrowID int64) (*ports.TransitionResult, error) {
	before, err := s.transition(ctx, domain.OpMarkPaid, buyerID, escrowID, nil, nil)
	if err != nil {
		return nil, err
	}
	return result(before, domain.StatusPaid), nil
}

// ReleaseFunds moves a paid escrow to released and credits the seller in the
// same transaction.
func (s *EscrowService) ReleaseFunds(ctx context.Context, buyerID, escrowID int64) (*ports.ReleaseResult, error) {
	var newBalance domain.Money
	before, err := s.transition(ctx, domain.OpReleaseFunds, buyerID, escrowID, nil,
		func(ctx context.Context, tx ports.Store, e *domain.Escrow, at time.Time) error {
			bal, err := tx.Users().CreditBalance(ctx, e.SellerID, e.Amount)
			if err != nil {
				return fmt.Errorf("credit seller: %w", err)
			}
			newBalance = bal
			return appendLedger(ctx, tx, e, domain.LedgerRelease, &e.Amount, releasedDescription, at)
		})
	if err != nil {
		return nil, err
	}
	return &ports.ReleaseResult{
		TransitionResult: *result(before, domain.StatusReleased),
		AmountReleased:   before.Amount,
		SellerID:         before.SellerID,
		NewSellerBalance: newBalance,
	}, nil
}

func (s *EscrowService) SellerConfirm(ctx context.Context, sellerID, escrowID int64) (*ports.TransitionResult, error) {
	before, err := s.transition(ctx, domain.OpSellerConfirm, sellerID, escrowID,
		func(u *ports.EscrowUpdate) { u.SellerConfirmedAt = &u.At },
		func(ctx context.Context, tx ports.Store, e *domain.Escrow, at time.Time) error {
			return appendLedger(ctx, tx, e, domain.LedgerConfirm, &e.Amount, confirmDescription, at)
		})
	if err != nil {
		return nil, err
	}
	return result(before, domain.StatusConfirmed), nil
}

func (s *EscrowService) SellerReject(ctx context.Context, sellerID, escrowID int64, reason string) (*ports.TransitionResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectReason
	}
	before, err := s.transition(ctx, domain.OpSellerReject, sellerID, escrowID,
		func(u *ports.EscrowUpdate) { u.SellerRejectReason = &reason },
		func(ctx context.Context, tx ports.Store, e *domain.Escrow, at time.Time) error {
			return appendLedger(ctx, tx, e, domain.LedgerReject, nil, fmt.Sprintf(rejectDescriptionFmt, reason), at)
		})
	if err != nil {
		return nil, err
	}
	return result(before, domain.StatusRejected), nil
}

// SubmitDelivery stores the delivery payload, uploads attachments and marks
// the escrow delivered. Uploaded blobs are removed when the transaction fails.
func (s *EscrowService) SubmitDelivery(ctx context.Context, in ports.DeliveryInput) (*ports.TransitionResult, error) {
	owner := domain.Owner{Party: domain.PartySeller, UserID: in.SellerID}
	current, err := s.store.Escrows().FindOwned(ctx, in.EscrowID, owner)
	if err != nil {
		return nil, wrapRead("submit delivery", err)
	}
	if !current.Status.CanApply(domain.OpSubmitDelivery) {
		return nil, &domain.TransitionError{Op: domain.OpSubmitDelivery, Current: current.Status}
	}

	metas, err := s.files.upload(ctx, domain.PurposeDelivery, in.SellerID, in.Attachments)
	if err != nil {
		return nil, fmt.Errorf("submit delivery: %w", err)
	}

	before, err := s.transition(ctx, domain.OpSubmitDelivery, in.SellerID, in.EscrowID,
		func(u *ports.EscrowUpdate) {
			u.SellerTerms = &in.Terms
			u.SellerDeliverables = &in.Deliverables
			u.DeliveredAt = &u.At
		},
		func(ctx context.Context, tx ports.Store, e *domain.Escrow, at time.Time) error {
			for i := range metas {
				metas[i].EscrowID = &e.ID
				if err := tx.Files().Insert(ctx, &metas[i]); err != nil {
					return fmt.Errorf("insert file metadata: %w", err)
				}
			}
			return appendLedger(ctx, tx, e, domain.LedgerDelivery, nil, deliveryDescription, at)
		})
	if err != nil {
		s.files.discard(ctx, metas)
		return nil, err
	}
	return result(before, domain.StatusDelivered), nil
}

func (s *EscrowService) RequestRelease(ctx context.Context, sellerID, escrowID int64, note string) (*ports.TransitionResult, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		note = defaultReleaseNote
	}
	before, err := s.transition(ctx, domain.OpRequestRelease, sellerID, escrowID,
		func(u *ports.EscrowUpdate) { u.SellerRequestTime = &u.At },
		func(ctx context.Context, tx ports.Store, e *domain.Escrow, at time.Time) error {
			return appendLedger(ctx, tx, e, domain.LedgerReleaseRequest, nil, note, at)
		})
	if err != nil {
		return nil, err
	}
	return result(before, domain.StatusReleaseRequested), nil
}

// Get returns the escrow when the caller is its buyer or its seller.
func (s *EscrowService) Get(ctx context.Context, userID, escrowID int64) (*domain.EscrowView, error) {
	v, err := s.store.Escrows().FindView(ctx, escrowID, domain.Owner{Party: domain.PartyEither, UserID: userID})
	if err != nil {
		return nil, wrapRead("get escrow", err)
	}
	return v, nil
}

// Transactions returns the escrow's ledger in insertion order.
func (s *EscrowService) Transactions(ctx context.Context, userID, escrowID int64) ([]domain.LedgerEntry, error) {
	if _, err := s.store.Escrows().FindOwned(ctx, escrowID, domain.Owner{Party: domain.PartyEither, UserID: userID}); err != nil {
		return nil, wrapRead("list transactions", err)
	}
	entries, err := s.store.Ledger().ListByEscrow(ctx, escrowID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return entries, nil
}

// Credentials returns what the seller provided for the buyer's escrow.
func (s *EscrowService) Credentials(ctx context.Context, buyerID, escrowID int64) (*domain.Credentials, error) {
	v, err := s.store.Escrows().FindView(ctx, escrowID, domain.Owner{Party: domain.PartyBuyer, UserID: buyerID})
	if err != nil {
		return nil, wrapRead("get credentials", err)
	}
	c, err := s.store.Credentials().FindByEscrow(ctx, escrowID)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialsNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	c.EscrowID = escrowID
	c.SellerEmail = v.SellerEmail
	return c, nil
}

func (s *EscrowService) ListForSeller(ctx context.Context, sellerID int64) ([]domain.EscrowView, error) {
	list, err := s.store.Escrows().ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller escrows: %w", err)
	}
	return list, nil
}

type effectFunc func(ctx context.Context, tx ports.Store, e *domain.Escrow, at time.Time) error

// transition runs one row of the transition table inside a transaction and
// returns the escrow as it was before the change.
func (s *EscrowService) transition(
	ctx context.Context,
	op domain.Operation,
	callerID, escrowID int64,
	fill func(u *ports.EscrowUpdate),
	effect effectFunc,
) (*domain.Escrow, error) {
	rule, ok := domain.TransitionFor(op)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidTransition)
	}
	owner := domain.Owner{Party: rule.Actor, UserID: callerID}

	var before *domain.Escrow
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		e, err := tx.Escrows().FindOwned(ctx, escrowID, owner)
		if err != nil {
			return err
		}
		if !rule.Allows(e.Status) {
			return &domain.TransitionError{Op: op, Current: e.Status}
		}

		u := ports.EscrowUpdate{
			ID:    escrowID,
			Owner: owner,
			From:  rule.From,
			To:    rule.To,
			At:    s.now(),
		}
		if fill != nil {
			fill(&u)
		}
		if err := tx.Escrows().UpdateStatus(ctx, u); err != nil {
			return err
		}
		if effect != nil {
			if err := effect(ctx, tx, e, u.At); err != nil {
				return err
			}
		}
		before = e
		return nil
	})
	if errors.Is(err, domain.ErrTransitionConflict) {
		err = s.conflict(ctx, op, escrowID, owner)
	}
	if err != nil {
		if errors.Is(err, domain.ErrEscrowNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Debug().Err(err).Int64("escrow_id", escrowID).Str("op", string(op)).Msg("transition refused")
			return nil, err
		}
		s.logger.Error().Err(err).Int64("escrow_id", escrowID).Str("op", string(op)).Msg("transition failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info().
		Int64("escrow_id", escrowID).
		Int64("user_id", callerID).
		Str("op", string(op)).
		Str("from", string(before.Status)).
		Str("to", string(rule.To)).
		Msg("escrow transition")

	return before, nil
}

// conflict re-reads an escrow whose guarded update matched no row, so the
// caller learns the status that won the race.
func (s *EscrowService) conflict(ctx context.Context, op domain.Operation, escrowID int64, owner domain.Owner) error {
	e, err := s.store.Escrows().FindOwned(ctx, escrowID, owner)
	if err != nil {
		if errors.Is(err, domain.ErrEscrowNotFound) {
			return err
		}
		return domain.ErrTransitionConflict
	}
	return &domain.TransitionError{Op: op, Current: e.Status}
}

func appendLedger(ctx context.Context, tx ports.Store, e *domain.Escrow, typ domain.LedgerType, amount *domain.Money, desc string, at time.Time) error {
	entry := &domain.LedgerEntry{
		EscrowID:    e.ID,
		Type:        typ,
		Amount:      amount,
		Description: desc,
		CreatedAt:   at,
	}
	if err := tx.Ledger().Append(ctx, entry); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return nil
}

func result(before *domain.Escrow, to domain.Status) *ports.TransitionResult {
	return &ports.TransitionResult{
		EscrowID:       before.ID,
		PreviousStatus: before.Status,
		NewStatus:      to,
	}
}

func wrapRead(op string, err error) error {
	if errors.Is(err, domain.ErrEscrowNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
