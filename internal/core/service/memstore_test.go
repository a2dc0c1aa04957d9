package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory Store
// ---------------------------------------------------------------------------

// memStore is a ports.Store backed by maps. WithinTx serializes transactions
// and restores a snapshot when fn fails, which mirrors a rollback.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID      int64
	users       map[int64]*domain.User
	sessions    map[string]domain.Session
	escrows     map[int64]*domain.Escrow
	ledger      []domain.LedgerEntry
	kyc         []domain.KYCSubmission
	withdrawals map[int64]*domain.WithdrawalMethod
	files       []domain.FileMetadata
	creds       map[int64]*domain.Credentials
	methods     []domain.PaymentMethod

	// staleStatus makes the next FindOwned of an escrow report this status,
	// as a read that lost a race with another writer would.
	staleStatus map[int64]domain.Status

	// Injected failures.
	updateErr  error
	appendErr  error
	filesErr   error
	methodsErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[int64]*domain.User),
		sessions:    make(map[string]domain.Session),
		escrows:     make(map[int64]*domain.Escrow),
		withdrawals: make(map[int64]*domain.WithdrawalMethod),
		creds:       make(map[int64]*domain.Credentials),
		staleStatus: make(map[int64]domain.Status),
	}
}

var discardLogger = zerolog.Nop()

func (s *memStore) Users() ports.UserRepository                   { return memUsers{s} }
func (s *memStore) Sessions() ports.SessionRepository             { return memSessions{s} }
func (s *memStore) Escrows() ports.EscrowRepository               { return memEscrows{s} }
func (s *memStore) Ledger() ports.LedgerRepository                { return memLedger{s} }
func (s *memStore) KYC() ports.KYCRepository                      { return memKYC{s} }
func (s *memStore) Withdrawals() ports.WithdrawalRepository       { return memWithdrawals{s} }
func (s *memStore) Files() ports.FileRepository                   { return memFiles{s} }
func (s *memStore) Credentials() ports.CredentialRepository       { return memCreds{s} }
func (s *memStore) PaymentMethods() ports.PaymentMethodRepository { return memMethods{s} }

type memSnapshot struct {
	nextID      int64
	users       map[int64]domain.User
	escrows     map[int64]domain.Escrow
	ledger      []domain.LedgerEntry
	kyc         []domain.KYCSubmission
	withdrawals map[int64]domain.WithdrawalMethod
	files       []domain.FileMetadata
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		nextID:      s.nextID,
		users:       make(map[int64]domain.User, len(s.users)),
		escrows:     make(map[int64]domain.Escrow, len(s.escrows)),
		ledger:      append([]domain.LedgerEntry(nil), s.ledger...),
		kyc:         append([]domain.KYCSubmission(nil), s.kyc...),
		withdrawals: make(map[int64]domain.WithdrawalMethod, len(s.withdrawals)),
		files:       append([]domain.FileMetadata(nil), s.files...),
	}
	for id, u := range s.users {
		snap.users[id] = *u
	}
	for id, e := range s.escrows {
		snap.escrows[id] = *e
	}
	for id, w := range s.withdrawals {
		snap.withdrawals[id] = *w
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.users = make(map[int64]*domain.User, len(snap.users))
	for id, u := range snap.users {
		u := u
		s.users[id] = &u
	}
	s.escrows = make(map[int64]*domain.Escrow, len(snap.escrows))
	for id, e := range snap.escrows {
		e := e
		s.escrows[id] = &e
	}
	s.withdrawals = make(map[int64]*domain.WithdrawalMethod, len(snap.withdrawals))
	for id, w := range snap.withdrawals {
		w := w
		s.withdrawals[id] = &w
	}
	s.ledger = snap.ledger
	s.kyc = snap.kyc
	s.files = snap.files
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// addUser inserts a user directly; used to seed tests.
func (s *memStore) addUser(email, role string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: s.id(), Email: email, Name: email, Role: role, CreatedAt: time.Now()}
	s.users[u.ID] = u
	clone := *u
	return &clone
}

func (s *memStore) escrow(id int64) domain.Escrow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.escrows[id]
}

func (s *memStore) setStatus(id int64, st domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escrows[id].Status = st
}

func (s *memStore) balance(userID int64) domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].Balance
}

func (s *memStore) ledgerFor(escrowID int64) []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LedgerEntry
	for _, l := range s.ledger {
		if l.EscrowID == escrowID {
			out = append(out, l)
		}
	}
	return out
}

func (s *memStore) fileRows() []domain.FileMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.FileMetadata(nil), s.files...)
}

func owns(e *domain.Escrow, o domain.Owner) bool {
	switch o.Party {
	case domain.PartyBuyer:
		return e.BuyerID == o.UserID
	case domain.PartySeller:
		return e.SellerID == o.UserID
	case domain.PartyEither:
		return e.BuyerID == o.UserID || e.SellerID == o.UserID
	}
	return false
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = time.Now()
	clone := *u
	r.s.users[u.ID] = &clone
	return nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) CreditBalance(_ context.Context, userID int64, amount domain.Money) (domain.Money, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.Balance += amount
	return u.Balance, nil
}

type memSessions struct{ s *memStore }

func (r memSessions) Create(_ context.Context, sess domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[sess.Token] = sess
	return nil
}

func (r memSessions) FindIdentity(_ context.Context, token string, now time.Time) (*domain.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[token]
	if !ok || !sess.ExpiresAt.After(now) {
		return nil, domain.ErrUnauthenticated
	}
	u := r.s.users[sess.UserID]
	return &domain.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}, nil
}

func (r memSessions) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, token)
	return nil
}

func (r memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for tok, sess := range r.s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(r.s.sessions, tok)
			n++
		}
	}
	return n, nil
}

type memEscrows struct{ s *memStore }

func (r memEscrows) Create(_ context.Context, e *domain.Escrow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	clone := *e
	r.s.escrows[e.ID] = &clone
	return nil
}

func (r memEscrows) FindOwned(_ context.Context, id int64, o domain.Owner) (*domain.Escrow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.escrows[id]
	if !ok || !owns(e, o) {
		return nil, domain.ErrEscrowNotFound
	}
	clone := *e
	if st, ok := r.s.staleStatus[id]; ok {
		delete(r.s.staleStatus, id)
		clone.Status = st
	}
	return &clone, nil
}

func (r memEscrows) FindView(ctx context.Context, id int64, o domain.Owner) (*domain.EscrowView, error) {
	e, err := r.FindOwned(ctx, id, o)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return &domain.EscrowView{
		Escrow:      *e,
		BuyerEmail:  r.s.users[e.BuyerID].Email,
		SellerEmail: r.s.users[e.SellerID].Email,
	}, nil
}

func (r memEscrows) UpdateStatus(_ context.Context, u ports.EscrowUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.updateErr != nil {
		return r.s.updateErr
	}
	e, ok := r.s.escrows[u.ID]
	if !ok || !owns(e, u.Owner) {
		return domain.ErrTransitionConflict
	}
	matched := false
	for _, f := range u.From {
		if e.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return domain.ErrTransitionConflict
	}
	e.Status = u.To
	e.UpdatedAt = u.At
	if u.SellerTerms != nil {
		e.SellerTerms = *u.SellerTerms
	}
	if u.SellerDeliverables != nil {
		e.SellerDeliverables = *u.SellerDeliverables
	}
	if u.SellerRejectReason != nil {
		e.SellerRejectReason = *u.SellerRejectReason
	}
	if u.SellerConfirmedAt != nil {
		t := *u.SellerConfirmedAt
		e.SellerConfirmedAt = &t
	}
	if u.DeliveredAt != nil {
		t := *u.DeliveredAt
		e.DeliveredAt = &t
	}
	if u.SellerRequestTime != nil {
		t := *u.SellerRequestTime
		e.SellerRequestTime = &t
	}
	return nil
}

func (r memEscrows) ListBySeller(_ context.Context, sellerID int64) ([]domain.EscrowView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.EscrowView
	for _, e := range r.s.escrows {
		if e.SellerID == sellerID {
			out = append(out, domain.EscrowView{Escrow: *e, BuyerEmail: r.s.users[e.BuyerID].Email})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memLedger struct{ s *memStore }

func (r memLedger) Append(_ context.Context, l *domain.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.appendErr != nil {
		return r.s.appendErr
	}
	l.ID = r.s.id()
	r.s.ledger = append(r.s.ledger, *l)
	return nil
}

func (r memLedger) ListByEscrow(_ context.Context, escrowID int64) ([]domain.LedgerEntry, error) {
	return r.s.ledgerFor(escrowID), nil
}

type memKYC struct{ s *memStore }

func (r memKYC) Create(_ context.Context, k *domain.KYCSubmission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k.ID = r.s.id()
	r.s.kyc = append(r.s.kyc, *k)
	return nil
}

func (r memKYC) Latest(_ context.Context, userID int64) (*domain.KYCSubmission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.kyc) - 1; i >= 0; i-- {
		if r.s.kyc[i].UserID == userID {
			k := r.s.kyc[i]
			return &k, nil
		}
	}
	return nil, domain.ErrKYCNotFound
}

type memWithdrawals struct{ s *memStore }

func (r memWithdrawals) Upsert(_ context.Context, m *domain.WithdrawalMethod) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *m
	r.s.withdrawals[m.UserID] = &clone
	return nil
}

func (r memWithdrawals) FindActive(_ context.Context, userID int64) (*domain.WithdrawalMethod, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.withdrawals[userID]
	if !ok || !m.Active {
		return nil, domain.ErrWithdrawalMethodNotFound
	}
	clone := *m
	return &clone, nil
}

type memFiles struct{ s *memStore }

func (r memFiles) Insert(_ context.Context, f *domain.FileMetadata) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.filesErr != nil {
		return r.s.filesErr
	}
	f.ID = r.s.id()
	r.s.files = append(r.s.files, *f)
	return nil
}

type memCreds struct{ s *memStore }

func (r memCreds) FindByEscrow(_ context.Context, escrowID int64) (*domain.Credentials, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.creds[escrowID]
	if !ok {
		return nil, domain.ErrCredentialsNotFound
	}
	clone := *c
	return &clone, nil
}

type memMethods struct{ s *memStore }

func (r memMethods) ListActive(_ context.Context) ([]domain.PaymentMethod, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.methodsErr != nil {
		return nil, r.s.methodsErr
	}
	return append([]domain.PaymentMethod(nil), r.s.methods...), nil
}

// ---------------------------------------------------------------------------
// Blob and idempotency stubs
// ---------------------------------------------------------------------------

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte)}
}

func (b *memBlobs) Put(_ context.Context, key, _ string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[key] = append([]byte(nil), data...)
	return nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// memIdem mirrors the Redis reservation protocol: "0" while the first
// request runs, then the escrow ID.
type memIdem struct {
	mu         sync.Mutex
	keys       map[string]int64
	reserveErr error
	released   int
}

func newMemIdem() *memIdem {
	return &memIdem{keys: make(map[string]int64)}
}

func (m *memIdem) Reserve(_ context.Context, scope, key string) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveErr != nil {
		return false, 0, m.reserveErr
	}
	k := scope + ":" + key
	if id, ok := m.keys[k]; ok {
		return false, id, nil
	}
	m.keys[k] = 0
	return true, 0, nil
}

func (m *memIdem) Complete(_ context.Context, scope, key string, escrowID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[scope+":"+key] = escrowID
	return nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, scope+":"+key)
	m.released++
	return nil
}

func (m *memIdem) has(scope, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[scope+":"+key]
	return ok
}
