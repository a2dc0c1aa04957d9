package ports

import "context"

// Store groups the repositories that share one unit of work. Repositories
// obtained from the Store passed to WithinTx run inside that transaction.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	Escrows() EscrowRepository
	Ledger() LedgerRepository
	KYC() KYCRepository
	Withdrawals() WithdrawalRepository
	Files() FileRepository
	Credentials() CredentialRepository
	PaymentMethods() PaymentMethodRepository

	// WithinTx runs fn in a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
