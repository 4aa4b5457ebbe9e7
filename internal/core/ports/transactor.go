package ports

import "context"

// Transactor runs fn inside one database transaction. Repositories invoked
// with the callback context join that transaction; any error from fn rolls
// everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
