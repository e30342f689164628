// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNotFound indicates that a referenced row does not exist
// (an unknown photo or channel), while ErrDuplicate signals that a
// uniqueness constraint fired, which for the ledger is the normal way
// a replayed receipt announces itself.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource belonging to another channel. Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a referenced row does not exist, such
// as tipping a photo that was deleted. Handlers should translate this
// into an HTTP 400 or 404 response depending on the operation.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key. The
// ledger relies on it to detect a receipt that has already been
// applied; callers then look up the original entry instead of
// applying the effect a second time.
var ErrDuplicate = errors.New("duplicate")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
