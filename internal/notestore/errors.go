package notestore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/notebox/internal/apperr"
)

// classify marks connection-level failures with apperr.ErrStoreUnavailable and
// passes every other error through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isConnectivity(err) {
		return unavailable(err)
	}
	return err
}

func unavailable(err error) error {
	if errors.Is(err, apperr.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
}

func isConnectivity(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
			return true
		}
	}
	return false
}

func (s *Store) ready() error {
	if s.closed.Load() {
		return fmt.Errorf("notestore: %w: connection closed", apperr.ErrStoreUnavailable)
	}
	return nil
}
