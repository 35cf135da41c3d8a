// Package access answers role questions from the user_roles table.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ticketbot/core/bootstrap"
	"github.com/m3rciful/ticketbot/core/logger"
)

// Role names a privilege.
type Role string

// RoleAdmin grants export and user management.
const RoleAdmin Role = "admin"

// ErrPermissionDenied is returned by Require for users without the role.
var ErrPermissionDenied = errors.New("access: permission denied")

// Authorizer looks roles up in storage on every call, so grants and
// revocations apply immediately.
type Authorizer struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAuthorizer wraps db.
func NewAuthorizer(db *sqlx.DB) *Authorizer {
	return &Authorizer{db: db, now: time.Now}
}

// HasRole reports whether userID holds role.
func (a *Authorizer) HasRole(ctx context.Context, userID int64, role Role) (bool, error) {
	var n int
	if err := a.db.GetContext(ctx, &n, a.db.Rebind(
		`SELECT COUNT(*) FROM user_roles WHERE user_id = ? AND role = ?`), userID, string(role)); err != nil {
		return false, fmt.Errorf("access lookup: %w", err)
	}
	return n > 0, nil
}

// IsAdmin reports whether userID holds RoleAdmin.
func (a *Authorizer) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return a.HasRole(ctx, userID, RoleAdmin)
}

// Require returns ErrPermissionDenied unless userID holds role. Lookup
// failures are returned as is and must also be treated as a denial.
func (a *Authorizer) Require(ctx context.Context, userID int64, role Role) error {
	ok, err := a.HasRole(ctx, userID, role)
	if err != nil {
		return err
	}
	if !ok {
		logger.SVCAccess.InfoContext(ctx, "permission denied",
			slog.String("event", "access.require"),
			slog.Int64("user_id", userID),
			slog.String("role", string(role)),
			slog.String("outcome", "denied"),
		)
		return ErrPermissionDenied
	}
	return nil
}

// Grant gives role to userID. Granting a held role is a no-op.
func (a *Authorizer) Grant(ctx context.Context, userID int64, role Role) error {
	if _, err := a.db.ExecContext(ctx, a.db.Rebind(
		`INSERT INTO user_roles (user_id, role, granted_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, role) DO NOTHING`), userID, string(role), a.now().UTC()); err != nil {
		return fmt.Errorf("access grant: %w", err)
	}
	logger.SVCAccess.InfoContext(ctx, "role granted",
		slog.String("event", "access.grant"),
		slog.Int64("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

// Revoke removes role from userID.
func (a *Authorizer) Revoke(ctx context.Context, userID int64, role Role) error {
	if _, err := a.db.ExecContext(ctx, a.db.Rebind(
		`DELETE FROM user_roles WHERE user_id = ? AND role = ?`), userID, string(role)); err != nil {
		return fmt.Errorf("access revoke: %w", err)
	}
	return nil
}

// AdminSeeder grants RoleAdmin to the configured administrator at startup.
func AdminSeeder(adminID int64) bootstrap.Seeder {
	return bootstrap.SeederFunc{
		Label: "admin_role",
		Fn: func(ctx context.Context, db *sqlx.DB) error {
			if adminID <= 0 {
				return fmt.Errorf("access: invalid admin id %d", adminID)
			}
			return NewAuthorizer(db).Grant(ctx, adminID, RoleAdmin)
		},
	}
}
