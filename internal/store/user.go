package store

import (
	"context"
	"errors"
	"time"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore resolves client-credential logins to a role set, and is also
// the role-scoped CRUD for User over Postgres (§6's /users surface). Users
// are a VTN-internal concept (credential + role assignment) rather than a
// wire entity — OpenADR itself has no public "user" object.
//
// Supplemented beyond the reference postgres source (which only resolves
// VEN and Business roles per client): a user_role join additionally grants
// UserManager/VenManager, which the reference implementation's AuthRole enum
// defines but its Postgres AuthSource never actually populates.
type UserStore struct {
	DB *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore { return &UserStore{DB: db} }

// AuthInfo is what a successful client-credential lookup resolves to.
type AuthInfo struct {
	ClientID string
	Roles    []auth.AuthRole
}

// Lookup validates client_id/client_secret and resolves the caller's full
// role set. ok is false on any credential mismatch — the HTTP layer must not
// distinguish "unknown client" from "wrong secret" in its response.
func (s *UserStore) Lookup(ctx context.Context, clientID, clientSecret string) (AuthInfo, bool, *Error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
		SELECT u.id FROM "user" u
		JOIN user_credentials c ON c.user_id = u.id
		WHERE c.client_id = $1 AND c.client_secret = $2
	`, clientID, clientSecret).Scan(&userID)
	if err != nil {
		return AuthInfo{}, false, nil
	}
	roles, storeErr := s.rolesFor(ctx, userID)
	if storeErr != nil {
		return AuthInfo{}, false, storeErr
	}
	if len(roles) == 0 {
		return AuthInfo{}, false, nil
	}
	return AuthInfo{ClientID: clientID, Roles: roles}, true, nil
}

func (s *UserStore) rolesFor(ctx context.Context, userID string) ([]auth.AuthRole, *Error) {
	var roles []auth.AuthRole

	venRows, err := s.DB.Query(ctx, `SELECT ven_id FROM user_ven WHERE user_id = $1`, userID)
	if err != nil {
		return nil, Internal("lookup ven roles", err)
	}
	for venRows.Next() {
		var venID string
		if err := venRows.Scan(&venID); err != nil {
			venRows.Close()
			return nil, Internal("scan ven role", err)
		}
		roles = append(roles, auth.VEN(venID))
	}
	venRows.Close()
	if err := venRows.Err(); err != nil {
		return nil, Internal("lookup ven roles", err)
	}

	bizRows, err := s.DB.Query(ctx, `SELECT business_id FROM user_business WHERE user_id = $1`, userID)
	if err != nil {
		return nil, Internal("lookup business roles", err)
	}
	for bizRows.Next() {
		var bizID *string
		if err := bizRows.Scan(&bizID); err != nil {
			bizRows.Close()
			return nil, Internal("scan business role", err)
		}
		if bizID == nil {
			roles = append(roles, auth.AnyBusiness())
		} else {
			roles = append(roles, auth.Business(*bizID))
		}
	}
	bizRows.Close()
	if err := bizRows.Err(); err != nil {
		return nil, Internal("lookup business roles", err)
	}

	roleRows, err := s.DB.Query(ctx, `SELECT role FROM user_role WHERE user_id = $1`, userID)
	if err != nil {
		return nil, Internal("lookup manager roles", err)
	}
	for roleRows.Next() {
		var kind string
		if err := roleRows.Scan(&kind); err != nil {
			roleRows.Close()
			return nil, Internal("scan manager role", err)
		}
		switch auth.RoleKind(kind) {
		case auth.RoleUserManager:
			roles = append(roles, auth.UserManager())
		case auth.RoleVenManager:
			roles = append(roles, auth.VenManager())
		}
	}
	roleRows.Close()
	if err := roleRows.Err(); err != nil {
		return nil, Internal("lookup manager roles", err)
	}

	return roles, nil
}

func (s *UserStore) clientIDsFor(ctx context.Context, userID string) ([]string, *Error) {
	rows, err := s.DB.Query(ctx, `SELECT client_id FROM user_credentials WHERE user_id = $1`, userID)
	if err != nil {
		return nil, Internal("lookup client ids", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, Internal("scan client id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("lookup client ids", err)
	}
	return ids, nil
}

// syncRoles replaces a user's role-join rows to match content.Roles.
func (s *UserStore) syncRoles(ctx context.Context, tx pgx.Tx, userID string, roles []auth.AuthRole) *Error {
	if _, err := tx.Exec(ctx, `DELETE FROM user_ven WHERE user_id = $1`, userID); err != nil {
		return Internal("clear ven roles", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_business WHERE user_id = $1`, userID); err != nil {
		return Internal("clear business roles", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_role WHERE user_id = $1`, userID); err != nil {
		return Internal("clear manager roles", err)
	}
	for _, role := range roles {
		switch role.Kind {
		case auth.RoleVEN:
			if _, err := tx.Exec(ctx, `INSERT INTO user_ven (user_id, ven_id) VALUES ($1, $2)`, userID, role.ID); err != nil {
				return Internal("insert ven role", err)
			}
		case auth.RoleBusiness:
			if _, err := tx.Exec(ctx, `INSERT INTO user_business (user_id, business_id) VALUES ($1, $2)`, userID, role.ID); err != nil {
				return Internal("insert business role", err)
			}
		case auth.RoleAnyBusiness:
			if _, err := tx.Exec(ctx, `INSERT INTO user_business (user_id, business_id) VALUES ($1, NULL)`, userID); err != nil {
				return Internal("insert any-business role", err)
			}
		case auth.RoleUserManager:
			if _, err := tx.Exec(ctx, `INSERT INTO user_role (user_id, role) VALUES ($1, $2)`, userID, string(auth.RoleUserManager)); err != nil {
				return Internal("insert user-manager role", err)
			}
		case auth.RoleVenManager:
			if _, err := tx.Exec(ctx, `INSERT INTO user_role (user_id, role) VALUES ($1, $2)`, userID, string(auth.RoleVenManager)); err != nil {
				return Internal("insert ven-manager role", err)
			}
		}
	}
	return nil
}

func (s *UserStore) Create(ctx context.Context, content wire.UserContent, caller auth.Claims) (wire.User, *Error) {
	if err := content.Validate(); err != nil {
		return wire.User{}, Validation(err.Error())
	}
	if !caller.IsUserManager() {
		return wire.User{}, Forbidden("managing users requires UserManager")
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return wire.User{}, Internal("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	var row userRow
	err = tx.QueryRow(ctx, `
		INSERT INTO "user" (id, created_date_time, modification_date_time, reference, description)
		VALUES ($1, now(), now(), $2, $3)
		RETURNING id, created_date_time, modification_date_time, reference, description
	`, id, content.Reference, nullableString(content.Description)).Scan(
		&row.id, &row.createdAt, &row.modifiedAt, &row.reference, &row.description)
	if err != nil {
		return wire.User{}, Internal("insert user", err)
	}
	if storeErr := s.syncRoles(ctx, tx, id, content.Roles); storeErr != nil {
		return wire.User{}, storeErr
	}
	if err := tx.Commit(ctx); err != nil {
		return wire.User{}, Internal("commit transaction", err)
	}
	return s.assemble(ctx, row, content.Roles)
}

func (s *UserStore) Retrieve(ctx context.Context, id string, caller auth.Claims) (wire.User, *Error) {
	if !caller.IsUserManager() {
		return wire.User{}, Forbidden("managing users requires UserManager")
	}
	row, storeErr := s.retrieveRow(ctx, id)
	if storeErr != nil {
		return wire.User{}, storeErr
	}
	roles, storeErr := s.rolesFor(ctx, id)
	if storeErr != nil {
		return wire.User{}, storeErr
	}
	return s.assemble(ctx, row, roles)
}

func (s *UserStore) retrieveRow(ctx context.Context, id string) (userRow, *Error) {
	var row userRow
	err := s.DB.QueryRow(ctx, `
		SELECT id, created_date_time, modification_date_time, reference, description
		FROM "user" WHERE id = $1
	`, id).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.reference, &row.description)
	if errors.Is(err, pgx.ErrNoRows) {
		return userRow{}, NotFound("user not found")
	}
	if err != nil {
		return userRow{}, Internal("retrieve user", err)
	}
	return row, nil
}

func (s *UserStore) RetrieveAll(ctx context.Context, filter Filter, caller auth.Claims) ([]wire.User, *Error) {
	if !caller.IsUserManager() {
		return nil, Forbidden("managing users requires UserManager")
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, created_date_time, modification_date_time, reference, description
		FROM "user"
		ORDER BY created_date_time
		OFFSET $1 LIMIT $2
	`, filter.Skip, filter.Limit)
	if err != nil {
		return nil, Internal("list users", err)
	}
	defer rows.Close()

	var out []wire.User
	for rows.Next() {
		var row userRow
		if err := rows.Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.reference, &row.description); err != nil {
			return nil, Internal("scan user row", err)
		}
		roles, storeErr := s.rolesFor(ctx, row.id)
		if storeErr != nil {
			return nil, storeErr
		}
		u, storeErr := s.assemble(ctx, row, roles)
		if storeErr != nil {
			return nil, storeErr
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("list users", err)
	}
	return out, nil
}

func (s *UserStore) Update(ctx context.Context, id string, content wire.UserContent, caller auth.Claims) (wire.User, *Error) {
	if err := content.Validate(); err != nil {
		return wire.User{}, Validation(err.Error())
	}
	if !caller.IsUserManager() {
		return wire.User{}, Forbidden("managing users requires UserManager")
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return wire.User{}, Internal("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var row userRow
	err = tx.QueryRow(ctx, `
		UPDATE "user" SET modification_date_time = now(), reference = $2, description = $3
		WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, reference, description
	`, id, content.Reference, nullableString(content.Description)).Scan(
		&row.id, &row.createdAt, &row.modifiedAt, &row.reference, &row.description)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.User{}, NotFound("user not found")
	}
	if err != nil {
		return wire.User{}, Internal("update user", err)
	}
	if storeErr := s.syncRoles(ctx, tx, id, content.Roles); storeErr != nil {
		return wire.User{}, storeErr
	}
	if err := tx.Commit(ctx); err != nil {
		return wire.User{}, Internal("commit transaction", err)
	}
	return s.assemble(ctx, row, content.Roles)
}

func (s *UserStore) Delete(ctx context.Context, id string, caller auth.Claims) (wire.User, *Error) {
	if !caller.IsUserManager() {
		return wire.User{}, Forbidden("managing users requires UserManager")
	}
	row, storeErr := s.retrieveRow(ctx, id)
	if storeErr != nil {
		return wire.User{}, storeErr
	}
	roles, storeErr := s.rolesFor(ctx, id)
	if storeErr != nil {
		return wire.User{}, storeErr
	}
	user, storeErr := s.assemble(ctx, row, roles)
	if storeErr != nil {
		return wire.User{}, storeErr
	}
	tag, err := s.DB.Exec(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return wire.User{}, Internal("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return wire.User{}, NotFound("user not found")
	}
	return user, nil
}

// AddCredential handles the "POST /users/{id}" add-credential operation.
func (s *UserStore) AddCredential(ctx context.Context, userID, clientID, clientSecret string, caller auth.Claims) *Error {
	if !caller.IsUserManager() {
		return Forbidden("managing users requires UserManager")
	}
	if _, storeErr := s.retrieveRow(ctx, userID); storeErr != nil {
		return storeErr
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO user_credentials (user_id, client_id, client_secret) VALUES ($1, $2, $3)
	`, userID, clientID, clientSecret)
	if isUniqueViolation(err) {
		return Conflict("a credential with this clientId already exists")
	}
	if err != nil {
		return Internal("insert credential", err)
	}
	return nil
}

// DeleteCredential handles "DELETE /users/{user_id}/{client_id}", and
// returns the owning User as it reads after the credential is gone — the
// credential itself isn't an addressable wire entity, so the parent User is
// the natural 200 OK body (§6's /users/{user_id}/{client_id} route).
func (s *UserStore) DeleteCredential(ctx context.Context, userID, clientID string, caller auth.Claims) (wire.User, *Error) {
	if !caller.IsUserManager() {
		return wire.User{}, Forbidden("managing users requires UserManager")
	}
	tag, err := s.DB.Exec(ctx, `
		DELETE FROM user_credentials WHERE user_id = $1 AND client_id = $2
	`, userID, clientID)
	if err != nil {
		return wire.User{}, Internal("delete credential", err)
	}
	if tag.RowsAffected() == 0 {
		return wire.User{}, NotFound("credential not found")
	}
	row, storeErr := s.retrieveRow(ctx, userID)
	if storeErr != nil {
		return wire.User{}, storeErr
	}
	roles, storeErr := s.rolesFor(ctx, userID)
	if storeErr != nil {
		return wire.User{}, storeErr
	}
	return s.assemble(ctx, row, roles)
}

func (s *UserStore) assemble(ctx context.Context, row userRow, roles []auth.AuthRole) (wire.User, *Error) {
	clientIDs, storeErr := s.clientIDsFor(ctx, row.id)
	if storeErr != nil {
		return wire.User{}, storeErr
	}
	content := wire.UserContent{Reference: row.reference, Roles: roles, ClientIDs: clientIDs}
	if row.description != nil {
		content.Description = *row.description
	}
	return wire.User{ID: row.id, CreatedAt: row.createdAt, ModifiedAt: row.modifiedAt, Content: content}, nil
}

type userRow struct {
	id          string
	createdAt   time.Time
	modifiedAt  time.Time
	reference   string
	description *string
}
