package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/audit"
	"github.com/marxist91/togoestate/internal/auth"
	"github.com/marxist91/togoestate/internal/database"
	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
)

const userColumns = `id, agency_id, role, username, email, first_name, last_name, password_hash,
	is_active, is_staff, is_superuser, created_at, updated_at`

// Auditor records audit entries. Satisfied by *audit.Service.
type Auditor interface {
	Log(ctx context.Context, entry audit.LogEntry) error
}

type Service struct {
	db     *pgxpool.Pool
	engine *policy.Engine
	issuer *auth.TokenIssuer
	audit  Auditor
}

func NewService(db *pgxpool.Pool, engine *policy.Engine, issuer *auth.TokenIssuer, auditor Auditor) *Service {
	return &Service{db: db, engine: engine, issuer: issuer, audit: auditor}
}

type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a self-service customer account. Role is always customer
// on this path; staff accounts are provisioned through CreateUser.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Username == "" || in.Email == "" || len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: username, email and a password of 8+ chars are required", models.ErrInvalidInput)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Role:         policy.RoleCustomer,
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := s.insert(ctx, user); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "user.register", &user.ID, map[string]interface{}{"username": user.Username})
	return user, nil
}

type CreateUserInput struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Role        policy.Role `json:"role"`
	AgencyID    *uuid.UUID  `json:"agency_id"`
	IsStaff     bool        `json:"is_staff"`
	IsSuperuser bool        `json:"is_superuser"`
}

// CreateUser provisions an account on behalf of an admin. The field lockdown
// decides which attributes the caller may set: agency admins get their own
// agency forced onto the record and cannot hand out elevated roles, while a
// superuser flag set by a platform admin promotes the account to
// platform_admin at creation time.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	decision, err := s.engine.Authorize(act, policy.KindUser, nil, policy.OpCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	if in.Username == "" || in.Email == "" || len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: username, email and a password of 8+ chars are required", models.ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = policy.RoleCustomer
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, in.Role)
	}

	payload := decision.Lockdown.Apply(map[string]any{
		policy.FieldRole:      in.Role,
		policy.FieldAgency:    in.AgencyID,
		policy.FieldStaff:     in.IsStaff,
		policy.FieldSuperuser: in.IsSuperuser,
	})

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := buildUser(in, hash, payload)

	if err := s.insert(ctx, user); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "user.create", &user.ID, map[string]interface{}{
		"username": user.Username,
		"role":     string(user.Role),
	})
	return user, nil
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userBy(ctx, "username", username)
	if errors.Is(err, models.ErrNotFound) {
		user, err = s.userBy(ctx, "email", strings.ToLower(username))
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, auth.ErrBadCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, auth.ErrBadCredentials
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, auth.ErrBadCredentials
	}

	token, expires, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "user.login", &user.ID, map[string]interface{}{"username": user.Username})
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// UserByID loads a user unconditionally. Used by the auth middleware; callers
// that serve user data to other users go through GetUser instead.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userBy(ctx, "id", id)
}

// GetUser returns the user if the actor's visibility scope admits it.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindUser)
	if err != nil {
		return nil, err
	}

	user, err := s.userBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(user) {
		return nil, models.ErrNotFound
	}
	return user, nil
}

// ListUsers lists the users inside the actor's visibility scope.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindUser)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	where, args := scope.SQL(1)
	argIdx := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateUser applies a partial update under policy control: the target must
// be mutable for the actor, and the field lockdown strips or rewrites any
// attribute the actor may not touch.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.User, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	user, err := s.userBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Authorize(act, policy.KindUser, user, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	payload := decision.Lockdown.Apply(patch)
	if pw, ok := payload["password"].(string); ok {
		if len(pw) < 8 {
			return nil, fmt.Errorf("%w: password must be 8+ chars", models.ErrInvalidInput)
		}
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		payload["password_hash"] = hash
		delete(payload, "password")
	}
	if role, ok := payload[policy.FieldRole]; ok {
		if r, isRole := roleValue(role); !isRole || !r.Valid() {
			return nil, fmt.Errorf("%w: unknown role %v", models.ErrInvalidInput, role)
		}
	}

	if err := s.updateColumns(ctx, id, payload, userUpdatableColumns); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "user.update", &id, map[string]interface{}{"fields": payloadKeys(payload)})
	return s.userBy(ctx, "id", id)
}

// DeleteUser deactivates an account. Per the mutation rules only an agency
// admin of the same agency (or a platform admin) may do this, and never to
// their own account.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return models.ErrForbidden
	}

	user, err := s.userBy(ctx, "id", id)
	if err != nil {
		return err
	}

	decision, err := s.engine.Authorize(act, policy.KindUser, user, policy.OpDelete)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return models.ErrForbidden
	}

	tag, err := s.db.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	s.logAudit(ctx, "user.delete", &id, nil)
	return nil
}

func (s *Service) insert(ctx context.Context, u *models.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, agency_id, role, username, email, first_name, last_name, password_hash, is_active, is_staff, is_superuser)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.AgencyID, u.Role, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsActive, u.IsStaff, u.IsSuperuser,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already taken", models.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Service) userBy(ctx context.Context, column string, value any) (*models.User, error) {
	var u models.User
	row := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column), value)
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query user by %s: %w", column, err)
	}
	return &u, nil
}

var userUpdatableColumns = map[string]struct{}{
	"agency_id":     {},
	"role":          {},
	"username":      {},
	"email":         {},
	"first_name":    {},
	"last_name":     {},
	"password_hash": {},
	"is_active":     {},
	"is_staff":      {},
	"is_superuser":  {},
}

func (s *Service) updateColumns(ctx context.Context, id uuid.UUID, payload map[string]any, allowed map[string]struct{}) error {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	argIdx := 2
	for col, val := range payload {
		if _, ok := allowed[col]; !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $1`, strings.Join(sets, ", "))
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already taken", models.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// buildUser assembles a new account from the input and the sanitized
// payload. A superuser flag that survived the lockdown promotes the account
// to platform_admin from the moment it exists.
func buildUser(in CreateUserInput, hash string, payload map[string]any) *models.User {
	user := &models.User{
		ID:           uuid.New(),
		Role:         policy.RoleCustomer,
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}
	applyUserPayload(user, payload)
	if user.IsSuperuser {
		user.Role = policy.RolePlatformAdmin
	}
	return user
}

func applyUserPayload(u *models.User, payload map[string]any) {
	if v, ok := roleValue(payload[policy.FieldRole]); ok {
		u.Role = v
	}
	switch v := payload[policy.FieldAgency].(type) {
	case *uuid.UUID:
		u.AgencyID = v
	case uuid.UUID:
		u.AgencyID = &v
	}
	if v, ok := payload[policy.FieldStaff].(bool); ok {
		u.IsStaff = v
	}
	if v, ok := payload[policy.FieldSuperuser].(bool); ok {
		u.IsSuperuser = v
	}
}

func roleValue(v any) (policy.Role, bool) {
	switch r := v.(type) {
	case policy.Role:
		return r, true
	case string:
		return policy.Role(r), true
	}
	return "", false
}

func payloadKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	return keys
}

func (s *Service) logAudit(ctx context.Context, action string, resourceID *uuid.UUID, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	// Best effort: audit failure never fails the mutation.
	_ = s.audit.Log(ctx, audit.LogEntry{
		Action:       action,
		ResourceType: "user",
		ResourceID:   resourceID,
		Details:      details,
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, u *models.User) error {
	return row.Scan(
		&u.ID, &u.AgencyID, &u.Role, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
	)
}
