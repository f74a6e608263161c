package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/commercegrid/identity-service/pkg/credentials"
	"github.com/commercegrid/identity-service/pkg/errors"
	"github.com/commercegrid/identity-service/pkg/notification"
	"github.com/commercegrid/identity-service/pkg/rbac"
	"github.com/commercegrid/identity-service/pkg/token"
	"github.com/commercegrid/identity-service/pkg/verification"
)

// Service orchestrates the identity lifecycle: registration, email
// verification, login, token authentication and role management. It is
// stateless; the UserRepository holds all durable state.
type Service struct {
	repo     UserRepository
	notifier notification.Notifier
	hasher   credentials.Hasher
	policy   credentials.PolicyChecker
	codes    *verification.CodeManager
	tokens   *token.Service

	now              func() time.Time
	notifyTimeout    time.Duration
	exposeDebugCodes bool
}

// ServiceOption defines configuration options
type ServiceOption func(*Service)

// WithClock overrides the time source, used in tests
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithNotifyTimeout bounds how long a background notification attempt
// may take before it is abandoned.
func WithNotifyTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.notifyTimeout = timeout
	}
}

// WithDebugCodes makes ResendCode include the raw verification code in
// its result. Meant for non-production environments only.
func WithDebugCodes(expose bool) ServiceOption {
	return func(s *Service) {
		s.exposeDebugCodes = expose
	}
}

// NewService creates the identity lifecycle service
func NewService(
	repo UserRepository,
	notifier notification.Notifier,
	hasher credentials.Hasher,
	policy credentials.PolicyChecker,
	codes *verification.CodeManager,
	tokens *token.Service,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		repo:          repo,
		notifier:      notifier,
		hasher:        hasher,
		policy:        policy,
		codes:         codes,
		tokens:        tokens,
		now:           func() time.Time { return time.Now().UTC() },
		notifyTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new unverified user with a fresh verification code
// and notifies them best-effort. A notification failure never fails the
// registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (RegisterResult, error) {
	if params.DisplayName == "" {
		return RegisterResult{}, errors.InvalidInput("display name", "must not be empty")
	}
	email := CanonicalEmail(params.Email)
	if email == "" {
		return RegisterResult{}, errors.InvalidInput("email", "must not be empty")
	}

	if _, err := s.repo.FindByDisplayName(ctx, params.DisplayName); err == nil {
		return RegisterResult{}, errors.AlreadyExists("display name", params.DisplayName)
	} else if !errors.IsCode(err, errors.ErrCodeUserNotFound) {
		return RegisterResult{}, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return RegisterResult{}, errors.AlreadyExists("email", params.Email)
	} else if !errors.IsCode(err, errors.ErrCodeUserNotFound) {
		return RegisterResult{}, err
	}

	if params.Password != params.PasswordConfirm {
		return RegisterResult{}, errors.New(errors.ErrCodePasswordMismatch, "passwords do not match")
	}

	if err := s.policy.CheckComplexity(params.Password); err != nil {
		return RegisterResult{}, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		slog.Error("Failed to hash password", "err", err)
		return RegisterResult{}, errors.Internal(err)
	}

	now := s.now()
	code, expiry, err := s.codes.Issue(now)
	if err != nil {
		slog.Error("Failed to issue verification code", "err", err)
		return RegisterResult{}, errors.Internal(err)
	}

	// The existence checks above are check-then-act; the repository's
	// unique constraints resolve the race and report ALREADY_EXISTS.
	user, err := s.repo.Create(ctx, CreateUserParams{
		DisplayName:  params.DisplayName,
		Email:        email,
		PasswordHash: hash,
		Role:         rbac.RoleUser,
		PendingCode:  code,
		CodeExpiry:   expiry,
		CreatedAt:    now,
	})
	if err != nil {
		return RegisterResult{}, err
	}

	s.notifyCode(user.Email, code)

	slog.Info("User registered", "id", user.ID, "email", user.Email)
	return RegisterResult{User: user.View()}, nil
}

// VerifyEmail validates a submitted code and marks the user verified.
// Verifying an already-verified user is an idempotent no-op success; the
// code is not re-checked.
func (s *Service) VerifyEmail(ctx context.Context, email, submittedCode string) error {
	user, err := s.repo.FindByEmail(ctx, CanonicalEmail(email))
	if err != nil {
		return err
	}

	if user.Verified {
		slog.Info("Email already verified", "id", user.ID)
		return nil
	}

	if err := s.codes.Validate(user.PendingCode, user.CodeExpiry, submittedCode, s.now()); err != nil {
		return err
	}

	if _, err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return err
	}

	slog.Info("Email verified", "id", user.ID, "email", user.Email)
	return nil
}

// ResendCode issues a fresh verification code, invalidating any prior
// one, and notifies the user best-effort. An already-verified user gets
// a no-op success.
func (s *Service) ResendCode(ctx context.Context, email string) (ResendResult, error) {
	user, err := s.repo.FindByEmail(ctx, CanonicalEmail(email))
	if err != nil {
		return ResendResult{}, err
	}

	if user.Verified {
		return ResendResult{AlreadyVerified: true}, nil
	}

	code, expiry, err := s.codes.Issue(s.now())
	if err != nil {
		slog.Error("Failed to issue verification code", "err", err)
		return ResendResult{}, errors.Internal(err)
	}

	if _, err := s.repo.SetPendingCode(ctx, user.ID, code, expiry); err != nil {
		return ResendResult{}, err
	}

	s.notifyCode(user.Email, code)

	slog.Info("Verification code reissued", "id", user.ID)
	result := ResendResult{}
	if s.exposeDebugCodes {
		result.Code = code
	}
	return result, nil
}

// Login verifies credentials and issues a bearer token. Unknown email
// and wrong password return the identical error so the response does not
// reveal which part failed.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	invalidCredentials := errors.New(errors.ErrCodeInvalidCredentials, "invalid credentials")

	user, err := s.repo.FindByEmail(ctx, CanonicalEmail(email))
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeUserNotFound) {
			return LoginResult{}, invalidCredentials
		}
		return LoginResult{}, err
	}

	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		slog.Error("Failed to verify password", "id", user.ID, "err", err)
		return LoginResult{}, invalidCredentials
	}
	if !match {
		return LoginResult{}, invalidCredentials
	}

	if !user.Verified {
		return LoginResult{}, errors.New(errors.ErrCodeEmailNotVerified, "email not verified")
	}

	tokenStr, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Role, s.now())
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("User logged in", "id", user.ID)
	return LoginResult{
		AccessToken: tokenStr,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// Authenticate verifies a bearer token and resolves the live user
// record. The returned role is the stored one, not the role embedded in
// the token, so role changes take effect on the next authorization check
// even though issued tokens are never revoked.
func (s *Service) Authenticate(ctx context.Context, tokenStr string) (User, error) {
	claims, err := s.tokens.Verify(tokenStr, s.now())
	if err != nil {
		return User{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return User{}, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ChangeRole updates the target user's role. Only admins may call it.
func (s *Service) ChangeRole(ctx context.Context, callerRole rbac.Role, targetEmail, newRole string) (UserView, error) {
	if err := rbac.RequireRole(callerRole, rbac.RoleAdmin); err != nil {
		return UserView{}, err
	}

	role, err := rbac.ValidateAssignment(newRole)
	if err != nil {
		return UserView{}, err
	}

	user, err := s.repo.FindByEmail(ctx, CanonicalEmail(targetEmail))
	if err != nil {
		return UserView{}, err
	}

	updated, err := s.repo.SetRole(ctx, user.ID, role)
	if err != nil {
		return UserView{}, err
	}

	slog.Info("Role changed", "id", updated.ID, "role", role)
	return updated.View(), nil
}

// ListUsers returns the public view of every user
func (s *Service) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

// notifyCode delivers the verification code in the background with a
// bounded timeout. Failures are logged, never propagated: the calling
// operation already succeeded.
func (s *Service) notifyCode(email, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		err := s.notifier.Send(ctx, notification.NotificationData{
			To:      email,
			Subject: "Verification code",
			Body:    fmt.Sprintf("Your verification code is: %s", code),
		})
		if err != nil {
			slog.Error("Failed to send verification code", "to", email, "err", err)
		}
	}()
}
