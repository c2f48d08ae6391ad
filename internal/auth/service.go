package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/repairdesk-backend/internal/users"
	pkgAuth "github.com/angelmondragon/repairdesk-backend/pkg/auth"
	"github.com/angelmondragon/repairdesk-backend/pkg/auth/session"
	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	"github.com/angelmondragon/repairdesk-backend/pkg/db"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/email"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	invalidTokenMessage       = "invalid or expired token"
	defaultEmailTimeout       = 5 * time.Second
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	SendLink(ctx context.Context, req SendLinkRequest) error
	VerifyLink(ctx context.Context, token string) (*Session, error)
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	Register(ctx context.Context, req RegisterRequest) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindOrCreateShadow(ctx context.Context, email string) (*models.User, bool, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type tokenBlacklist interface {
	Add(ctx context.Context, token string, tokenType enums.TokenType) error
	Contains(ctx context.Context, token string) (bool, error)
}

type sessionManager interface {
	Open(ctx context.Context, accessID, refreshToken string) error
	Rotate(ctx context.Context, oldAccessID, provided, newAccessID, newRefresh string) error
	Revoke(ctx context.Context, accessID string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type service struct {
	users        userRepository
	blacklist    tokenBlacklist
	session      sessionManager
	hasher       passwordHasher
	mailer       email.Sender
	jwtCfg       config.JWTConfig
	clientURL    string
	emailTimeout time.Duration
	logg         *logger.Logger
	now          func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Blacklist      tokenBlacklist
	SessionManager sessionManager
	Hasher         passwordHasher
	Mailer         email.Sender
	JWTConfig      config.JWTConfig
	ClientURL      string
	EmailTimeout   time.Duration
	Logger         *logger.Logger
	Clock          func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Blacklist == nil {
		return nil, fmt.Errorf("token blacklist is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	timeout := params.EmailTimeout
	if timeout <= 0 {
		timeout = defaultEmailTimeout
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:        params.UserRepo,
		blacklist:    params.Blacklist,
		session:      params.SessionManager,
		hasher:       params.Hasher,
		mailer:       params.Mailer,
		jwtCfg:       params.JWTConfig,
		clientURL:    params.ClientURL,
		emailTimeout: timeout,
		logg:         logg,
		now:          clock,
	}, nil
}

// SendLink emails a one-time sign-in link, creating a shadow user for
// unknown addresses.
func (s *service) SendLink(ctx context.Context, req SendLinkRequest) error {
	addr := users.NormalizeEmail(req.Email)
	if addr == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, created, err := s.users.FindOrCreateShadow(ctx, addr)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve user")
	}
	if created {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.shadow_user_created")
	}

	token, err := pkgAuth.MintOneTimeToken(s.jwtCfg, s.now(), pkgAuth.TokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint one-time token")
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.emailTimeout)
	defer cancel()
	if err := s.mailer.Send(sendCtx, email.LoginLink(user.Email, s.clientURL, token)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.send_link_failed")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not send sign-in link")
	}
	return nil
}

// VerifyLink exchanges a one-time token for a session. The token is
// blacklisted before the session is issued, so a second use always fails.
func (s *service) VerifyLink(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}
	if err := s.ensureNotBlacklisted(ctx, token); err != nil {
		return nil, err
	}

	claims, err := pkgAuth.Parse(s.jwtCfg, enums.TokenTypeOneTime, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidTokenMessage)
	}

	if err := s.blacklist.Add(ctx, token, enums.TokenTypeOneTime); err != nil {
		if errors.Is(err, ErrAlreadyBlacklisted) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "blacklist token")
	}

	user, err := s.loadUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Register creates a password account. An existing shadow user with the same
// email is claimed instead of duplicated.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	addr := users.NormalizeEmail(req.Email)
	if addr == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	existing, err := s.users.FindByEmail(ctx, addr)
	switch {
	case err == nil && existing.HasPassword():
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	case err == nil:
		updates := map[string]any{
			"first_name":      firstName,
			"last_name":       lastName,
			"password_hash":   hash,
			"is_legal_entity": req.IsLegalEntity,
			"company_name":    req.CompanyName,
		}
		if err := s.users.Update(ctx, existing.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim user")
		}
		user, err := s.loadUser(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		return s.issue(ctx, user)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:         addr,
		PasswordHash:  hash,
		FirstName:     &firstName,
		LastName:      &lastName,
		Role:          enums.RoleUser,
		IsLegalEntity: req.IsLegalEntity,
		CompanyName:   req.CompanyName,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return s.issue(ctx, user)
}

// Refresh rotates the session bound to the refresh token and returns fresh tokens.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.parseRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	access, refresh, err := s.mint(user, accessID)
	if err != nil {
		return nil, err
	}
	if err := s.session.Rotate(ctx, claims.ID, refreshToken, accessID, refresh); err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: users.FromModel(user)}, nil
}

// Logout blacklists the refresh token and drops its session, which also
// invalidates the paired access token.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.parseRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.blacklist.Add(ctx, refreshToken, enums.TokenTypeRefresh); err != nil && !errors.Is(err, ErrAlreadyBlacklisted) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "blacklist refresh token")
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

func (s *service) authenticate(ctx context.Context, addr, password string) (*models.User, error) {
	input := users.NormalizeEmail(addr)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.HasPassword() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := s.hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) parseRefresh(ctx context.Context, refreshToken string) (*pkgAuth.Claims, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token required")
	}
	if err := s.ensureNotBlacklisted(ctx, refreshToken); err != nil {
		return nil, err
	}
	claims, err := pkgAuth.Parse(s.jwtCfg, enums.TokenTypeRefresh, refreshToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidTokenMessage)
	}
	return claims, nil
}

func (s *service) ensureNotBlacklisted(ctx context.Context, token string) error {
	revoked, err := s.blacklist.Contains(ctx, token)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check token blacklist")
	}
	if revoked {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) issue(ctx context.Context, user *models.User) (*Session, error) {
	accessID := session.NewAccessID()
	access, refresh, err := s.mint(user, accessID)
	if err != nil {
		return nil, err
	}
	if err := s.session.Open(ctx, accessID, refresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: users.FromModel(user)}, nil
}

func (s *service) mint(user *models.User, accessID string) (string, string, error) {
	now := s.now()
	payload := pkgAuth.TokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		JTI:    accessID,
	}
	access, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refresh, err := pkgAuth.MintRefreshToken(s.jwtCfg, now, payload)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
	}
	return access, refresh, nil
}
