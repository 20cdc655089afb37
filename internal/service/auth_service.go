package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"astrotalk/internal/entity"
	"astrotalk/internal/metrics"
	"astrotalk/internal/repository"
	"astrotalk/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AuthService struct {
	accounts  repository.AccountRepository
	auditLogs repository.AuditLogRepository

	passwordHash PasswordHasher
	tokens       TokenIssuer
	metrics      *metrics.Metrics
	logger       logrus.FieldLogger
	config       AuthConfig

	// dummyHash is compared against when the login identifier is unknown so
	// both paths cost one hash verification.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	accounts repository.AccountRepository,
	auditLogs repository.AuditLogRepository,
	passwordHash PasswordHasher,
	tokens TokenIssuer,
	metrics *metrics.Metrics,
	logger logrus.FieldLogger,
	config AuthConfig,
) *AuthService {
	if logger == nil {
		logger = discardLogger()
	}
	return &AuthService{
		accounts:     accounts,
		auditLogs:    auditLogs,
		passwordHash: passwordHash,
		tokens:       tokens,
		metrics:      metrics,
		logger:       logger,
		config:       config,
	}
}

// Signup registers an account. Astrologer accounts get their default profile
// in the same transaction.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	mobile := strings.TrimSpace(input.Mobile)
	if username == "" || mobile == "" {
		return nil, fmt.Errorf("%w: username and mobile are required", ErrInvalidInput)
	}
	if !utils.IsAllDigits(mobile) {
		return nil, fmt.Errorf("%w: mobile must contain digits only", ErrInvalidInput)
	}
	role, ok := entity.ParseAccountRole(strings.ToLower(strings.TrimSpace(input.Role)))
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}

	password := input.Password
	if password == "" {
		if !s.config.AllowMobilePassword {
			return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		password = utils.MobileSuffixSecret(mobile)
		s.logger.WithField("username", username).Warn("account created with mobile-derived default password")
	}

	existing, err := s.accounts.FindByUsernameOrMobile(ctx, username, mobile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username or mobile already registered", ErrConflict)
	}

	hash, err := s.passwordHash.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &entity.Account{
		Username:     username,
		MobileNumber: mobile,
		PasswordHash: hash,
		Role:         role,
	}
	if role == entity.RoleAstrologer {
		err = s.accounts.CreateWithProfile(ctx, account, entity.NewAstrologerProfile(uuid.Nil, username))
	} else {
		err = s.accounts.Create(ctx, account)
	}
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: username or mobile already registered", ErrConflict)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	result, err := s.issue(account)
	if err != nil {
		return nil, err
	}

	s.metrics.Signup(string(role))
	recordAudit(ctx, s.auditLogs, s.logger, &account.ID, input.IPAddress, entity.AuditSignup, map[string]any{"role": role})
	return result, nil
}

// Login treats an all-digit identifier as a mobile number and anything else
// as a username.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", ErrInvalidInput)
	}

	var (
		account *entity.Account
		err     error
	)
	if utils.IsAllDigits(identifier) {
		account, err = s.accounts.FindByMobile(ctx, identifier)
	} else {
		account, err = s.accounts.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if account == nil {
		_ = s.passwordHash.Verify(s.dummyPasswordHash(), input.Password)
		s.metrics.Login("not_found")
		recordAudit(ctx, s.auditLogs, s.logger, nil, input.IPAddress, entity.AuditLoginFailed, map[string]any{"identifier": identifier})
		return nil, fmt.Errorf("%w: account not found", ErrNotFound)
	}

	if !s.passwordHash.Verify(account.PasswordHash, input.Password) {
		s.metrics.Login("invalid_credentials")
		recordAudit(ctx, s.auditLogs, s.logger, &account.ID, input.IPAddress, entity.AuditLoginFailed, nil)
		return nil, ErrInvalidCredentials
	}

	result, err := s.issue(account)
	if err != nil {
		return nil, err
	}

	s.metrics.Login("success")
	recordAudit(ctx, s.auditLogs, s.logger, &account.ID, input.IPAddress, entity.AuditLoginSuccess, nil)
	return result, nil
}

// Verify resolves a bearer token. Malformed, expired and forged tokens are
// all reported as ErrUnauthorized.
func (s *AuthService) Verify(token string) (Identity, error) {
	if strings.TrimSpace(token) == "" || s.tokens == nil {
		return Identity{}, ErrUnauthorized
	}
	identity, err := s.tokens.ParseToken(token)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	return identity, nil
}

func (s *AuthService) Authorize(identity Identity, roles ...entity.AccountRole) error {
	return authorize(identity, roles...)
}

func (s *AuthService) issue(account *entity.Account) (*AuthResult, error) {
	token, expiresIn, err := s.tokens.IssueToken(*account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresIn: int64(expiresIn.Seconds()),
		Account:   newAccountView(account),
	}, nil
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.passwordHash.Hash(uuid.NewString())
	})
	return s.dummyHash
}

func authorize(identity Identity, roles ...entity.AccountRole) error {
	if identity.AccountID == uuid.Nil {
		return ErrUnauthorized
	}
	for _, role := range roles {
		if identity.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
