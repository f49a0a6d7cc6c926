// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelamos/teamstation/internal/audit"
	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	TokenVersion int
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	redis        *redis.Client
	audit        audit.Sink
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient *redis.Client,
	sink audit.Sink,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		redis:        redisClient,
		audit:        sink,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	resp, err := s.issue(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     user.ID,
		Action:     audit.ActionUserLogin,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  ipAddress,
		Metadata:   map[string]any{"user_agent": userAgent},
	})

	return resp, nil
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp, err := s.issue(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     user.ID,
		Action:     audit.ActionUserRegister,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  ipAddress,
	})

	return resp, nil
}

// Refresh rotates a refresh credential: the presented token is revoked and a
// successor issued in one transaction. Presenting a token that was already
// rotated fails; the revoked row left behind is the replay marker.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	userID, err := s.jwt.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	accessToken, refreshData, err := s.mintTokenPair(user)
	if err != nil {
		return nil, err
	}

	successor := &RefreshCredential{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	_, err = s.repo.Rotate(ctx, core.HashToken(refreshToken), successor)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     user.ID,
		Action:     audit.ActionTokenRotate,
		EntityType: "refresh_credential",
		EntityID:   successor.ID,
		IPAddress:  ipAddress,
	})

	return s.buildAuthResponse(user, accessToken, refreshData), nil
}

// Logout revokes the presented refresh credential. Unknown or already-revoked
// tokens are not errors; the response says whether anything was revoked.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userID string,
) (bool, error) {
	tokenHash := core.HashToken(refreshToken)

	cred, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find credential: %w", err)
	}

	if cred.UserID != userID {
		return false, fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if cred.IsRevoked() {
		return false, nil
	}

	if err := s.repo.RevokeByID(ctx, cred.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("revoke credential: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionUserLogout,
		EntityType: "refresh_credential",
		EntityID:   cred.ID,
		IPAddress:  middleware.GetClientIP(ctx),
	})

	return true, nil
}

func (s *Service) LogoutAll(
	ctx context.Context,
	userID string,
) (int64, error) {
	revoked, err := s.repo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all credentials: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return 0, fmt.Errorf("increment token version: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionUserLogoutAll,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata:   map[string]any{"sessions_revoked": revoked},
	})

	return revoked, nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	key := "blacklist:" + jti
	ttl := time.Until(expiresAt)

	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

// BlacklistAccessToken parses the raw bearer token and blacklists its jti for
// the remainder of its lifetime.
func (s *Service) BlacklistAccessToken(
	ctx context.Context,
	rawToken string,
) error {
	jti, expiresAt, err := s.jwt.AccessTokenID(rawToken)
	if err != nil {
		return err
	}

	return s.RevokeAccessToken(ctx, jti, expiresAt)
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	key := "blacklist:" + jti

	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	creds, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(creds))
	for _, c := range creds {
		sessions = append(sessions, SessionInfo{
			ID:        c.ID,
			UserAgent: c.UserAgent,
			IPAddress: c.IPAddress,
			CreatedAt: c.CreatedAt,
			ExpiresAt: c.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	cred, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if cred.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if _, err := s.LogoutAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionPasswordChange,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  middleware.GetClientIP(ctx),
	})

	return nil
}

func (s *Service) ValidateTokenVersion(
	ctx context.Context,
	userID string,
	tokenVersion int,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if tokenVersion < user.TokenVersion {
		return fmt.Errorf("validate token version: %w", core.ErrTokenRevoked)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}, nil
}

// issue creates and stores a fresh credential for login and registration,
// where there is no predecessor to rotate out.
func (s *Service) issue(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	accessToken, refreshData, err := s.mintTokenPair(user)
	if err != nil {
		return nil, err
	}

	cred := &RefreshCredential{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.repo.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("store refresh credential: %w", err)
	}

	return s.buildAuthResponse(user, accessToken, refreshData), nil
}

func (s *Service) mintTokenPair(
	user *UserInfo,
) (string, *RefreshTokenData, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		Email:        user.Email,
		Name:         user.Name,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return "", nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("create refresh token: %w", err)
	}

	return accessToken, refreshData, nil
}

func (s *Service) buildAuthResponse(
	user *UserInfo,
	accessToken string,
	refreshData *RefreshTokenData,
) *AuthResponse {
	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User: UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}
}
