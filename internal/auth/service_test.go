package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/pagebound/bookstore-backend/pkg/auth"
	"github.com/pagebound/bookstore-backend/pkg/auth/session"
	"github.com/pagebound/bookstore-backend/pkg/config"
	"github.com/pagebound/bookstore-backend/pkg/db/models"
	"github.com/pagebound/bookstore-backend/pkg/enums"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/security"
)

type stubUserRepo struct {
	byID       map[uuid.UUID]*models.User
	byUsername map[string]*models.User
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := s.byUsername[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubSessionManager struct {
	generated map[string]string
	rotateErr error
	revoked   []string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{generated: map[string]string{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.generated[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	stored, ok := s.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.generated, oldAccessID)
	newAccessID := session.NewAccessID()
	newToken := "refresh-" + newAccessID
	s.generated[newAccessID] = newToken
	return newAccessID, newToken, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.generated, accessID)
	return nil
}

func testLoginConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "login-test-secret-login-test-secret",
		Issuer:            "bookstore-test",
		ExpirationMinutes: 15,
	}
}

func seedUser(t *testing.T, password string) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Username:     "bookworm",
		Email:        "bookworm@example.com",
		PasswordHash: hash,
		Role:         enums.UserRoleCustomer,
	}
}

func newAuthService(t *testing.T, user *models.User, sessions *stubSessionManager) Service {
	t.Helper()

	repo := &stubUserRepo{
		byID:       map[uuid.UUID]*models.User{},
		byUsername: map[string]*models.User{},
	}
	if user != nil {
		repo.byID[user.ID] = user
		repo.byUsername[user.Username] = user
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testLoginConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginIssuesTokenPair(t *testing.T) {
	user := seedUser(t, "super-secret-pw")
	sessions := newStubSessionManager()
	svc := newAuthService(t, user, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "bookworm", Password: "super-secret-pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user payload %+v", resp.User)
	}

	claims, err := pkgAuth.ParseAccessToken(testLoginConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID, claims.UserID)
	}
	if _, ok := sessions.generated[claims.ID]; !ok {
		t.Fatal("expected a session stored under the token's jti")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	user := seedUser(t, "super-secret-pw")
	svc := newAuthService(t, user, newStubSessionManager())

	cases := []LoginRequest{
		{Username: "bookworm", Password: "wrong"},
		{Username: "nobody", Password: "super-secret-pw"},
		{Username: "", Password: "super-secret-pw"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		coded := pkgerrors.As(err)
		if coded == nil {
			t.Fatalf("request %+v: expected coded error", req)
		}
		if coded.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("request %+v: expected unauthorized, got %s", req, coded.Code())
		}
		// Lookup failures and password failures must be indistinguishable.
		if coded.Message() != invalidCredentialsMessage {
			t.Fatalf("request %+v: unexpected message %q", req, coded.Message())
		}
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	user := seedUser(t, "super-secret-pw")
	sessions := newStubSessionManager()
	svc := newAuthService(t, user, sessions)

	login, err := svc.Login(context.Background(), LoginRequest{Username: "bookworm", Password: "super-secret-pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == login.AccessToken {
		t.Fatal("expected a fresh access token")
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("expected a fresh refresh token")
	}

	// Replaying the original pair must fail after rotation.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replay, got %v", err)
	}
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	user := seedUser(t, "super-secret-pw")
	sessions := newStubSessionManager()
	svc := newAuthService(t, user, sessions)

	accessID := session.NewAccessID()
	expired, err := pkgAuth.MintAccessToken(testLoginConfig(), time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint expired: %v", err)
	}
	refresh, err := sessions.Generate(context.Background(), accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: expired, RefreshToken: refresh})
	if err != nil {
		t.Fatalf("refresh with expired access token: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected a replacement access token")
	}
}

func TestRefreshRejectsDeletedAccount(t *testing.T) {
	user := seedUser(t, "super-secret-pw")
	sessions := newStubSessionManager()
	// Session exists but the account does not.
	svc := newAuthService(t, nil, sessions)

	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(testLoginConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	refresh, err := sessions.Generate(context.Background(), accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: token, RefreshToken: refresh})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for deleted account, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := newStubSessionManager()
	svc := newAuthService(t, nil, sessions)

	if err := svc.Logout(context.Background(), "access-123"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-123" {
		t.Fatalf("expected revoke of access-123, got %v", sessions.revoked)
	}

	err := svc.Logout(context.Background(), "   ")
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for blank session, got %v", err)
	}
}
