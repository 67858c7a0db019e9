package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"racereg/internal/shared/config"
	"racereg/internal/users"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockRepository) GetUserByID(ctx context.Context, userID string) (*users.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockRepository) UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error {
	args := m.Called(ctx, userID, hashedPassword)
	return args.Error(0)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			JWTExpiresIn:     time.Hour,
			RefreshExpiresIn: 7 * 24 * time.Hour,
		},
	}
}

func committeeUser(t *testing.T, password string) *users.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &users.User{
		ID:        uuid.New(),
		FirstName: "Race",
		LastName:  "Admin",
		Email:     "admin@racereg.local",
		Password:  string(hashed),
		Role:      users.RoleAdmin,
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())
	user := committeeUser(t, "admin123")

	repo.On("GetUserByEmail", mock.Anything, "admin@racereg.local").Return(user, nil)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "admin@racereg.local",
		Password: "admin123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "admin@racereg.local", resp.User.Email)
	assert.Equal(t, "ADMIN", resp.User.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())
	user := committeeUser(t, "admin123")

	repo.On("GetUserByEmail", mock.Anything, "admin@racereg.local").Return(user, nil)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "admin@racereg.local",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailMapsToInvalidCredentials(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())

	repo.On("GetUserByEmail", mock.Anything, "nobody@racereg.local").Return(nil, ErrUserNotFound)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@racereg.local",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateStaffHashesPasswordAndDefaultsRole(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())

	repo.On("EmailExists", mock.Anything, "desk@racereg.local").Return(false, nil)
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *users.User) bool {
		if u.Role != users.RoleStaff {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("staff123")) == nil
	})).Return(nil)

	resp, err := svc.CreateStaff(context.Background(), &CreateStaffRequest{
		FirstName: "Desk",
		LastName:  "Staff",
		Email:     "desk@racereg.local",
		Password:  "staff123",
		Role:      "packet-pickup", // not a known role, falls back to STAFF
	})
	require.NoError(t, err)
	assert.Equal(t, "STAFF", resp.Role)
	repo.AssertExpectations(t)
}

func TestCreateStaffRejectsDuplicateEmail(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())

	repo.On("EmailExists", mock.Anything, "desk@racereg.local").Return(true, nil)

	_, err := svc.CreateStaff(context.Background(), &CreateStaffRequest{
		FirstName: "Desk",
		LastName:  "Staff",
		Email:     "desk@racereg.local",
		Password:  "staff123",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())
	user := committeeUser(t, "admin123")

	repo.On("GetUserByEmail", mock.Anything, "admin@racereg.local").Return(user, nil)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "admin@racereg.local",
		Password: "admin123",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "access", claims.Type)
	assert.Equal(t, "racereg", claims.Issuer)
}

func TestValidateTokenRejectsForgedSignature(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())
	user := committeeUser(t, "admin123")

	repo.On("GetUserByEmail", mock.Anything, "admin@racereg.local").Return(user, nil)

	otherCfg := testConfig()
	otherCfg.JWT.Secret = "another-secret"
	otherSvc := NewService(repo, otherCfg)

	resp, err := otherSvc.Login(context.Background(), &LoginRequest{
		Email:    "admin@racereg.local",
		Password: "admin123",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())
	user := committeeUser(t, "admin123")

	repo.On("GetUserByEmail", mock.Anything, "admin@racereg.local").Return(user, nil)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "admin@racereg.local",
		Password: "admin123",
	})
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())
	user := committeeUser(t, "admin123")

	repo.On("GetUserByEmail", mock.Anything, "admin@racereg.local").Return(user, nil)
	repo.On("GetUserByID", mock.Anything, user.ID.String()).Return(user, nil)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "admin@racereg.local",
		Password: "admin123",
	})
	require.NoError(t, err)

	pair, err := svc.RefreshToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testConfig())
	user := committeeUser(t, "admin123")

	repo.On("GetUserByID", mock.Anything, user.ID.String()).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID.String(), &ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newpass456",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	repo.AssertNotCalled(t, "UpdateUserPassword", mock.Anything, mock.Anything, mock.Anything)
}
