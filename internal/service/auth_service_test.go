package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/password"
	"water-delivery-backend/internal/repository"
)

type fakeUserRepo struct {
	users   map[string]*model.User
	lastSet bson.M
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		f.users[u.UserID] = u
	}
	return f
}

func (f *fakeUserRepo) FindByLogin(_ context.Context, userIDOrEmail string) (*model.User, error) {
	for _, u := range f.users {
		if u.UserID == userIDOrEmail || strings.EqualFold(u.Email, userIDOrEmail) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) FindByUserID(_ context.Context, userID string) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdateByUserID(_ context.Context, userID string, set bson.M) error {
	if _, ok := f.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	f.lastSet = set
	return nil
}

func testUser() *model.User {
	return &model.User{
		UserID: "user-1",
		Email:  "user@ornek.com",
		Name:   "Test Kullanici",
		Role:   model.RoleUser,
	}
}

func TestLogin_RequiresLogin(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), "secret", time.Hour, true)

	_, _, err := svc.Login(context.Background(), "   ", "")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "user_id_or_email zorunlu.", validation.Detail)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), "secret", time.Hour, true)

	_, _, err := svc.Login(context.Background(), "nobody", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed, err := password.Hash("dogru-parola")
	require.NoError(t, err)
	u := testUser()
	u.PasswordHash = hashed

	svc := NewAuthService(newFakeUserRepo(u), "secret", time.Hour, false)

	_, _, err = svc.Login(context.Background(), "user-1", "yanlis-parola")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, user, err := svc.Login(context.Background(), "user-1", "dogru-parola")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "user-1", user.UserID)
}

func TestLogin_ByEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(testUser()), "secret", time.Hour, true)

	_, user, err := svc.Login(context.Background(), "USER@ornek.com", "")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
}

func TestLogin_ThenAuthenticateRoundTrip(t *testing.T) {
	repo := newFakeUserRepo(testUser())
	svc := NewAuthService(repo, "secret", time.Hour, true)

	token, _, err := svc.Login(context.Background(), "user-1", "")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
}

func TestAuthenticate_BadToken(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(testUser()), "secret", time.Hour, true)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	repo := newFakeUserRepo(testUser())
	issuer := NewAuthService(repo, "secret-a", time.Hour, true)
	verifier := NewAuthService(repo, "secret-b", time.Hour, true)

	token, _, err := issuer.Login(context.Background(), "user-1", "")
	require.NoError(t, err)

	_, err = verifier.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	repo := newFakeUserRepo(testUser())
	svc := NewAuthService(repo, "secret", -time.Minute, true)

	token, _, err := svc.Login(context.Background(), "user-1", "")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	repo := newFakeUserRepo(testUser())
	svc := NewAuthService(repo, "secret", time.Hour, true)

	token, _, err := svc.Login(context.Background(), "user-1", "")
	require.NoError(t, err)

	delete(repo.users, "user-1")

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnknownTokenUser)
}
