package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"

	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/password"
	"water-delivery-backend/internal/repository"
)

type UserRepository interface {
	FindByLogin(ctx context.Context, userIDOrEmail string) (*model.User, error)
	FindByUserID(ctx context.Context, userID string) (*model.User, error)
	UpdateByUserID(ctx context.Context, userID string, set bson.M) error
}

// AuthService issues and verifies bearer tokens. A token's subject is
// the user_id (email for legacy accounts without one) and its role claim
// mirrors the user record at issue time; the middleware re-reads the
// user on every request, so the stored role wins.
type AuthService struct {
	users             UserRepository
	secret            []byte
	expiresIn         time.Duration
	allowPasswordless bool
}

func NewAuthService(users UserRepository, secret string, expiresIn time.Duration, allowPasswordless bool) *AuthService {
	return &AuthService{
		users:             users,
		secret:            []byte(secret),
		expiresIn:         expiresIn,
		allowPasswordless: allowPasswordless,
	}
}

// Login checks the credentials against the Users collection and mints a
// signed token.
func (a *AuthService) Login(ctx context.Context, userIDOrEmail, plainPassword string) (string, *model.User, error) {
	login := strings.TrimSpace(userIDOrEmail)
	if login == "" {
		return "", nil, invalid("user_id_or_email zorunlu.")
	}
	if !a.allowPasswordless && plainPassword == "" {
		return "", nil, invalid("password zorunlu.")
	}

	user, err := a.users.FindByLogin(ctx, login)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	stored := user.Password
	if stored == "" {
		stored = user.PasswordHash
	}
	if !a.allowPasswordless && !password.Verify(plainPassword, stored) {
		return "", nil, ErrInvalidCredentials
	}

	subject := user.UserID
	if subject == "" {
		subject = user.Email
	}
	if subject == "" {
		return "", nil, errors.New("user record has neither user_id nor email")
	}
	role := user.Role
	if role == "" {
		role = model.RoleUser
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(a.expiresIn).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, user, nil
}

// Authenticate verifies a bearer token and loads the user it names.
func (a *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := a.users.FindByLogin(ctx, subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnknownTokenUser
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
