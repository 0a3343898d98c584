package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Gish2003/mock-bank-app/internal/config"
	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/lib/apperr"
	"github.com/Gish2003/mock-bank-app/internal/lib/jwt"
	"github.com/Gish2003/mock-bank-app/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgAllFieldsRequired   = "All fields are required"
	msgCredentialsRequired = "Username and password are required"
	msgUserExists          = "Username or email already exists"
	msgInvalidCredentials  = "Invalid credentials"
	msgPasswordTooLong     = "Password must be at most 72 bytes"
	msgAccountNotFound     = "Account not found"
	msgInvalidToken        = "Invalid or expired token"
)

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) (*models.User, *models.Account, error)
}

type UserProvider interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	AccountByUserID(ctx context.Context, userID int64) (*models.Account, error)
}

type Auth struct {
	log          *slog.Logger
	userSaver    UserSaver
	userProvider UserProvider
	jwtSecret    string
	tokenTTL     time.Duration
	bcryptCost   int
}

// Session is what register and login hand back to the client.
type Session struct {
	User    models.User
	Account models.Account
	Token   string
}

func New(log *slog.Logger, userSaver UserSaver, userProvider UserProvider, cfg config.Auth) *Auth {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Auth{
		log:          log,
		userSaver:    userSaver,
		userProvider: userProvider,
		jwtSecret:    cfg.JWTSecret,
		tokenTTL:     cfg.TokenTTL,
		bcryptCost:   cost,
	}
}

func (a *Auth) Register(ctx context.Context, username, email, password, fullName string) (*Session, error) {
	const op = "services.auth.Register"

	log := a.log.With(slog.String("op", op), slog.String("username", username))

	if username == "" || email == "" || password == "" || fullName == "" {
		return nil, apperr.Validation(msgAllFieldsRequired)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.Validation(msgPasswordTooLong)
	}
	if err != nil {
		log.Error("Failed to hash password", "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	user, account, err := a.userSaver.SaveUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(passHash),
		FullName:     fullName,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Info("User already exists")
			return nil, apperr.Conflict(msgUserExists, err)
		}
		log.Error("Failed to save user", "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	token, err := jwt.NewToken(user, a.jwtSecret, a.tokenTTL)
	if err != nil {
		log.Error("Failed to generate token", "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	log.Info("User registered", slog.Int64("user_id", user.ID), slog.String("account", account.Number))

	return &Session{User: *user, Account: *account, Token: token}, nil
}

// Login reports unknown usernames and wrong passwords with the same error.
func (a *Auth) Login(ctx context.Context, username, password string) (*Session, error) {
	const op = "services.auth.Login"

	log := a.log.With(slog.String("op", op), slog.String("username", username))

	if username == "" || password == "" {
		return nil, apperr.Validation(msgCredentialsRequired)
	}

	user, err := a.userProvider.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("User not found")
			return nil, apperr.Authentication(msgInvalidCredentials)
		}
		log.Error("Failed to get user", "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Info("Invalid password")
		return nil, apperr.Authentication(msgInvalidCredentials)
	}

	account, err := a.userProvider.AccountByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("User has no account", slog.Int64("user_id", user.ID))
			return nil, apperr.NotFound(msgAccountNotFound, err)
		}
		log.Error("Failed to get account", "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	token, err := jwt.NewToken(user, a.jwtSecret, a.tokenTTL)
	if err != nil {
		log.Error("Failed to generate token", "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	log.Info("User logged in", slog.Int64("user_id", user.ID))

	return &Session{User: *user, Account: *account, Token: token}, nil
}

func (a *Auth) VerifyToken(token string) (models.Identity, error) {
	identity, err := jwt.ParseToken(token, a.jwtSecret)
	if err != nil {
		a.log.Debug("Token rejected", "error", err)
		return models.Identity{}, apperr.Authentication(msgInvalidToken)
	}

	return identity, nil
}
