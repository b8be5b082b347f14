// Package services содержит логику бизнес-уровня для работы с аккаунтами и аутентификацией.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/abdullaevmar/device-registry/internal/lib/jwt"
	"github.com/abdullaevmar/device-registry/internal/lib/password"
	"github.com/abdullaevmar/device-registry/internal/lib/period"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// ErrInvalidCredentials пароль не совпадает с хэшем.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AccountRepository описывает контракт для работы с аккаунтами в базе данных.
type AccountRepository interface {
	// RegisterAccount сохраняет новый аккаунт и возвращает его UID.
	RegisterAccount(ctx context.Context, account models.Account) (string, error)

	// GetAccountByUsername возвращает аккаунт по имени или ошибку, если не найден.
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	accounts AccountRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(accounts AccountRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		accounts: accounts,
		jwtMaker: jwtMaker,
	}
}

// Register создает новый аккаунт с хэшированием пароля и тарифом basic.
// Счётчики использования начинаются с нуля в текущем календарном месяце.
func (s *AuthService) Register(ctx context.Context, email, username, nin, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	account := models.Account{
		Email:        email,
		Username:     username,
		NIN:          nin,
		PasswordHash: hashed,
		Tier:         models.TierBasic, // дефолтный тариф при регистрации
		Usage: models.Usage{
			PeriodKey: period.Key(time.Now().UTC()),
		},
		Subscription: models.Subscription{
			Status: models.SubscriptionInactive,
		},
	}
	return s.accounts.RegisterAccount(ctx, account)
}

// Login проверяет пароль и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, tier string, err error) {
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if err := password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(account.Username, account.Tier, account.UID)
	if err != nil {
		return "", "", err
	}
	return token, account.Tier, nil
}

// ValidateToken проверяет JWT и возвращает принципала из его claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.Account, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	account := &models.Account{
		Username: claims.Username,
		Tier:     claims.Role,
		UID:      claims.AccountUID,
	}
	return account, claims.Role, true, nil
}
