package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"invoicer/config"
	"invoicer/internal/auth"
	"invoicer/internal/models"
	"invoicer/internal/repository"
)

// ErrInvalidCredentials is returned for unknown accounts and wrong
// passwords alike; callers must not distinguish the two.
var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	admins *repository.AdminRepository
	cfg    config.JWTConfig
	log    zerolog.Logger
}

func NewAuthService(admins *repository.AdminRepository, cfg config.JWTConfig, log zerolog.Logger) *AuthService {
	return &AuthService{admins: admins, cfg: cfg, log: log}
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(email, password string) (string, *models.AdminUser, error) {
	user, err := s.admins.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn().Str("email", email).Msg("failed login attempt")
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.cfg, user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
