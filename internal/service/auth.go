package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/Dan9191/chi-portal/internal/models"
	"github.com/Dan9191/chi-portal/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Register creates a new user and an empty profile. The password is optional.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len([]rune(name)) < 2 {
		return nil, invalid("name must be at least 2 characters")
	}

	user := &models.User{
		Email:            email,
		DisplayName:      name,
		OnboardingStatus: models.OnboardingNotStarted,
	}
	// Without a password the account signs in by magic link only
	if password != "" {
		if len(password) < minPasswordLength {
			return nil, invalid("password must be at least %d characters", minPasswordLength)
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}
	if err := s.store.CreateUserWithProfile(ctx, user); err != nil {
		return nil, translate(err)
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if user.PasswordHash == "" {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", err
	}
	s.log.Infof("User logged in: %s", user.Email)
	return token, nil
}

// RequestMagicLink emails a one-time sign-in link. Unknown addresses are
// accepted silently so the endpoint cannot be used to probe for accounts.
func (s *Service) RequestMagicLink(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(translate(err), ErrNotFound) {
			s.log.Infof("Magic link requested for unknown email %s", email)
			return nil
		}
		return err
	}

	token := utils.SignMagicToken(user.Email, uuid.NewString(), s.now().Add(s.config.MagicLinkTTL), s.config.HMACSecret)
	link := strings.TrimRight(s.config.AppURL, "/") + "/auth/magic-link/verify?token=" + url.QueryEscape(token)
	if err := s.mailer.SendMagicLink(user.Email, user.DisplayName, link); err != nil {
		return fmt.Errorf("failed to send magic link: %w", err)
	}

	s.log.Infof("Magic link sent: %s", user.Email)
	return nil
}

// VerifyMagicLink exchanges a magic link token for a JWT token.
// Each link can be redeemed once.
func (s *Service) VerifyMagicLink(ctx context.Context, token string) (string, error) {
	magic, err := utils.VerifyMagicToken(token, s.config.HMACSecret, s.now())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.store.FindUserByEmail(ctx, magic.Email)
	if err != nil {
		return "", fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}

	fresh, err := s.store.ConsumeMagicLink(ctx, magic.Nonce, magic.ExpiresAt)
	if err != nil {
		return "", err
	}
	if !fresh {
		s.log.Warnf("Magic link reused for %s", user.Email)
		return "", fmt.Errorf("%w: link already used", ErrUnauthorized)
	}

	jwtToken, err := s.issueToken(user)
	if err != nil {
		return "", err
	}
	s.log.Infof("User logged in via magic link: %s", user.Email)
	return jwtToken, nil
}

// PurgeMagicLinks drops redemption records of links that have expired
func (s *Service) PurgeMagicLinks(ctx context.Context) (int, error) {
	n, err := s.store.PurgeMagicLinks(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("Purged %d expired magic link(s)", n)
	}
	return n, nil
}

// GetUser returns the user record
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (s *Service) issueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWTTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("a valid email is required")
	}
	return email, nil
}
