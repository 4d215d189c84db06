// Package authpw provides email/password authentication with OTP
// password recovery.
package authpw

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cusp/api/internal/store"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
)

// UserStore defines the storage interface for auth.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	InsertUser(ctx context.Context, user store.User) (int64, error)
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	PhoneTaken(ctx context.Context, phone string, excludeID int64) (bool, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
}

// OTPStore keeps short-lived password reset codes keyed by email.
type OTPStore interface {
	SetOTP(ctx context.Context, email, code string, ttl time.Duration) error
	GetOTP(ctx context.Context, email string) (string, error)
	DeleteOTP(ctx context.Context, email string) error
}

// Mailer delivers the reset code. Implementations that cannot send
// return an error; the service surfaces the code to the caller when
// mail is unavailable so development setups still work.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

type Service struct {
	store  UserStore
	otps   OTPStore
	mailer Mailer
	otpTTL time.Duration
}

func NewService(users UserStore, otps OTPStore, mailer Mailer, otpTTL time.Duration) *Service {
	return &Service{store: users, otps: otps, mailer: mailer, otpTTL: otpTTL}
}

// Register hashes the password and inserts the user after uniqueness
// checks on email, phone, and username.
func (s *Service) Register(ctx context.Context, user store.User, password string) (int64, error) {
	if taken, err := s.store.EmailTaken(ctx, user.Email, 0); err != nil {
		return 0, fmt.Errorf("check email: %w", err)
	} else if taken {
		return 0, ErrEmailTaken
	}
	if taken, err := s.store.PhoneTaken(ctx, user.Phone, 0); err != nil {
		return 0, fmt.Errorf("check phone: %w", err)
	} else if taken {
		return 0, ErrPhoneTaken
	}
	if taken, err := s.store.UsernameTaken(ctx, user.Username, 0); err != nil {
		return 0, fmt.Errorf("check username: %w", err)
	} else if taken {
		return 0, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	id, err := s.store.InsertUser(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, email, password string) (store.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ForgotPassword generates a six digit code, stores it with a TTL, and
// mails it. The code is returned so callers can expose it when no
// mailer is configured.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err != nil {
		return "", ErrInvalidCredentials
	}

	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	if err := s.otps.SetOTP(ctx, email, code, s.otpTTL); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	if s.mailer != nil {
		if err := s.mailer.SendOTP(ctx, email, code); err != nil {
			return code, fmt.Errorf("send otp: %w", err)
		}
	}
	return code, nil
}

// ChangePassword verifies the OTP and replaces the password hash. The
// code is single use.
func (s *Service) ChangePassword(ctx context.Context, email, code, newPassword string) error {
	stored, err := s.otps.GetOTP(ctx, email)
	if err != nil || stored == "" || stored != code {
		return ErrInvalidOTP
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	_ = s.otps.DeleteOTP(ctx, email)
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
