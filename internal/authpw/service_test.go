package authpw

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cusp/api/internal/store"
)

type fakeUserStore struct {
	users  map[string]store.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]store.User{}, nextID: 1}
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := f.users[email]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) InsertUser(_ context.Context, u store.User) (int64, error) {
	u.ID = f.nextID
	f.nextID++
	f.users[u.Email] = u
	return u.ID, nil
}

func (f *fakeUserStore) UpdateUserPassword(_ context.Context, userID int64, hash string) error {
	for email, u := range f.users {
		if u.ID == userID {
			u.PasswordHash = hash
			f.users[email] = u
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeUserStore) EmailTaken(_ context.Context, email string, _ int64) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUserStore) PhoneTaken(_ context.Context, phone string, _ int64) (bool, error) {
	for _, u := range f.users {
		if u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) UsernameTaken(_ context.Context, username string, _ int64) (bool, error) {
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type fakeOTPStore struct {
	codes map[string]string
}

func (f *fakeOTPStore) SetOTP(_ context.Context, email, code string, _ time.Duration) error {
	f.codes[email] = code
	return nil
}

func (f *fakeOTPStore) GetOTP(_ context.Context, email string) (string, error) {
	code, ok := f.codes[email]
	if !ok {
		return "", errors.New("not found")
	}
	return code, nil
}

func (f *fakeOTPStore) DeleteOTP(_ context.Context, email string) error {
	delete(f.codes, email)
	return nil
}

func newService(users *fakeUserStore, otps *fakeOTPStore) *Service {
	return NewService(users, otps, nil, 15*time.Minute)
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUserStore()
	svc := newService(users, &fakeOTPStore{codes: map[string]string{}})

	id, err := svc.Register(context.Background(), store.User{
		Username: "avery",
		Email:    "avery@gmail.com",
		Phone:    "0123456789",
	}, "Pass1word!")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if id == 0 {
		t.Fatal("Register() returned zero id")
	}

	user, err := svc.Login(context.Background(), "avery@gmail.com", "Pass1word!")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.Username != "avery" {
		t.Fatalf("Login() user = %+v", user)
	}

	if _, err := svc.Login(context.Background(), "avery@gmail.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	users := newFakeUserStore()
	svc := newService(users, &fakeOTPStore{codes: map[string]string{}})

	base := store.User{Username: "avery", Email: "avery@gmail.com", Phone: "0123456789"}
	if _, err := svc.Register(context.Background(), base, "Pass1word!"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.Register(context.Background(), base, "Pass1word!"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	dup := base
	dup.Email = "other@gmail.com"
	dup.Username = "other"
	if _, err := svc.Register(context.Background(), dup, "Pass1word!"); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
	dup.Phone = "9876543210"
	dup.Username = "avery"
	if _, err := svc.Register(context.Background(), dup, "Pass1word!"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestForgotThenChangePassword(t *testing.T) {
	users := newFakeUserStore()
	otps := &fakeOTPStore{codes: map[string]string{}}
	svc := newService(users, otps)

	if _, err := svc.Register(context.Background(), store.User{
		Username: "avery", Email: "avery@gmail.com", Phone: "0123456789",
	}, "Pass1word!"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	code, err := svc.ForgotPassword(context.Background(), "avery@gmail.com")
	if err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("otp = %q, want 6 digits", code)
	}

	if err := svc.ChangePassword(context.Background(), "avery@gmail.com", "000000x", "New1pass!"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), "avery@gmail.com", code, "New1pass!"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	user := users.users["avery@gmail.com"]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("New1pass!")); err != nil {
		t.Fatal("password hash not updated")
	}

	// Single use.
	if err := svc.ChangePassword(context.Background(), "avery@gmail.com", code, "New1pass!"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP after reuse, got %v", err)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc := newService(newFakeUserStore(), &fakeOTPStore{codes: map[string]string{}})
	if _, err := svc.ForgotPassword(context.Background(), "nobody@gmail.com"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
