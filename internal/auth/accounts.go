package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrBadVerifyToken     = errors.New("bad verification token")
)

type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Mailer sends account emails. Satisfied by notify.Service.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Accounts manages local user records: registration, login checks and
// email verification.
type Accounts struct {
	db        *sql.DB
	mailer    Mailer
	publicURL string
}

func NewAccounts(db *sql.DB, mailer Mailer, publicURL string) *Accounts {
	return &Accounts{db: db, mailer: mailer, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *Accounts) Register(ctx context.Context, email, password, name string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email=$1`, email).Scan(&exists)
	if err == nil {
		return User{}, ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString(), Email: email, Name: name, Role: "student"}
	token := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, email_verified, verify_token, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Email, string(hash), u.Name, u.Role, false, token, time.Now().Unix())
	if err != nil {
		return User{}, err
	}

	// Verification mail is best-effort; the account exists either way and
	// the token can be re-sent.
	link := fmt.Sprintf("%s/verify-email?token=%s", s.publicURL, token)
	_ = s.mailer.Send(ctx, u.Email, "Verify your email",
		"Welcome to LearnHub! Confirm your email address:\n\n"+link)

	return u, nil
}

func (s *Accounts) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var (
		u    User
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, email_verified, password_hash FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.EmailVerified, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Accounts) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrBadVerifyToken
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email_verified=$1, verify_token='' WHERE verify_token=$2`, true, token)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBadVerifyToken
	}
	return nil
}

func (s *Accounts) Get(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, email_verified FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.EmailVerified)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Accounts) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	nh, err := bcrypt.GenerateFromPassword([]byte(newPassword), 12)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(nh), id)
	return err
}
