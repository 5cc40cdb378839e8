package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/stocklane/stocklane/internal/shared"
)

// Mailer enqueues outbound email for async delivery.
type Mailer interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

// Service implements login and the password reset flow.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	sessions *shared.SessionManager
	otp      *OTPStore
	mailer   Mailer
}

// NewService constructs the auth Service.
func NewService(logger *slog.Logger, repo Repository, sessions *shared.SessionManager, otp *OTPStore, mailer Mailer) *Service {
	return &Service{logger: logger, repo: repo, sessions: sessions, otp: otp, mailer: mailer}
}

// Login checks credentials and issues a bearer session.
func (s *Service) Login(ctx context.Context, email, password string) (*shared.Session, *User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	session, err := s.sessions.Issue(ctx, user.ID, user.Email, user.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}
	return session, user, nil
}

// Logout revokes the session behind the token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// ForgotPassword issues a one-time code and mails it to the account owner.
// Unknown emails succeed silently so the endpoint does not leak which
// addresses have accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	code, err := s.otp.Issue(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}
	body := fmt.Sprintf("Hi %s,\n\nYour password reset code is %s. It expires shortly.\n", user.Name, code)
	if err := s.mailer.EnqueueEmail(ctx, user.Email, "Password reset code", body); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// VerifyOTP exchanges a valid code for a single-use reset token.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	return s.otp.Verify(ctx, email, code)
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.otp.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}
