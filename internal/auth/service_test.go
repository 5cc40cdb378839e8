package auth

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stocklane/stocklane/internal/shared"
)

type memoryRepo struct {
	users map[string]*User
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := r.users[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	for _, u := range r.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return shared.ErrNotFound
}

type memoryMailer struct {
	to      []string
	bodies  []string
	subject []string
}

func (m *memoryMailer) EnqueueEmail(ctx context.Context, to, subject, body string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.bodies = append(m.bodies, body)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *memoryMailer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &memoryRepo{users: map[string]*User{
		"ops@stocklane.local": {
			ID:           7,
			Email:        "ops@stocklane.local",
			Name:         "Alex",
			PasswordHash: string(hash),
			IsActive:     true,
		},
	}}
	mailer := &memoryMailer{}
	sessions := shared.NewSessionManager(client, time.Hour)
	otp := NewOTPStore(client, 10*time.Minute)
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, sessions, otp, mailer)
	return svc, repo, mailer
}

func TestLogin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	sess, user, err := svc.Login(ctx, "ops@stocklane.local", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, int64(7), user.ID)

	_, _, err = svc.Login(ctx, "ops@stocklane.local", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "ghost@stocklane.local", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	repo.users["ops@stocklane.local"].IsActive = false
	_, _, err = svc.Login(ctx, "ops@stocklane.local", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, _, err := svc.Login(ctx, "ops@stocklane.local", "correct horse")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, sess.Token))

	_, err = svc.sessions.Resolve(ctx, sess.Token)
	require.ErrorIs(t, err, shared.ErrSessionNotFound)
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, "ops@stocklane.local"))
	require.Len(t, mailer.to, 1)
	require.Equal(t, "ops@stocklane.local", mailer.to[0])

	match := codeRe.FindString(mailer.bodies[0])
	require.NotEmpty(t, match)

	_, err := svc.VerifyOTP(ctx, "ops@stocklane.local", "000000x")
	require.ErrorIs(t, err, shared.ErrInvalidOTP)

	token, err := svc.VerifyOTP(ctx, "ops@stocklane.local", match)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The code is single-use.
	_, err = svc.VerifyOTP(ctx, "ops@stocklane.local", match)
	require.ErrorIs(t, err, shared.ErrInvalidOTP)

	require.NoError(t, svc.ResetPassword(ctx, token, "new password 42"))

	// And so is the reset token.
	err = svc.ResetPassword(ctx, token, "another one")
	require.ErrorIs(t, err, shared.ErrInvalidResetToken)

	_, _, err = svc.Login(ctx, "ops@stocklane.local", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ops@stocklane.local", "new password 42")
	require.NoError(t, err)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	svc, _, mailer := newTestService(t)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@stocklane.local"))
	require.Empty(t, mailer.to)
}
