package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stocklane/stocklane/internal/shared"
)

// OTPStore keeps one-time codes and reset tokens in Redis with a TTL.
type OTPStore struct {
	client   *redis.Client
	ttl      time.Duration
	resetTTL time.Duration
}

// NewOTPStore constructs an OTPStore.
func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	return &OTPStore{client: client, ttl: ttl, resetTTL: 15 * time.Minute}
}

// Issue generates and stores a 6-digit code for the email.
func (s *OTPStore) Issue(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := s.client.Set(ctx, s.otpKey(email), code, s.ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the code for the email. On success the code is consumed and
// a single-use reset token is issued.
func (s *OTPStore) Verify(ctx context.Context, email, code string) (string, error) {
	stored, err := s.client.Get(ctx, s.otpKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shared.ErrInvalidOTP
		}
		return "", err
	}
	if stored != code {
		return "", shared.ErrInvalidOTP
	}
	if err := s.client.Del(ctx, s.otpKey(email)).Err(); err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.resetKey(token), email, s.resetTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeResetToken resolves and deletes a reset token, returning the email
// it was issued for.
func (s *OTPStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	email, err := s.client.Get(ctx, s.resetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shared.ErrInvalidResetToken
		}
		return "", err
	}
	if err := s.client.Del(ctx, s.resetKey(token)).Err(); err != nil {
		return "", err
	}
	return email, nil
}

func (s *OTPStore) otpKey(email string) string {
	return "otp:" + email
}

func (s *OTPStore) resetKey(token string) string {
	return "pwreset:" + token
}
