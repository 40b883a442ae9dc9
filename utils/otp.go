// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// GenerateOTP generates a uniformly random numeric code of the given length
func GenerateOTP(length int) (string, error) {
	const digits = "0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		result[i] = digits[num.Int64()]
	}
	return string(result), nil
}

// ValidateOTPAttempts throttles OTP requests per identifier. Limit is 5
// attempts per hour; a nil client disables throttling.
func ValidateOTPAttempts(identifier string, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}

	key := "otp_attempts:" + identifier
	attempts, err := rdb.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}

	// Set expiry if first attempt
	if attempts == 1 {
		rdb.Expire(context.Background(), key, 1*time.Hour)
	}

	if attempts > 5 {
		return errors.New("too many OTP attempts")
	}

	return nil
}
