package sequence

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

// CodePrefix is the fixed prefix of every voucher code handed to patients.
const CodePrefix = "DENTAL"

const (
	codeSuffixLen    = 4
	reservationTTL   = 24 * time.Hour
	maxCodeAttempts  = 5
	reservationSpace = "voucher:code"
)

// Generator hands out voucher codes that are unique within the reservation
// window. The database unique index on the code column is the final arbiter;
// the redis reservation only keeps a generation batch collision-free.
type Generator interface {
	NextVoucherCode(ctx context.Context) (string, error)
	NextPatientCode(ctx context.Context, baseCode string) (string, error)
}

type RedisGenerator struct {
	rdb *redis.Client
}

type Params struct {
	fx.In

	Redis *redis.Client
}

func NewRedisGenerator(p Params) Generator {
	return &RedisGenerator{
		rdb: p.Redis,
	}
}

func (g *RedisGenerator) NextVoucherCode(ctx context.Context) (string, error) {
	return g.reserve(ctx, func() (string, error) {
		suffix, err := randomAlphaNumeric(codeSuffixLen)
		if err != nil {
			return "", err
		}
		return CodePrefix + suffix, nil
	})
}

func (g *RedisGenerator) NextPatientCode(ctx context.Context, baseCode string) (string, error) {
	if baseCode == "" {
		baseCode = CodePrefix
	}
	return g.reserve(ctx, func() (string, error) {
		suffix, err := randomAlphaNumeric(codeSuffixLen)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s-%s", baseCode, suffix), nil
	})
}

func (g *RedisGenerator) reserve(ctx context.Context, next func() (string, error)) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := next()
		if err != nil {
			return "", err
		}

		key := fmt.Sprintf("%s:%s", reservationSpace, code)
		ok, err := g.rdb.SetNX(ctx, key, 1, reservationTTL).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts generating a unique code", maxCodeAttempts)
}

func randomAlphaNumeric(n int) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		b[i] = chars[num.Int64()]
	}
	return string(b), nil
}
