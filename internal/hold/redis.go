// Package hold keeps short lived seat holds and quotes in Redis.
package hold

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

const seatHeldPrefix = "seat already held"

var acquireScript = redis.NewScript(`
	-- KEYS = seat hold keys (e.g., seat_hold:<showtime hash>:1)
	-- ARGV = [owner, ttl in milliseconds, seat numbers...]

	local held = {}
	for i=1, #KEYS do
		local owner = redis.call("GET", KEYS[i])
		if owner and owner ~= ARGV[1] then
			table.insert(held, ARGV[i + 2])
		end
	end

	if #held > 0 then
		return redis.error_reply("seat already held " .. table.concat(held, ","))
	end

	for i=1, #KEYS do
		redis.call("SET", KEYS[i], ARGV[1], "PX", ARGV[2])
	end

	return "OK"
`)

var ownedScript = redis.NewScript(`
	for i=1, #KEYS do
		if redis.call("GET", KEYS[i]) ~= ARGV[1] then
			return 0
		end
	end

	return 1
`)

var releaseScript = redis.NewScript(`
	local released = 0
	for i=1, #KEYS do
		if redis.call("GET", KEYS[i]) == ARGV[1] then
			redis.call("DEL", KEYS[i])
			released = released + 1
		end
	end

	return released
`)

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Acquire(ctx context.Context, key domain.ShowtimeKey, seats []int, owner string, ttl time.Duration) error {
	args := make([]any, 0, len(seats)+2)
	args = append(args, owner, ttl.Milliseconds())
	for _, n := range seats {
		args = append(args, n)
	}

	err := acquireScript.Run(ctx, s.client, seatHoldKeys(key, seats), args...).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, seatHeldPrefix) {
			return domain.NewConflictError(parseHeldSeats(err.Error()))
		}

		return errors.Wrap(err, "acquire seat hold")
	}

	return nil
}

func (s *RedisStore) Owned(ctx context.Context, key domain.ShowtimeKey, seats []int, owner string) (bool, error) {
	owned, err := ownedScript.Run(ctx, s.client, seatHoldKeys(key, seats), owner).Int()
	if err != nil {
		return false, errors.Wrap(err, "check seat hold")
	}

	return owned == 1, nil
}

func (s *RedisStore) Release(ctx context.Context, key domain.ShowtimeKey, seats []int, owner string) error {
	err := releaseScript.Run(ctx, s.client, seatHoldKeys(key, seats), owner).Err()
	if err != nil {
		return errors.Wrap(err, "release seat hold")
	}

	return nil
}

func (s *RedisStore) SaveQuote(ctx context.Context, quote domain.Quote, ttl time.Duration) error {
	quoteBytes, err := json.Marshal(quote)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, quoteKey(quote.OrderID), quoteBytes, ttl).Err()
}

func (s *RedisStore) GetQuote(ctx context.Context, orderID string) (*domain.Quote, error) {
	quoteBytes, err := s.client.Get(ctx, quoteKey(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, errors.Wrap(err, "get quote")
	}

	var quote domain.Quote

	err = json.Unmarshal(quoteBytes, &quote)
	if err != nil {
		return nil, errors.Wrapf(err, "unmarshal quote %s", orderID)
	}

	return &quote, nil
}

func (s *RedisStore) DeleteQuote(ctx context.Context, orderID string) error {
	return s.client.Del(ctx, quoteKey(orderID)).Err()
}

func seatHoldKeys(key domain.ShowtimeKey, seats []int) []string {
	hash := key.Hash()

	keys := make([]string, len(seats))
	for i, n := range seats {
		keys[i] = seatHoldKey(hash, n)
	}

	return keys
}

func seatHoldKey(showtimeHash string, seat int) string {
	return fmt.Sprintf("seat_hold:%s:%d", showtimeHash, seat)
}

func quoteKey(orderID string) string {
	return fmt.Sprintf("quote:%s", orderID)
}

func parseHeldSeats(msg string) []int {
	idx := strings.Index(msg, seatHeldPrefix)
	if idx < 0 {
		return nil
	}

	var seats []int
	for _, part := range strings.Split(strings.TrimSpace(msg[idx+len(seatHeldPrefix):]), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil {
			seats = append(seats, n)
		}
	}

	return seats
}
