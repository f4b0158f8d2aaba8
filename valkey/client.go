package valkeystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"transcript-metrics/utils"

	"github.com/valkey-io/valkey-go"
	"github.com/valkey-io/valkey-go/valkeycompat"
	"go.uber.org/zap"
)

var Client valkeycompat.Cmdable
var RawClient valkey.Client

// ErrNotCached is returned by GetCached when the key does not exist
var ErrNotCached = errors.New("not cached")

// ResultTTL is how long analysis results stay in the cache
const ResultTTL = 24 * time.Hour

func InitValkey(logger *zap.Logger) {
	host := utils.MustGetEnv("VALKEY_HOST")
	port := utils.MustGetEnv("VALKEY_PORT")

	useSentinel := os.Getenv("VALKEY_USE_SENTINEL") == "true"

	var vk valkey.Client
	var err error

	if useSentinel {
		sentinels := parseAddressList(os.Getenv("VALKEY_SENTINEL_ADDRESS"))
		if len(sentinels) == 0 {
			panic("VALKEY_USE_SENTINEL is true but VALKEY_SENTINEL_ADDRESS is not set")
		}
		masterName := utils.GetEnvOrDefault("VALKEY_SENTINEL_MASTER_NAME", "mymaster")

		logger.Info("Initializing result cache with sentinel configuration",
			zap.Int("sentinels", len(sentinels)))

		vk, err = valkey.NewClient(valkey.ClientOption{
			InitAddress: sentinels,
			Sentinel: valkey.SentinelOption{
				MasterSet: masterName,
			},
		})
	} else {
		logger.Info("Initializing result cache")

		vk, err = valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{fmt.Sprintf("%s:%s", host, port)},
		})
	}

	if err != nil {
		panic(err)
	}

	RawClient = vk
	Client = valkeycompat.NewAdapter(vk)
	logger.Info("Result cache initialized successfully")
}

// parseAddressList splits a comma separated address list, skipping blanks
func parseAddressList(csv string) []string {
	parts := strings.Split(csv, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			addrs = append(addrs, p)
		}
	}
	return addrs
}

// CacheKey returns the cache key for a job under prefix, e.g. "analysis:job-1"
func CacheKey(prefix, job string) string {
	return fmt.Sprintf("%s:%s", prefix, job)
}

// CacheJSON stores v as JSON under key with ResultTTL
func CacheJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	if err := Client.Set(ctx, key, string(data), ResultTTL).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// GetCached returns the raw cached value for key or ErrNotCached
func GetCached(ctx context.Context, key string) (string, error) {
	data, err := RawClient.Do(ctx, RawClient.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", ErrNotCached
		}
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}
	return data, nil
}
