package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"riskgate/internal/configuration"
	"riskgate/internal/models"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
)

type RueidisCache struct {
	client rueidis.Client
}

func NewRueidisCache(config models.CacheConfiguration, errorContext string) (*RueidisCache, error) {
	clientOption := rueidis.ClientOption{
		InitAddress: config.Hosts,
		Password:    config.Password,
	}

	if config.TLSEnabled {
		clientOption.TLSConfig = &tls.Config{
			ServerName: config.TLSServerName,
			MinVersion: tls.VersionTLS12,
		}
	}

	client, err := rueidis.NewClient(clientOption)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", errorContext, err)
	}
	return &RueidisCache{client: client}, nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(
		context.Background(),
		time.Duration(configuration.CacheOpTimeoutMillis)*time.Millisecond,
	)
}

func (r *RueidisCache) setex(key string, value string, ttl time.Duration) error {
	ctx, cancel := opContext()
	defer cancel()
	return r.client.Do(ctx,
		r.client.B().Set().Key(key).Value(value).ExSeconds(int64(ttl.Seconds())).Build(),
	).Error()
}

func (r *RueidisCache) get(key string) (string, bool, error) {
	ctx, cancel := opContext()
	defer cancel()
	value, err := r.client.Do(ctx, r.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *RueidisCache) del(key string) error {
	ctx, cancel := opContext()
	defer cancel()
	return r.client.Do(ctx, r.client.B().Del().Key(key).Build()).Error()
}

func (r *RueidisCache) GetGeolocation(ip string) (*models.Geolocation, error) {
	value, found, err := r.get(fmt.Sprintf(configuration.CacheGeolocationKey, ip))
	if err != nil || !found {
		return nil, err
	}
	var geo models.Geolocation
	if err = json.Unmarshal([]byte(value), &geo); err != nil {
		return nil, err
	}
	return &geo, nil
}

func (r *RueidisCache) SetGeolocation(ip string, geo models.Geolocation) error {
	payload, err := json.Marshal(geo)
	if err != nil {
		return err
	}
	ttl := time.Duration(configuration.GeolocationTTLDays) * 24 * time.Hour
	return r.setex(fmt.Sprintf(configuration.CacheGeolocationKey, ip), string(payload), ttl)
}

func (r *RueidisCache) SetPendingChallenge(email string, eventID uuid.UUID) error {
	return r.setex(
		fmt.Sprintf(configuration.CachePendingMFAKey, email),
		eventID.String(),
		time.Duration(configuration.PendingChallengeTTL)*time.Second,
	)
}

func (r *RueidisCache) GetPendingChallenge(email string) (uuid.UUID, bool, error) {
	value, found, err := r.get(fmt.Sprintf(configuration.CachePendingMFAKey, email))
	if err != nil || !found {
		return uuid.Nil, false, err
	}
	eventID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false, err
	}
	return eventID, true, nil
}

func (r *RueidisCache) DeletePendingChallenge(email string) error {
	return r.del(fmt.Sprintf(configuration.CachePendingMFAKey, email))
}

func (r *RueidisCache) BlacklistToken(token string, ttl time.Duration) error {
	return r.setex(fmt.Sprintf(configuration.CacheBlacklistKey, token), "blacklisted", ttl)
}

func (r *RueidisCache) IsTokenBlacklisted(token string) (bool, error) {
	_, found, err := r.get(fmt.Sprintf(configuration.CacheBlacklistKey, token))
	return found, err
}

func (r *RueidisCache) StoreOTPChallenge(email string, challenge models.OTPChallenge) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return err
	}
	return r.setex(
		fmt.Sprintf(configuration.CacheOTPChallengeKey, email),
		string(payload),
		time.Duration(configuration.OTPChallengeTTL)*time.Second,
	)
}

func (r *RueidisCache) GetOTPChallenge(email string) (*models.OTPChallenge, error) {
	value, found, err := r.get(fmt.Sprintf(configuration.CacheOTPChallengeKey, email))
	if err != nil || !found {
		return nil, err
	}
	var challenge models.OTPChallenge
	if err = json.Unmarshal([]byte(value), &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *RueidisCache) DeleteOTPChallenge(email string) error {
	return r.del(fmt.Sprintf(configuration.CacheOTPChallengeKey, email))
}

func (r *RueidisCache) MarkDeviceTrusted(userID uuid.UUID, deviceID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.setex(
		fmt.Sprintf(configuration.CacheTrustedDeviceKey, userID.String(), deviceID),
		"true",
		ttl,
	)
}

func (r *RueidisCache) IsDeviceTrusted(userID uuid.UUID, deviceID string) (bool, error) {
	value, found, err := r.get(
		fmt.Sprintf(configuration.CacheTrustedDeviceKey, userID.String(), deviceID),
	)
	if err != nil || !found {
		return false, err
	}
	return value == "true", nil
}

// InvalidateTrustedDevices drops every hint for the user so a table-level
// revocation is visible immediately. SCAN keeps the operation incremental.
func (r *RueidisCache) InvalidateTrustedDevices(userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	pattern := fmt.Sprintf(configuration.CacheTrustedDeviceKey, userID.String(), "*")
	var cursor uint64
	for {
		entry, err := r.client.Do(ctx,
			r.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build(),
		).AsScanEntry()
		if err != nil {
			return err
		}
		if len(entry.Elements) > 0 {
			if err = r.client.Do(ctx,
				r.client.B().Del().Key(entry.Elements...).Build(),
			).Error(); err != nil {
				return err
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return nil
		}
	}
}

func (r *RueidisCache) Close() error {
	r.client.Close()
	return nil
}
