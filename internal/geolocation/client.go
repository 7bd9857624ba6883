package geolocation

import (
	"fmt"
	"net"
	"time"

	"riskgate/internal/cache"
	"riskgate/internal/configuration"
	"riskgate/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ILocator resolves an IP address to a geolocation. Lookup never fails: a
// private address resolves to Local, an unreachable upstream to Unknown, and
// the scorer handles both sentinels.
type ILocator interface {
	Lookup(ip string) models.Geolocation
}

type lookupResponse struct {
	Country     string `json:"country"`
	CountryName string `json:"country_name"`
	Region      string `json:"region"`
	City        string `json:"city"`
	Error       bool   `json:"error"`
}

type RestyLocator struct {
	client *resty.Client
	cache  cache.ICache
}

func NewLocator(config models.GeoConfiguration, cache cache.ICache) *RestyLocator {
	client := resty.New().
		SetBaseURL(config.Endpoint).
		SetTimeout(time.Duration(configuration.UpstreamTimeoutSeconds) * time.Second).
		SetHeader("User-Agent", configuration.AppName)

	return &RestyLocator{client: client, cache: cache}
}

func (l *RestyLocator) Lookup(ip string) models.Geolocation {
	if isLocalAddress(ip) {
		return models.Geolocation{
			Country: models.GeoLocal,
			Region:  models.GeoLocal,
			City:    models.GeoLocal,
		}
	}

	if cached, err := l.cache.GetGeolocation(ip); err != nil {
		zap.L().Warn("Geolocation cache read failed", zap.String("ip", ip), zap.Error(err))
	} else if cached != nil {
		return *cached
	}

	geo, ok := l.lookupUpstream(ip)
	if !ok {
		return models.Geolocation{
			Country: models.GeoUnknown,
			Region:  models.GeoUnknown,
			City:    models.GeoUnknown,
		}
	}

	if err := l.cache.SetGeolocation(ip, geo); err != nil {
		zap.L().Warn("Geolocation cache write failed", zap.String("ip", ip), zap.Error(err))
	}

	return geo
}

func (l *RestyLocator) lookupUpstream(ip string) (models.Geolocation, bool) {
	var body lookupResponse

	resp, err := l.client.R().
		SetResult(&body).
		Get(fmt.Sprintf("/%s/json/", ip))
	if err != nil {
		zap.L().Warn("Geolocation lookup failed", zap.String("ip", ip), zap.Error(err))
		return models.Geolocation{}, false
	}
	if !resp.IsSuccess() || body.Error {
		zap.L().Warn("Geolocation lookup rejected",
			zap.String("ip", ip),
			zap.Int("status", resp.StatusCode()))
		return models.Geolocation{}, false
	}

	// Some deployments return the ISO code in "country" and the display name
	// in "country_name"; prefer the name.
	country := body.CountryName
	if country == "" {
		country = body.Country
	}
	if country == "" {
		return models.Geolocation{}, false
	}

	return models.Geolocation{
		Country: country,
		Region:  body.Region,
		City:    body.City,
	}, true
}

func isLocalAddress(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() ||
		parsed.IsPrivate() ||
		parsed.IsLinkLocalUnicast() ||
		parsed.IsUnspecified()
}
