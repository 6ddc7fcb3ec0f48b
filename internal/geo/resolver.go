package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shoplocal/directory-service/internal/config"
	"github.com/shoplocal/directory-service/internal/domain"
	"github.com/shoplocal/directory-service/internal/log"
)

const unknownPlace = "Unknown"

// Input carries what the client gave us to locate them: an optional
// geolocation fix forwarded from the browser, and the request's IP.
type Input struct {
	Lat      *float64
	Lng      *float64
	ClientIP string
}

// Resolver turns an Input into an approximate UserLocation through an
// ordered fallback chain: forwarded coordinates (reverse-geocoded for
// city/state labels), then IP geolocation, then nothing. Every stage is
// best-effort; Resolve never returns an error, only nil.
type Resolver struct {
	client     *http.Client
	reverseURL string
	ipURL      string
}

// NewResolver builds a Resolver from config. Timeout bounds each
// outbound call so resolution can never stall a page.
func NewResolver(cfg config.GeoConfig) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		client:     &http.Client{Timeout: timeout},
		reverseURL: cfg.ReverseURL,
		ipURL:      cfg.IPURL,
	}
}

// Resolve runs the fallback chain. A nil result is a valid outcome
// (permission denied upstream, both services down) and must be treated
// as "location unknown", never as a failure.
func (r *Resolver) Resolve(ctx context.Context, in Input) *domain.UserLocation {
	if in.Lat != nil && in.Lng != nil {
		return r.fromCoords(ctx, *in.Lat, *in.Lng)
	}
	if loc := r.fromIP(ctx, in.ClientIP); loc != nil {
		return loc
	}
	return nil
}

// fromCoords reverse-geocodes a coordinate pair. The coordinates are
// already trustworthy, so a geocoder failure still yields a usable
// location with Unknown labels.
func (r *Resolver) fromCoords(ctx context.Context, lat, lng float64) *domain.UserLocation {
	loc := &domain.UserLocation{Lat: lat, Lng: lng, City: unknownPlace, State: unknownPlace}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))

	var resp struct {
		Address struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			State   string `json:"state"`
		} `json:"address"`
	}
	if err := r.getJSON(ctx, r.reverseURL+"?"+q.Encode(), &resp); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Msg("reverse geocode failed")
		return loc
	}

	switch {
	case resp.Address.City != "":
		loc.City = resp.Address.City
	case resp.Address.Town != "":
		loc.City = resp.Address.Town
	case resp.Address.Village != "":
		loc.City = resp.Address.Village
	}
	if resp.Address.State != "" {
		loc.State = resp.Address.State
	}
	return loc
}

// fromIP asks the IP geolocation service about the client address.
// Missing fields degrade to 0/Unknown rather than failing the stage.
func (r *Resolver) fromIP(ctx context.Context, clientIP string) *domain.UserLocation {
	if r.ipURL == "" || clientIP == "" {
		return nil
	}

	var resp struct {
		Status string  `json:"status"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		City   string  `json:"city"`
		Region string  `json:"regionName"`
	}
	if err := r.getJSON(ctx, r.ipURL+"/"+url.PathEscape(clientIP), &resp); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str("ip", clientIP).Msg("ip geolocation failed")
		return nil
	}
	if resp.Status != "success" {
		return nil
	}

	loc := &domain.UserLocation{Lat: resp.Lat, Lng: resp.Lon, City: resp.City, State: resp.Region}
	if loc.City == "" {
		loc.City = unknownPlace
	}
	if loc.State == "" {
		loc.State = unknownPlace
	}
	return loc
}

func (r *Resolver) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
