package earthengine

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"

	"github.com/samirrijal/sitescout/internal/pkg/metrics"
)

const (
	Scope           = "https://www.googleapis.com/auth/earthengine"
	DefaultTokenURI = "https://oauth2.googleapis.com/token"

	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	refreshSkew    = 60 * time.Second
)

// TokenSource yields bearer tokens for API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("empty access token")
	}
	return string(t), nil
}

// ServiceAccount is the subset of a Google service-account key file we need.
type ServiceAccount struct {
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	TokenURI     string `json:"token_uri"`
	ProjectID    string `json:"project_id"`
}

// LoadServiceAccount reads a JSON key file from disk.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return ParseServiceAccount(raw)
}

func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, errors.New("credentials missing client_email or private_key")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = DefaultTokenURI
	}
	return &sa, nil
}

// ServiceAccountSource exchanges a signed JWT assertion for an access
// token and caches it until shortly before expiry.
type ServiceAccountSource struct {
	account *ServiceAccount
	key     *rsa.PrivateKey
	http    *fasthttp.Client
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewServiceAccountSource(sa *ServiceAccount) (*ServiceAccountSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &ServiceAccountSource{
		account: sa,
		key:     key,
		http:    &fasthttp.Client{Name: "sitescout"},
		now:     time.Now,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (s *ServiceAccountSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Add(refreshSkew).Before(s.expires) {
		return s.token, nil
	}

	tok, exp, err := s.exchange(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	s.token, s.expires = tok, exp
	return tok, nil
}

func (s *ServiceAccountSource) assertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   s.account.ClientEmail,
		"scope": Scope,
		"aud":   s.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.account.PrivateKeyID != "" {
		t.Header["kid"] = s.account.PrivateKeyID
	}
	return t.SignedString(s.key)
}

func (s *ServiceAccountSource) exchange(ctx context.Context) (string, time.Time, error) {
	now := s.now()
	signed, err := s.assertion(now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign assertion: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("grant_type", jwtBearerGrant)
	args.Set("assertion", signed)

	req.SetRequestURI(s.account.TokenURI)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBody(args.QueryString())

	deadline := now.Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.http.DoDeadline(req, resp, deadline); err != nil {
		return "", time.Time{}, fmt.Errorf("token exchange: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", time.Time{}, fmt.Errorf("token exchange: status %d: %s", resp.StatusCode(), resp.Body())
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, errors.New("token exchange: empty access_token")
	}
	return tr.AccessToken, now.Add(time.Duration(tr.ExpiresIn) * time.Second), nil
}
