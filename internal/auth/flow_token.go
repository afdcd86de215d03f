package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultFlowTTL bounds how long an OAuth attempt may take between redirect and callback.
	DefaultFlowTTL = 10 * time.Minute
	// FlowCookieName holds the signed state and PKCE verifier of an OAuth attempt.
	FlowCookieName = "oauth_flow"
	flowAudience   = "oauth-flow"
)

// FlowConfig bundles the configuration required to build a FlowTokenService.
type FlowConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// FlowState is the per-attempt material that must survive the round trip to the
// identity provider.
type FlowState struct {
	State        string
	CodeVerifier string
}

type flowClaims struct {
	State        string `json:"st"`
	CodeVerifier string `json:"cv"`
	jwt.RegisteredClaims
}

// FlowTokenService signs OAuth flow state into a tamper-proof, short-lived token so
// that it can be held by the client between redirect and callback.
type FlowTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewFlowTokenService constructs a FlowTokenService.
func NewFlowTokenService(cfg FlowConfig) (*FlowTokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("flow token: secret must be provided")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultFlowTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &FlowTokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// TTL reports the validity window of issued flow tokens.
func (s *FlowTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs the flow state.
func (s *FlowTokenService) Issue(state FlowState) (string, error) {
	if state.State == "" || state.CodeVerifier == "" {
		return "", errors.New("flow token: state and verifier are required")
	}

	now := s.now()
	claims := &flowClaims{
		State:        state.State,
		CodeVerifier: state.CodeVerifier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{flowAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("flow token: sign: %w", err)
	}
	return signed, nil
}

// Parse validates the signature and expiry of a flow token and returns its state.
func (s *FlowTokenService) Parse(tokenString string) (*FlowState, error) {
	if tokenString == "" {
		return nil, errors.New("flow token: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithAudience(flowAudience),
	)

	var claims flowClaims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("flow token: parse: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("flow token: invalid issuer")
	}
	if claims.State == "" || claims.CodeVerifier == "" {
		return nil, errors.New("flow token: missing state")
	}

	return &FlowState{State: claims.State, CodeVerifier: claims.CodeVerifier}, nil
}
