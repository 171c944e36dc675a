package gate

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long a minted access token stays valid
const DefaultTokenTTL = 24 * time.Hour

// TokenService mints and validates self-contained access tokens. The
// token embeds everything validation needs (content type, slug, issue
// and expiry times) so no server-side session state exists; the HMAC
// signature makes the payload tamper-evident.
type TokenService interface {
	Mint(contentType ContentType, slug string) (string, error)
	MintAt(contentType ContentType, slug string, issuedAt time.Time) (string, time.Time, error)
	Validate(tokenString string) (ContentClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance. A zero ttl uses
// DefaultTokenTTL.
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
	}
}

// NewTokenServiceFromConfig builds a TokenService from a Config. The
// configured expiration is in hours; zero falls back to DefaultTokenTTL.
func NewTokenServiceFromConfig(config Config, logger Logger) TokenService {
	ttl := time.Duration(config.GetTokenExpiration()) * time.Hour
	return NewTokenService(
		[]byte(config.GetSigningKey()),
		ttl,
		config.GetIssuer(),
		jwt.ClaimStrings(config.GetAudience()),
		logger,
	)
}

// Mint creates a signed token for one content item, issued now
func (ts *TokenServiceImpl) Mint(contentType ContentType, slug string) (string, error) {
	token, _, err := ts.MintAt(contentType, slug, time.Now())
	return token, err
}

// MintAt creates a signed token with an explicit issuance time and
// returns the expiry alongside it
func (ts *TokenServiceImpl) MintAt(contentType ContentType, slug string, issuedAt time.Time) (string, time.Time, error) {
	if contentType == "" || slug == "" {
		return "", time.Time{}, errors.New("token requires a content type and slug", errors.CategoryBadInput)
	}

	expiresAt := issuedAt.Add(ts.ttl)

	claims := &GateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   fmt.Sprintf("%s/%s", contentType, slug),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		CType: contentType,
		Slug:  slug,
	}

	signed, err := ts.signClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (ts *TokenServiceImpl) signClaims(claims *GateClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign access token")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (ContentClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &GateClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*GateClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}
