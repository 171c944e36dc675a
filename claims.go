package gate

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContentClaims represents the validated payload of an access token
type ContentClaims interface {
	ContentType() ContentType
	ContentSlug() string
	Matches(contentType ContentType, slug string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// GateClaims is the concrete implementation of ContentClaims
type GateClaims struct {
	jwt.RegisteredClaims
	CType string `json:"ctype,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

// Verify interface compliance
var _ ContentClaims = (*GateClaims)(nil)

// ContentType returns the content collection the token authorizes
func (c *GateClaims) ContentType() ContentType {
	return c.CType
}

// ContentSlug returns the slug the token authorizes
func (c *GateClaims) ContentSlug() string {
	return c.Slug
}

// Matches reports whether the token was minted for exactly this item.
// A token for (ideas, "x") must never unlock (ideas, "y").
func (c *GateClaims) Matches(contentType ContentType, slug string) bool {
	return c.CType == contentType && c.Slug == slug
}

// Expires returns the expiration time
func (c *GateClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *GateClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
