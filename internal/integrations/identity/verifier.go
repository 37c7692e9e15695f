// Package identity проверяет токены сессии, выданные identity provider.
// Токен подписан HS256 общим секретом и несёт ID пользователя и код tenant.
package identity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims claims токена сессии
type Claims struct {
	jwt.RegisteredClaims
	TenantCode string `json:"tenant"`
	Role       string `json:"role,omitempty"`
}

// Identity проверенная личность из токена
type Identity struct {
	UserID     int64
	TenantCode string
	ExpiresAt  time.Time
}

// Verifier проверяет токены identity provider
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier создает verifier. Пустой issuer не проверяется.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify проверяет подпись и срок действия токена и извлекает личность
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: subject %q is not a user id", ErrMalformedClaims, claims.Subject)
	}
	if claims.TenantCode == "" {
		return nil, fmt.Errorf("%w: tenant claim is empty", ErrMalformedClaims)
	}

	return &Identity{
		UserID:     userID,
		TenantCode: claims.TenantCode,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

// Sign выпускает токен. Используется для локальной разработки и в тестах;
// в production токены выпускает identity provider.
func (v *Verifier) Sign(userID int64, tenantCode, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantCode: tenantCode,
		Role:       role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}
