package identity

import "errors"

var (
	// ErrInvalidToken возвращается, когда токен не прошёл проверку подписи, срока или issuer
	ErrInvalidToken = errors.New("identity: invalid token")

	// ErrMalformedClaims возвращается, когда обязательные claims отсутствуют или некорректны
	ErrMalformedClaims = errors.New("identity: malformed claims")
)
