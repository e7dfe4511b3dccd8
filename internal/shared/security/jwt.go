package security

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrJWTSecretMissing = errors.New("JWT_SECRET is not set")

const issuer = "paddlers"

// Claims subject 放玩家 id。
type Claims struct {
	PlayerID int64 `json:"pid"`
	jwt.RegisteredClaims
}

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrJWTSecretMissing
	}
	return []byte(secret), nil
}

// Award 给玩家签发 token，ttl<=0 时 7 天过期。
func Award(playerID int64, ttl time.Duration) (string, error) {
	key, err := jwtSecret()
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	now := time.Now()
	claims := &Claims{
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(playerID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParsePlayer 校验签名、过期和签发方，返回玩家 id。
func ParsePlayer(tokenStr string) (int64, error) {
	key, err := jwtSecret()
	if err != nil {
		return 0, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return 0, err
	}
	if token == nil || !token.Valid || claims.PlayerID <= 0 {
		return 0, jwt.ErrTokenInvalidClaims
	}
	return claims.PlayerID, nil
}
