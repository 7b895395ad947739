package auth

import (
	"errors"
	"fmt"
	"time"

	"sekolah/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidAccessToken = errors.New("invalid access token")

// アクセストークンのclaims（sub, email, role, iat, exp）
type Claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// 発行結果。AccessTokenとRefreshTokenは互いに独立。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	ExpiresAt    time.Time
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID, email string, role model.Role) (TokenPair, error)
	Parse(accessToken string) (*Claims, error)
}

type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

func NewJWTIssuer(secret string, ttl time.Duration, clock Clock) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, clock: clock}
}

func (i *JWTIssuer) Issue(userID, email string, role model.Role) (TokenPair, error) {
	now := i.clock.Now()
	exp := now.Add(i.ttl)

	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	// refreshはclaimsなしのランダムなUUID v4
	refresh, err := uuid.NewRandom()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  signed,
		RefreshToken: refresh.String(),
		ExpiresIn:    i.ttl,
		ExpiresAt:    exp,
	}, nil
}

// 署名（HS256のみ）と期限だけ見る。DBは見ない。
func (i *JWTIssuer) Parse(accessToken string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidAccessToken
	}
	// jwt/v4はexpなしを有効扱いにするので明示的に弾く
	if claims.ExpiresAt == nil {
		return nil, ErrInvalidAccessToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}
