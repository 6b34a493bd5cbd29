package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/user"
)

var contextUserKey = "user"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

// JWT issues and checks the API tokens.
type JWT struct {
	config            middleware.JWTConfig
	issuer            string
	expiration        time.Duration
	refreshExpiration time.Duration
}

func NewJWT(conf *core.Config) *JWT {
	return &JWT{
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    "userToken",
			Claims:        new(Claims),
		},
		issuer:            conf.AppName,
		expiration:        conf.Server.JWTExpirationDelta,
		refreshExpiration: conf.Server.JWTRefreshExpirationDelta,
	}
}

// Middleware rejects requests without a valid token.
func (j *JWT) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(j.config)
}

// UserClaims returns the claims of usr. origIat keeps the original issue time across refreshes.
func (j *JWT) UserClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    j.issuer,
			Subject:   usr.ID,
			ExpiresAt: now.Add(j.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (j *JWT) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(j.config.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(j.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (j *JWT) UserToken(usr user.User) (string, error) {
	return j.GenerateToken(j.UserClaims(usr))
}

// Refresh issues a new token for usr unless the refresh window of claims has passed.
func (j *JWT) Refresh(claims Claims, usr user.User) (string, error) {
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(j.refreshExpiration)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}
	token, err := j.GenerateToken(j.UserClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func (j *JWT) contextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(j.config.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
