package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/user"
)

type authAPI struct {
	svc      *user.Service
	ledger   *progress.Ledger
	jwt      *JWT
	validate *validator.Validate
}

func registerAuthAPI(
	g *echo.Group,
	guards routeGuards,
	j *JWT,
	svc *user.Service,
	ledger *progress.Ledger,
	validate *validator.Validate,
) {
	api := authAPI{
		svc:      svc,
		ledger:   ledger,
		jwt:      j,
		validate: validate,
	}

	ag := g.Group("/auth")

	// TODO: rate limit `/login` & `/register`
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.GET("/me", api.me, guards.user...)
	ag.POST("/token-refresh", api.refreshToken, guards.user...)
}

// Handlers

func (api *authAPI) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	if _, err = api.ledger.Ensure(rctx, usr.ID); err != nil {
		return errors.Wrap(err, "creating progress")
	}

	token, err := api.jwt.UserToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, AuthResponse{Token: token, User: usr})
}

func (api *authAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(authError(err), "authenticating")
	}
	token, err := api.jwt.UserToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, AuthResponse{Token: token, User: usr})
}

func (api *authAPI) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UserResponse{User: usr})
}

func (api *authAPI) refreshToken(ctx echo.Context) error {
	claims, err := api.jwt.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	token, err := api.jwt.Refresh(claims, usr)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	AuthResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	UserResponse struct {
		User user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
