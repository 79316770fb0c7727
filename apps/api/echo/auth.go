package echoapi

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/academic"
	"github.com/trezcool/malla/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
// Students are identified by their RUT (Subject) and carry their careers;
// staff users are identified by their user ID.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64             `json:"oriat,omitempty"`
	Username     string            `json:"username,omitempty"`
	Email        string            `json:"email,omitempty"`
	IsStudent    bool              `json:"is_student,omitempty"` // -> PLANNER
	IsAdmin      bool              `json:"is_admin,omitempty"`   // -> DEMAND DASHBOARD
	Roles        []string          `json:"roles,omitempty"`
	Careers      []academic.Career `json:"carreras,omitempty"`
}

// Career returns the career of the claims' student with the given code.
func (c Claims) Career(code string) (academic.Career, bool) {
	return academic.Student{RUT: c.Subject, Careers: c.Careers}.Career(code)
}

func (c Claims) person() core.Person {
	return core.Person{ID: c.Subject, Username: c.Username, Email: c.Email}
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func standardClaims(conf *core.Config, subject string, now time.Time) jwt.StandardClaims {
	return jwt.StandardClaims{
		Issuer:    conf.AppName,
		Subject:   subject,
		Audience:  "Malla",
		ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
		IssuedAt:  now.Unix(),
	}
}

func GetUserClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		StandardClaims: standardClaims(conf, usr.ID, now),
		OrigIssuedAt:   oriat,
		Username:       usr.Username,
		Email:          usr.Email,
		IsAdmin:        usr.IsAdmin(),
		Roles:          usr.Roles,
	}
}

func GetStudentClaims(conf *core.Config, std academic.Student, email string, origIat ...int64) *Claims {
	now := time.Now()
	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		StandardClaims: standardClaims(conf, std.RUT, now),
		OrigIssuedAt:   oriat,
		Email:          email,
		IsStudent:      true,
		Careers:        std.Careers,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	cfg := jwtConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(cfg.SigningMethod), claims)

	ss, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func authenticateUser(ctx context.Context, conf *core.Config, uname, pwd string, svc user.Service) (*Claims, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.Active() {
		return nil, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetUserClaims(conf, usr), nil
}

func authenticateStudent(ctx context.Context, conf *core.Config, email, pwd string, auth academic.Authenticator) (*Claims, error) {
	std, err := auth.Login(ctx, email, pwd)
	if err != nil {
		if errors.Cause(err) == academic.ErrInvalidCredentials {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "logging in to the academic API")
	}
	return GetStudentClaims(conf, std, email), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) {
				if match := claims.Roles[i]; role == match {
					return true
				}
			}
		}
	}
	return false
}

// refreshToken issues a new token for the context claims as long as the original login is
// within the refresh window. Staff users must still be active.
func refreshToken(ctx echo.Context, conf *core.Config, svc user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	var newClaims *Claims
	if claims.IsStudent {
		std := academic.Student{RUT: claims.Subject, Careers: claims.Careers}
		newClaims = GetStudentClaims(conf, std, claims.Email, claims.OrigIssuedAt)
	} else {
		usr, err := getContextUser(ctx, svc, claims)
		if err != nil {
			return "", errors.Wrap(err, "getting context user")
		}
		// check if user is still active
		if !usr.Active() {
			return "", errAccountDeactivated
		}
		newClaims = GetUserClaims(conf, usr, claims.OrigIssuedAt)
	}

	token, err := GenerateToken(conf, newClaims)
	return token, errors.Wrap(err, "generating token")
}

type authApi struct {
	conf     *core.Config
	auth     academic.Authenticator
	userSvc  user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		auth:     deps.Auth,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

// login authenticates a student against the academic API.
func (api *authApi) login(ctx echo.Context) error {
	var data StudentLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentLoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticateStudent(ctx.Request().Context(), api.conf, data.Email, data.Password, api.auth)
	if err != nil {
		return errors.Wrap(err, "authenticating student")
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, StudentLoginResponse{
		Token:   token,
		RUT:     claims.Subject,
		Careers: claims.Careers,
	})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

type (
	StudentLoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	StudentLoginResponse struct {
		Token   string            `json:"token"`
		RUT     string            `json:"rut"`
		Careers []academic.Career `json:"carreras"`
	}
)

func (lr *StudentLoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
