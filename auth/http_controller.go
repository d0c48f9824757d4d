package auth

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type AuthControllerRoutes struct {
	Register       string
	Login          string
	ForgotPassword string
	ResetPassword  string
	Me             string
	Logout         string
}

// TokenResponse is returned by register, login and reset password
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Auther   *Authenticator
	Register *RegisterUserHandler
	Forgot   *InitializePasswordResetHandler
	Reset    *FinalizePasswordResetHandler
	Routes   *AuthControllerRoutes
	// UseHashid derives user ids from the registered email
	UseHashid bool
	// ResetPath is the public path prefix used to build reset links
	ResetPath string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = normalizeLogger(l)
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerHashid(enabled bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.UseHashid = enabled
		return c
	}
}

func WithResetPath(path string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if path != "" {
			c.ResetPath = path
		}
		return c
	}
}

func NewAuthController(
	auther *Authenticator,
	register *RegisterUserHandler,
	forgot *InitializePasswordResetHandler,
	reset *FinalizePasswordResetHandler,
	opts ...AuthControllerOption,
) *AuthController {
	c := &AuthController{
		Logger:    defLogger{},
		Auther:    auther,
		Register:  register,
		Forgot:    forgot,
		Reset:     reset,
		ResetPath: "/api/auth/resetpassword",
		Routes: &AuthControllerRoutes{
			Register:       "/register",
			Login:          "/login",
			ForgotPassword: "/forgotpassword",
			ResetPassword:  "/resetpassword/:token",
			Me:             "/me",
			Logout:         "/logout",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil || c.Register == nil || c.Forgot == nil || c.Reset == nil {
		panic("Missing dependencies in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints on app. protected is the Auth Gate.
func RegisterAuthRoutes[T any](app router.Router[T], controller *AuthController, protected router.MiddlewareFunc) {
	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("auth.forgot-password")
	app.Put(controller.Routes.ResetPassword, controller.ResetPasswordPut).
		SetName("auth.reset-password")

	app.Get(controller.Routes.Me, controller.MeGet, protected).
		SetName("auth.me")
	app.Post(controller.Routes.Logout, controller.LogoutPost, protected).
		SetName("auth.logout")
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterPayload)
	if err := BindPayload(ctx, payload); err != nil {
		return err
	}

	a.debug("register", RegisterPayload{Name: payload.Name, Email: payload.Email, Role: payload.Role})

	var user *User
	err := a.Register.Execute(ctx.Context(), RegisterUserMessage{
		Name:      payload.Name,
		Email:     payload.Email,
		Password:  payload.Password,
		Role:      payload.Role,
		UseHashid: a.UseHashid,
		OnResponse: func(u *User) {
			user = u
		},
	})
	if err != nil {
		return err
	}

	token, err := a.Auther.IssueToken(user)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, TokenResponse{Token: token})
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := BindPayload(ctx, payload); err != nil {
		return err
	}

	a.debug("login", LoginRequest{Email: payload.Email})

	token, _, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return ctx.JSON(router.StatusOK, TokenResponse{Token: token})
}

// ForgotPasswordPayload is the forgot password body
type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)
	if err := BindPayload(ctx, payload); err != nil {
		return err
	}

	base := fmt.Sprintf("%s://%s%s",
		ctx.GetString("X-Forwarded-Proto", "http"),
		ctx.GetString("Host", "localhost"),
		a.ResetPath,
	)

	err := a.Forgot.Execute(ctx.Context(), InitializePasswordResetMessage{
		Email: payload.Email,
		ResetURL: func(token string) string {
			return base + "/" + token
		},
	})
	if err != nil {
		return err
	}

	return ctx.JSON(router.StatusOK, MessageResponse{Message: "Email sent"})
}

// ResetPasswordPayload is the reset password body
type ResetPasswordPayload struct {
	Password string `json:"password"`
}

func (a *AuthController) ResetPasswordPut(ctx router.Context) error {
	payload := new(ResetPasswordPayload)
	if err := BindPayload(ctx, payload); err != nil {
		return err
	}

	var user *User
	err := a.Reset.Execute(ctx.Context(), FinalizePasswordResetMessage{
		Token:    ctx.Param("token"),
		Password: payload.Password,
		OnResponse: func(u *User) {
			user = u
		},
	})
	if err != nil {
		return err
	}

	token, err := a.Auther.IssueToken(user)
	if err != nil {
		return err
	}

	return ctx.JSON(router.StatusOK, TokenResponse{Token: token})
}

func (a *AuthController) MeGet(ctx router.Context) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return ErrUnauthorized
	}
	return ctx.JSON(router.StatusOK, user.ToProfile())
}

// LogoutPost acknowledges the logout. Sessions are stateless so nothing is revoked.
func (a *AuthController) LogoutPost(ctx router.Context) error {
	if user, ok := CurrentUser(ctx); ok {
		a.Logger.Info("user logged out", "user_id", user.ID.String())
	}
	return ctx.JSON(router.StatusOK, MessageResponse{Message: "User logged out successfully"})
}

func (a *AuthController) debug(action string, payload any) {
	if !a.Debug {
		return
	}
	a.Logger.Debug("auth request", "action", action, "payload", print.MaybePrettyJSON(payload))
}
