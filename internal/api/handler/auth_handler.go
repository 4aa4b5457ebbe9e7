package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marketbay/commerce-api/internal/api/metrics"
	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/core/ports"
)

// AuthHandler exposes registration and the full session lifecycle.
type AuthHandler struct {
	registration ports.RegistrationService
	sessions     ports.SessionService
}

func NewAuthHandler(registration ports.RegistrationService, sessions ports.SessionService) *AuthHandler {
	return &AuthHandler{registration: registration, sessions: sessions}
}

// dataResponse is the success envelope mirroring the error envelope.
type dataResponse struct {
	Data any `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	CreateStore bool   `json:"create_store"`
	StoreName   string `json:"store_name,omitempty" validate:"omitempty,min=3,max=64"`
}

type registerResponse struct {
	Account *domain.Account `json:"account"`
	Role    string          `json:"role"`
	Store   *domain.Store   `json:"store,omitempty"`
}

// Register creates a pending account and emails a verification code.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  dataResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.registration.Register(c.Request().Context(), ports.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		CreateStore: req.CreateStore,
		StoreName:   req.StoreName,
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(result.Role).Inc()
	return c.JSON(http.StatusCreated, dataResponse{Data: registerResponse{
		Account: result.Account,
		Role:    result.Role,
		Store:   result.Store,
	}})
}

type verifyOtpRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OtpCode string `json:"otp_code" validate:"required,len=6,numeric"`
}

// VerifyOtp consumes an email-verification code and activates the account.
//
// @Summary      Verify the registration OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOtpRequest  true  "Email and code"
// @Success      200   {object}  dataResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/verify-otp [post]
func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.registration.VerifyEmail(c.Request().Context(), req.Email, req.OtpCode)
	if err != nil {
		metrics.OtpVerificationsTotal.WithLabelValues(string(domain.OtpEmailVerification), "failure").Inc()
		return err
	}

	metrics.OtpVerificationsTotal.WithLabelValues(string(domain.OtpEmailVerification), "success").Inc()
	return c.JSON(http.StatusOK, dataResponse{Data: account})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type otpDeliveryResponse struct {
	Email            string `json:"email"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// ResendOtp reissues the email-verification code.
//
// @Summary      Resend the registration OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Account email"
// @Success      200   {object}  dataResponse
// @Router       /auth/resend-otp [post]
func (h *AuthHandler) ResendOtp(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	delivery, err := h.registration.ResendOtp(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse{Data: otpDeliveryResponse{
		Email:            delivery.Email,
		ExpiresInMinutes: delivery.ExpiresInMinutes,
	}})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates and mints an access/refresh token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  dataResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginOutcome(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, dataResponse{Data: result})
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Logout revokes the presented refresh token, plus the caller's access
// token when the Authorization header carries one. Repeating a logout with
// the same refresh token fails with TOKEN_INVALID.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshTokenRequest  true  "Refresh token"
// @Success      200   {object}  dataResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.sessions.Logout(c.Request().Context(), req.RefreshToken, bearerToken(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: messageResponse{Message: "logged out"}})
}

// RefreshToken exchanges a live refresh token for a brand-new pair; the old
// refresh token is revoked in the process.
//
// @Summary      Refresh the session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshTokenRequest  true  "Refresh token"
// @Success      200   {object}  dataResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pair, err := h.sessions.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, dataResponse{Data: pair})
}

// ForgotPassword starts the password-reset flow. The response shape is the
// same whether or not the email is registered.
//
// @Summary      Request a password reset code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Account email"
// @Success      200   {object}  dataResponse
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	delivery, err := h.sessions.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse{Data: otpDeliveryResponse{
		Email:            delivery.Email,
		ExpiresInMinutes: delivery.ExpiresInMinutes,
	}})
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OtpCode     string `json:"otp_code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword verifies a reset code and stores the new password.
//
// @Summary      Reset password with an OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email, code, new password"
// @Success      200   {object}  dataResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.sessions.ResetPassword(c.Request().Context(), req.Email, req.OtpCode, req.NewPassword)
	if err != nil {
		metrics.OtpVerificationsTotal.WithLabelValues(string(domain.OtpPasswordReset), "failure").Inc()
		return err
	}

	metrics.OtpVerificationsTotal.WithLabelValues(string(domain.OtpPasswordReset), "success").Inc()
	metrics.PasswordResetsTotal.Inc()
	return c.JSON(http.StatusOK, dataResponse{Data: messageResponse{Message: "password updated"}})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, domain.ErrEmailNotVerified):
		return "not_verified"
	case errors.Is(err, domain.ErrAccountInactive):
		return "inactive"
	default:
		return "error"
	}
}
