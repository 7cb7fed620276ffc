package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	"github.com/Divyaanshvats/intern-management-system/internal/service"
	"github.com/Divyaanshvats/intern-management-system/internal/transport/http/ez"
	resp "github.com/Divyaanshvats/intern-management-system/internal/transport/http/response"
)

// AuthHandler serves the public account endpoints.
type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

func (h *AuthHandler) Priority() int { return 10 }

type registerReq struct {
	Name       string `json:"name"        binding:"required,notblank"`
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required"`
	Role       string `json:"role"        binding:"required"`
	InviteCode string `json:"invite_code"`
}

// loginReq is accepted as JSON or as an urlencoded form.
type loginReq struct {
	Email    string `json:"email"    form:"email"    binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *AuthHandler) MountAPI(public, _ ez.EZ) {
	ez.RegisterAction(public, ez.Action[registerReq, resp.Message]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *registerReq) (resp.Message, error) {
			_, err := h.users.Register(c.Request.Context(), service.RegisterInput{
				Name:       in.Name,
				Email:      in.Email,
				Password:   in.Password,
				Role:       domain.Role(in.Role),
				InviteCode: in.InviteCode,
			})
			if err != nil {
				return resp.Message{}, err
			}
			return resp.Msg("User registered successfully"), nil
		},
	})

	ez.RegisterAction(public, ez.Action[loginReq, auth.Token]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindAuto,
		Handler: func(c *gin.Context, in *loginReq) (auth.Token, error) {
			return h.users.Login(c.Request.Context(), in.Email, in.Password)
		},
	})
}
