package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	"github.com/Divyaanshvats/intern-management-system/internal/service"
	"github.com/Divyaanshvats/intern-management-system/internal/transport/http/ez"
	mdw "github.com/Divyaanshvats/intern-management-system/internal/transport/http/middleware"
	resp "github.com/Divyaanshvats/intern-management-system/internal/transport/http/response"
	"github.com/Divyaanshvats/intern-management-system/internal/workflow"
)

const (
	msgReviewDone         = "HR review completed and AI report generated"
	msgReviewDoneNoReport = "HR review completed; report generation failed"
)

// HRHandler serves the final review stage and account administration.
type HRHandler struct {
	evals *service.EvaluationService
	users *service.UserService
}

func NewHRHandler(evals *service.EvaluationService, users *service.UserService) *HRHandler {
	return &HRHandler{evals: evals, users: users}
}

func (h *HRHandler) Priority() int { return 30 }

type reviewReq struct {
	EvaluationID     uint   `json:"evaluation_id"     form:"evaluation_id"     binding:"required"`
	Comment          string `json:"comment"           form:"comment"`
	RatingAdjustment *int   `json:"rating_adjustment" form:"rating_adjustment" binding:"required"`
}

type toggleReq struct {
	Email string `form:"email" binding:"required,notblank"`
}

func (h *HRHandler) MountAPI(_, authed ez.EZ) {
	ez.RegisterAction(authed, ez.Action[reviewReq, resp.Message]{
		Method: http.MethodPost,
		Path:   "/submit-hr-review",
		Binder: ez.BindJSONOrQuery,
		Roles:  []domain.Role{workflow.Actor(workflow.HRReview)},
		Handler: func(c *gin.Context, in *reviewReq) (resp.Message, error) {
			id, _ := mdw.CurrentIdentity(c)
			_, out, err := h.evals.SubmitHRReview(c.Request.Context(), id, in.EvaluationID, in.Comment, *in.RatingAdjustment)
			if err != nil {
				return resp.Message{}, err
			}
			if !out.OK() {
				return resp.Msg(msgReviewDoneNoReport), nil
			}
			return resp.Msg(msgReviewDone), nil
		},
	})

	ez.RegisterAction(authed, ez.Action[listQuery, domain.Page]{
		Method: http.MethodGet,
		Path:   "/hr/evaluations",
		Binder: ez.BindQuery,
		Roles:  []domain.Role{domain.RoleHR},
		Handler: func(c *gin.Context, in *listQuery) (domain.Page, error) {
			id, _ := mdw.CurrentIdentity(c)
			return h.evals.ListForHR(c.Request.Context(), id, in.filter())
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet,
		Path:   "/hr/users",
		Binder: ez.BindNone,
		Roles:  []domain.Role{domain.RoleHR},
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			id, _ := mdw.CurrentIdentity(c)
			return h.users.List(c.Request.Context(), id)
		},
	})

	ez.RegisterAction(authed, ez.Action[toggleReq, resp.Message]{
		Method: http.MethodPost,
		Path:   "/hr/toggle-user",
		Binder: ez.BindQuery,
		Roles:  []domain.Role{domain.RoleHR},
		Handler: func(c *gin.Context, in *toggleReq) (resp.Message, error) {
			id, _ := mdw.CurrentIdentity(c)
			u, err := h.users.ToggleActive(c.Request.Context(), id, in.Email)
			if err != nil {
				return resp.Message{}, err
			}
			state := "inactive"
			if u.IsActive {
				state = "active"
			}
			return resp.Msg("User status updated to " + state), nil
		},
	})
}
