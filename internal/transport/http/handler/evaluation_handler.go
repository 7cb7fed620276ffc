package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	"github.com/Divyaanshvats/intern-management-system/internal/service"
	"github.com/Divyaanshvats/intern-management-system/internal/transport/http/ez"
	mdw "github.com/Divyaanshvats/intern-management-system/internal/transport/http/middleware"
	resp "github.com/Divyaanshvats/intern-management-system/internal/transport/http/response"
	"github.com/Divyaanshvats/intern-management-system/internal/workflow"
)

// EvaluationHandler serves the manager and intern stages plus the
// report fetch and listings.
type EvaluationHandler struct {
	evals *service.EvaluationService
}

func NewEvaluationHandler(evals *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evals: evals}
}

func (h *EvaluationHandler) Priority() int { return 20 }

// Range checks live in the workflow package so the messages stay the
// same for every caller.
type createReq struct {
	InternID       string `json:"intern_id"`
	Rating         int    `json:"rating"`
	ManagerComment string `json:"manager_comment"`
	MonthsWorked   int    `json:"months_worked"`
}

type feedbackReq struct {
	EvaluationID uint   `json:"evaluation_id" form:"evaluation_id" binding:"required"`
	Comment      string `json:"comment"       form:"comment"`
}

type listQuery struct {
	Search string `form:"search"`
	Status string `form:"status"`
	Skip   int    `form:"skip,default=0"`
	Limit  int    `form:"limit,default=50"`
}

func (q listQuery) filter() domain.ListFilter {
	return domain.ListFilter{
		Search: q.Search,
		Status: domain.Status(q.Status),
		Skip:   q.Skip,
		Limit:  q.Limit,
	}
}

type pageQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=50"`
}

type reportOut struct {
	Report string `json:"report"`
}

func (h *EvaluationHandler) MountAPI(_, authed ez.EZ) {
	ez.RegisterAction(authed, ez.Action[createReq, resp.Message]{
		Method: http.MethodPost,
		Path:   "/create-evaluation",
		Binder: ez.BindJSON,
		Roles:  []domain.Role{workflow.Actor(workflow.Create)},
		Handler: func(c *gin.Context, in *createReq) (resp.Message, error) {
			id, _ := mdw.CurrentIdentity(c)
			_, err := h.evals.Create(c.Request.Context(), id, service.CreateInput{
				InternID:       in.InternID,
				Rating:         in.Rating,
				ManagerComment: in.ManagerComment,
				MonthsWorked:   in.MonthsWorked,
			})
			if err != nil {
				return resp.Message{}, err
			}
			return resp.Msg("Evaluation created successfully"), nil
		},
	})

	ez.RegisterAction(authed, ez.Action[feedbackReq, resp.Message]{
		Method: http.MethodPost,
		Path:   "/submit-intern-feedback",
		Binder: ez.BindJSONOrQuery,
		Roles:  []domain.Role{workflow.Actor(workflow.InternFeedback)},
		Handler: func(c *gin.Context, in *feedbackReq) (resp.Message, error) {
			id, _ := mdw.CurrentIdentity(c)
			if _, err := h.evals.SubmitInternFeedback(c.Request.Context(), id, in.EvaluationID, in.Comment); err != nil {
				return resp.Message{}, err
			}
			return resp.Msg("Intern feedback submitted"), nil
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, reportOut]{
		Method: http.MethodPost,
		Path:   "/generate-report/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (reportOut, error) {
			evalID, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil || evalID == 0 {
				return reportOut{}, ez.BadRequest("Invalid evaluation id")
			}
			id, _ := mdw.CurrentIdentity(c)
			text, err := h.evals.FetchReport(c.Request.Context(), id, uint(evalID))
			if err != nil {
				return reportOut{}, err
			}
			return reportOut{Report: text}, nil
		},
	})

	ez.RegisterAction(authed, ez.Action[listQuery, domain.Page]{
		Method: http.MethodGet,
		Path:   "/manager/evaluations",
		Binder: ez.BindQuery,
		Roles:  []domain.Role{domain.RoleManager},
		Handler: func(c *gin.Context, in *listQuery) (domain.Page, error) {
			id, _ := mdw.CurrentIdentity(c)
			return h.evals.ListForManager(c.Request.Context(), id, in.filter())
		},
	})

	ez.RegisterAction(authed, ez.Action[pageQuery, domain.Page]{
		Method: http.MethodGet,
		Path:   "/intern/evaluations",
		Binder: ez.BindQuery,
		Roles:  []domain.Role{domain.RoleIntern},
		Handler: func(c *gin.Context, in *pageQuery) (domain.Page, error) {
			id, _ := mdw.CurrentIdentity(c)
			return h.evals.ListForIntern(c.Request.Context(), id, domain.ListFilter{Skip: in.Skip, Limit: in.Limit})
		},
	})
}
