package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/core/cache"
	"github.com/Divyaanshvats/intern-management-system/internal/core/events"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	"github.com/Divyaanshvats/intern-management-system/internal/report"
	"github.com/Divyaanshvats/intern-management-system/internal/workflow"
)

type EvaluationOptions struct {
	// EnforceOwnership limits interns to their own evaluations.
	EnforceOwnership bool
	ReportCacheTTL   time.Duration
}

// EvaluationService drives evaluations through the workflow. Every
// mutation goes through a transition; there is no free-form update.
type EvaluationService struct {
	repo   domain.EvaluationRepository
	gen    report.Generator
	cache  *cache.Cache
	events events.Publisher
	log    *zap.Logger
	opts   EvaluationOptions
}

func NewEvaluationService(
	repo domain.EvaluationRepository,
	gen report.Generator,
	c *cache.Cache,
	pub events.Publisher,
	l *zap.Logger,
	opts EvaluationOptions,
) *EvaluationService {
	if c == nil {
		c = cache.New(nil)
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = time.Hour
	}
	return &EvaluationService{repo: repo, gen: gen, cache: c, events: pub, log: l, opts: opts}
}

type CreateInput struct {
	InternID       string
	Rating         int
	ManagerComment string
	MonthsWorked   int
}

func (s *EvaluationService) Create(ctx context.Context, actor auth.Identity, in CreateInput) (ev *domain.Evaluation, err error) {
	defer func() { countTransition(string(workflow.Create), err) }()

	if err := workflow.Authorize(workflow.Create, actor.Role); err != nil {
		return nil, err
	}
	draft := workflow.Draft{
		InternID:       NormalizeEmail(in.InternID),
		Rating:         in.Rating,
		ManagerComment: strings.TrimSpace(in.ManagerComment),
		MonthsWorked:   in.MonthsWorked,
	}
	if err := workflow.ValidateDraft(draft); err != nil {
		return nil, err
	}
	ev = &domain.Evaluation{
		InternID:       draft.InternID,
		ManagerID:      actor.Email,
		Rating:         draft.Rating,
		ManagerComment: draft.ManagerComment,
		MonthsWorked:   draft.MonthsWorked,
		Status:         workflow.Initial(),
	}
	if err := s.repo.Create(ctx, ev); err != nil {
		return nil, err
	}
	s.log.Info("evaluation created",
		zap.Uint("evaluation_id", ev.ID),
		zap.String("intern_id", ev.InternID),
		zap.String("manager_id", ev.ManagerID))
	s.publish(ctx, events.TypeEvaluationCreated, ev, actor)
	return ev, nil
}

func (s *EvaluationService) SubmitInternFeedback(ctx context.Context, actor auth.Identity, id uint, comment string) (ev *domain.Evaluation, err error) {
	defer func() { countTransition(string(workflow.InternFeedback), err) }()

	if err := workflow.Authorize(workflow.InternFeedback, actor.Role); err != nil {
		return nil, err
	}
	ev, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(actor, ev.InternID); err != nil {
		return nil, err
	}
	next, err := workflow.Next(workflow.InternFeedback, ev.Status)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, ev, next, domain.Changes{InternComment: &comment}); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeFeedbackSubmitted, ev, actor)
	return ev, nil
}

// SubmitHRReview completes the evaluation and then tries once to attach a
// report. The completion stands whatever the generator does; the attempt
// result is returned for the caller's message.
func (s *EvaluationService) SubmitHRReview(ctx context.Context, actor auth.Identity, id uint, comment string, adjustment int) (ev *domain.Evaluation, out report.Outcome, err error) {
	defer func() { countTransition(string(workflow.HRReview), err) }()

	if err := workflow.Authorize(workflow.HRReview, actor.Role); err != nil {
		return nil, out, err
	}
	if err := workflow.ValidateAdjustment(adjustment); err != nil {
		return nil, out, err
	}
	ev, err = s.load(ctx, id)
	if err != nil {
		return nil, out, err
	}
	next, err := workflow.Next(workflow.HRReview, ev.Status)
	if err != nil {
		return nil, out, err
	}
	ch := domain.Changes{HRComment: &comment, HRRatingAdjustment: &adjustment}
	if err := s.commit(ctx, ev, next, ch); err != nil {
		return nil, out, err
	}
	s.publish(ctx, events.TypeEvaluationCompleted, ev, actor)

	out = s.generate(ctx, ev, actor)
	if !out.OK() {
		s.log.Warn("evaluation completed without report",
			zap.Uint("evaluation_id", ev.ID),
			zap.Error(out.Err))
	}
	return ev, out, nil
}

type reportEntry struct {
	InternID string `json:"intern_id"`
	Text     string `json:"text"`
}

func reportKey(id uint) string { return fmt.Sprintf("ims:report:%d", id) }

// FetchReport returns the stored report, generating and storing it first
// when the completed evaluation has none. Concurrent fetches of the same
// evaluation share one generation, which keeps running if the caller that
// started it goes away. Interns barred by ownership never reach generation.
func (s *EvaluationService) FetchReport(ctx context.Context, actor auth.Identity, id uint) (string, error) {
	if s.ownershipApplies(actor) {
		ev, err := s.load(ctx, id)
		if err != nil {
			return "", err
		}
		if err := s.checkOwner(actor, ev.InternID); err != nil {
			return "", err
		}
	}
	entry, err := cache.GetOrLoadJSON(ctx, s.cache, reportKey(id), s.opts.ReportCacheTTL,
		func(ctx context.Context) (*reportEntry, error) {
			ev, err := s.load(ctx, id)
			if err != nil {
				return nil, err
			}
			if err := workflow.RequireCompleted(ev.Status); err != nil {
				return nil, err
			}
			if !ev.HasReport() {
				out := s.generate(ctx, ev, actor)
				if !out.OK() {
					return nil, out.Err
				}
			}
			return &reportEntry{InternID: ev.InternID, Text: *ev.Report}, nil
		})
	if err != nil {
		return "", err
	}
	if err := s.checkOwner(actor, entry.InternID); err != nil {
		return "", err
	}
	return entry.Text, nil
}

func (s *EvaluationService) ListForManager(ctx context.Context, actor auth.Identity, f domain.ListFilter) (domain.Page, error) {
	if _, err := auth.RequireRole(actor, domain.RoleManager); err != nil {
		return domain.Page{}, err
	}
	return s.repo.ListByManager(ctx, actor.Email, f)
}

func (s *EvaluationService) ListForIntern(ctx context.Context, actor auth.Identity, f domain.ListFilter) (domain.Page, error) {
	if _, err := auth.RequireRole(actor, domain.RoleIntern); err != nil {
		return domain.Page{}, err
	}
	return s.repo.ListByIntern(ctx, actor.Email, f)
}

func (s *EvaluationService) ListForHR(ctx context.Context, actor auth.Identity, f domain.ListFilter) (domain.Page, error) {
	if _, err := auth.RequireRole(actor, domain.RoleHR); err != nil {
		return domain.Page{}, err
	}
	return s.repo.ListForHR(ctx, f)
}

func (s *EvaluationService) load(ctx context.Context, id uint) (*domain.Evaluation, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, domain.NotFound("Evaluation not found")
	}
	return ev, nil
}

func (s *EvaluationService) ownershipApplies(actor auth.Identity) bool {
	return s.opts.EnforceOwnership && actor.Role == domain.RoleIntern
}

func (s *EvaluationService) checkOwner(actor auth.Identity, internID string) error {
	if !s.ownershipApplies(actor) {
		return nil
	}
	if actor.Email != internID {
		return domain.Forbidden("Evaluation belongs to another intern")
	}
	return nil
}

// commit persists a transition and mirrors it onto ev. Losing a race to
// another writer reads as an invalid state.
func (s *EvaluationService) commit(ctx context.Context, ev *domain.Evaluation, to domain.Status, ch domain.Changes) error {
	ok, err := s.repo.Transition(ctx, ev, to, ch)
	if err != nil {
		return err
	}
	if !ok {
		return domain.InvalidState("Invalid workflow state")
	}
	s.log.Info("evaluation transitioned",
		zap.Uint("evaluation_id", ev.ID),
		zap.String("from", string(ev.Status)),
		zap.String("to", string(to)))
	ev.Status = to
	ev.Version++
	if ch.InternComment != nil {
		ev.InternComment = ch.InternComment
	}
	if ch.HRComment != nil {
		ev.HRComment = ch.HRComment
	}
	if ch.HRRatingAdjustment != nil {
		ev.HRRatingAdjustment = ch.HRRatingAdjustment
	}
	return nil
}

// generate makes one attempt and stores the text. If another writer
// stored a report first, that one wins and is copied onto ev.
func (s *EvaluationService) generate(ctx context.Context, ev *domain.Evaluation, actor auth.Identity) report.Outcome {
	out := report.Attempt(ctx, s.gen, report.SnapshotOf(ev))
	if !out.OK() {
		return out
	}
	stored, err := s.repo.SetReport(ctx, ev.ID, out.Text)
	if err != nil {
		return report.Outcome{Err: err}
	}
	if !stored {
		cur, err := s.load(ctx, ev.ID)
		if err != nil {
			return report.Outcome{Err: err}
		}
		ev.Report = cur.Report
		if ev.HasReport() {
			return report.Outcome{Text: *ev.Report}
		}
		return report.Outcome{Err: domain.InvalidState("Report could not be stored")}
	}
	text := out.Text
	ev.Report = &text
	s.publish(ctx, events.TypeReportGenerated, ev, actor)
	return out
}

func (s *EvaluationService) publish(ctx context.Context, typ string, ev *domain.Evaluation, actor auth.Identity) {
	e := events.New(typ, ev.ID, ev.InternID, actor.Email, string(ev.Status))
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed", zap.String("type", typ), zap.Uint("evaluation_id", ev.ID), zap.Error(err))
	}
}
