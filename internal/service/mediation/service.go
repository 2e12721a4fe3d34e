package mediation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosscontext/crosscontext-backend/internal/domain/access"
	"github.com/crosscontext/crosscontext-backend/internal/domain/audit"
	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/consent"
	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
	"github.com/crosscontext/crosscontext-backend/internal/domain/record"
	"github.com/crosscontext/crosscontext-backend/internal/domain/redaction"
	"github.com/crosscontext/crosscontext-backend/internal/metrics"
	consentsvc "github.com/crosscontext/crosscontext-backend/internal/service/consent"
)

// Source fetches raw records for a query. Connectors are opaque to the
// pipeline and may fail; a failing source yields a partial result, never a
// failed operation.
type Source interface {
	Fetch(ctx context.Context, query string) ([]record.Record, error)
}

// AuditLog is the pipeline's append target. An append error fails the
// operation closed: nothing is released without its audit entry on disk.
type AuditLog interface {
	Append(ctx context.Context, entry *audit.Entry) (uuid.UUID, error)
}

// FetchRequest is one mediated fetch against a single source
type FetchRequest struct {
	CallerID      string
	Clearance     access.ClearanceLevel
	Source        record.SourceType
	Query         string
	CorrelationID string
}

// PlanStep is one fetch within an ordered briefing plan
type PlanStep struct {
	Source record.SourceType
	Query  string
}

// PlanRequest is an ordered multi-fetch operation. Steps execute
// sequentially through the pipeline under one correlation id and a single
// consent gate covering everything the plan would release.
type PlanRequest struct {
	CallerID      string
	Clearance     access.ClearanceLevel
	Operation     string
	CorrelationID string
	Steps         []PlanStep
}

// Service is the mediation pipeline: classify, redact, check access, gate
// on consent, audit, release. It is stateless and re-entrant; concurrent
// operations share only the audit append target and the consent registry.
type Service struct {
	logger     *zap.Logger
	classifier *classification.Classifier
	redactor   *redaction.Redactor
	controller *access.Controller
	consents   *consentsvc.Coordinator
	auditLog   AuditLog
	metrics    *metrics.Metrics

	sources  map[record.SourceType]Source
	preserve map[record.SourceType]bool
}

// NewService wires the pipeline. preserveContactSources lists the source
// types whose structured participant metadata feeds the redaction email
// allow-list.
func NewService(
	logger *zap.Logger,
	classifier *classification.Classifier,
	redactor *redaction.Redactor,
	controller *access.Controller,
	consents *consentsvc.Coordinator,
	auditLog AuditLog,
	m *metrics.Metrics,
	preserveContactSources []string,
) *Service {
	preserve := make(map[record.SourceType]bool, len(preserveContactSources))
	for _, s := range preserveContactSources {
		preserve[record.SourceType(s)] = true
	}
	return &Service{
		logger:     logger,
		classifier: classifier,
		redactor:   redactor,
		controller: controller,
		consents:   consents,
		auditLog:   auditLog,
		metrics:    m,
		sources:    make(map[record.SourceType]Source),
		preserve:   preserve,
	}
}

// RegisterSource attaches a connector for a source type
func (s *Service) RegisterSource(sourceType record.SourceType, src Source) {
	s.sources[sourceType] = src
}

// toolNames maps source types to the tool identifiers recorded in audit
// entries and consent requests.
var toolNames = map[record.SourceType]string{
	record.SourceEmail:         "fetch_emails",
	record.SourceCalendarEvent: "fetch_calendar",
	record.SourceDocument:      "fetch_documents",
	record.SourceStakeholder:   "search_stakeholders",
	record.SourcePolicy:        "search_policies",
}

// Mediate runs one fetch through the full pipeline. The returned envelope
// never carries content that was not first covered by a durable audit
// entry; on an audit write failure the whole operation fails closed.
func (s *Service) Mediate(ctx context.Context, req FetchRequest) (*Envelope, error) {
	start := time.Now()
	defer func() {
		s.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}

	a := s.assess(ctx, req)

	cns, err := s.gate(ctx, a.toolName, req.CorrelationID, []string{a.toolName}, a.grantedLevels)
	if err != nil {
		return nil, err
	}

	env, err := s.finalize(ctx, a, cns)
	if err != nil {
		return nil, err
	}
	env.Operation = a.toolName

	s.metrics.Mediations.WithLabelValues(outcome(env, cns)).Inc()
	s.logger.Info("mediated operation completed",
		zap.String("correlation_id", env.CorrelationID),
		zap.String("tool", env.ToolName),
		zap.Int("records", len(env.Records)),
		zap.Bool("released", env.Released()),
		zap.Bool("partial", env.Partial),
	)
	return env, nil
}

// ExecutePlan runs an ordered briefing plan. All steps are assessed first
// so a single consent request can cover every classification the plan
// would release; each step then writes its own audit entry before any of
// its content appears in the result.
func (s *Service) ExecutePlan(ctx context.Context, plan PlanRequest) (*PlanEnvelope, error) {
	start := time.Now()
	defer func() {
		s.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	if err := plan.validate(); err != nil {
		return nil, err
	}
	if plan.CorrelationID == "" {
		plan.CorrelationID = uuid.NewString()
	}
	operation := plan.Operation
	if operation == "" {
		operation = "briefing plan"
	}

	var (
		assessments []*assessment
		levels      []classification.Level
		tools       []string
		seenTools   = make(map[string]bool)
	)
	for _, step := range plan.Steps {
		a := s.assess(ctx, FetchRequest{
			CallerID:      plan.CallerID,
			Clearance:     plan.Clearance,
			Source:        step.Source,
			Query:         step.Query,
			CorrelationID: plan.CorrelationID,
		})
		assessments = append(assessments, a)
		levels = append(levels, a.grantedLevels...)
		if !seenTools[a.toolName] {
			seenTools[a.toolName] = true
			tools = append(tools, a.toolName)
		}
	}

	cns, err := s.gate(ctx, operation, plan.CorrelationID, tools, levels)
	if err != nil {
		return nil, err
	}

	env := &PlanEnvelope{
		Operation:       operation,
		CorrelationID:   plan.CorrelationID,
		RequiresConsent: cns.RequiresConsent,
		ConsentID:       cns.ID,
		ConsentState:    cns.State,
	}
	for _, a := range assessments {
		stepEnv, err := s.finalize(ctx, a, cns)
		if err != nil {
			return nil, err
		}
		stepEnv.Operation = operation
		env.Steps = append(env.Steps, *stepEnv)
	}

	released := false
	for i := range env.Steps {
		if env.Steps[i].Released() {
			released = true
		}
	}
	s.metrics.Mediations.WithLabelValues(planOutcome(released, cns)).Inc()
	s.logger.Info("briefing plan completed",
		zap.String("correlation_id", plan.CorrelationID),
		zap.Int("steps", len(env.Steps)),
		zap.Bool("released", released),
	)
	return env, nil
}

func (r FetchRequest) validate() error {
	if r.CallerID == "" {
		return errors.NewValidationError("MISSING_CALLER_ID", "caller ID is required")
	}
	if _, err := access.ParseClearance(string(r.Clearance)); err != nil {
		return err
	}
	if _, ok := toolNames[r.Source]; !ok {
		return errors.NewValidationError("INVALID_SOURCE_TYPE",
			fmt.Sprintf("unknown source type: %s", r.Source))
	}
	return nil
}

func (p PlanRequest) validate() error {
	if p.CallerID == "" {
		return errors.NewValidationError("MISSING_CALLER_ID", "caller ID is required")
	}
	if _, err := access.ParseClearance(string(p.Clearance)); err != nil {
		return err
	}
	if len(p.Steps) == 0 {
		return errors.NewValidationError("EMPTY_PLAN", "a briefing plan needs at least one step")
	}
	for _, step := range p.Steps {
		if _, ok := toolNames[step.Source]; !ok {
			return errors.NewValidationError("INVALID_SOURCE_TYPE",
				fmt.Sprintf("unknown source type in plan: %s", step.Source))
		}
	}
	return nil
}

// assessment is the pre-consent view of one fetch: everything classified,
// redacted, and access-checked, but nothing audited or released yet.
type assessment struct {
	req           FetchRequest
	toolName      string
	results       []RecordResult
	grantedLevels []classification.Level
	fetchErr      *SourceError
}

func (s *Service) assess(ctx context.Context, req FetchRequest) *assessment {
	a := &assessment{req: req, toolName: toolNames[req.Source]}

	src, ok := s.sources[req.Source]
	if !ok {
		a.fetchErr = &SourceError{Source: req.Source, Reason: "no connector registered for source"}
		return a
	}

	records, err := src.Fetch(ctx, req.Query)
	if err != nil {
		s.logger.Warn("source fetch failed; continuing with partial result",
			zap.String("source", req.Source.String()),
			zap.String("correlation_id", req.CorrelationID),
			zap.Error(err),
		)
		a.fetchErr = &SourceError{Source: req.Source, Reason: safeReason(err)}
		return a
	}

	for _, rec := range records {
		res := s.assessRecord(rec, req.Clearance)
		a.results = append(a.results, res)
		if res.AccessGranted {
			a.grantedLevels = append(a.grantedLevels, res.Classification)
		}
	}
	return a
}

// assessRecord classifies first so redaction and the access check both see
// the final level; the classification is never recomputed downstream.
func (s *Service) assessRecord(rec record.Record, clearance access.ClearanceLevel) RecordResult {
	cls := s.classifier.Classify(rec.RawContent, rec.Metadata)

	report := s.redactor.Redact(rec.RawContent, redaction.Context{
		PreserveContactInfo: s.preserve[rec.SourceType],
		AllowedEmails:       contactAllowList(rec),
	})
	for _, cat := range report.CategoriesFound {
		s.metrics.Redactions.WithLabelValues(cat.String()).Inc()
	}

	decision := s.controller.CheckAccess(clearance, cls.Level)

	res := RecordResult{
		ResourceID:        rec.ID,
		SourceType:        rec.SourceType,
		AccessGranted:     decision.Granted,
		Classification:    cls.Level,
		MatchedRule:       cls.MatchedRule,
		Redacted:          report.RedactionApplied,
		Categories:        report.CategoriesFound,
		Reason:            decision.Reason,
		RequiredClearance: decision.RequiredClearance,
	}
	if decision.Granted {
		res.SanitizedContent = report.SanitizedText
	}
	return res
}

// gate opens the consent request for an operation and, when consent is
// required, blocks until it resolves. The snapshot it returns is always
// terminal.
func (s *Service) gate(ctx context.Context, operation, correlationID string, tools []string, levels []classification.Level) (consent.Request, error) {
	req, err := s.consents.Open(operation, correlationID, tools, levels)
	if err != nil {
		return consent.Request{}, err
	}
	if !req.RequiresConsent {
		return *req, nil
	}

	snapshot, err := s.consents.Await(ctx, correlationID)
	if err != nil {
		return consent.Request{}, err
	}
	s.metrics.ConsentResolutions.WithLabelValues(snapshot.State.String()).Inc()
	return snapshot, nil
}

// finalize applies the consent outcome, writes exactly one audit entry for
// the fetch, and only then builds the envelope. Log-then-release: an audit
// append failure aborts the operation and nothing is returned.
func (s *Service) finalize(ctx context.Context, a *assessment, cns consent.Request) (*Envelope, error) {
	approved := cns.Approved()

	results := make([]RecordResult, len(a.results))
	copy(results, a.results)
	for i := range results {
		if !results[i].AccessGranted {
			continue
		}
		if !approved {
			results[i].AccessGranted = false
			results[i].SanitizedContent = ""
			results[i].Reason = fmt.Sprintf("consent %s: %s", cns.State, cns.Reason)
		}
	}

	entry, err := audit.NewEntry(a.req.CallerID, a.toolName, a.req.CorrelationID, audit.SanitizeInput(map[string]string{
		"query": s.redactor.Redact(a.req.Query, redaction.Context{}).SanitizedText,
	}))
	if err != nil {
		return nil, err
	}
	redacted := false
	for _, res := range a.results {
		entry.WithAccess(res.SourceType.String(), res.ResourceID, res.Classification)
		if res.Redacted {
			redacted = true
		}
	}
	entry.RedactionApplied = redacted
	entry.AccessGranted = approved && len(a.grantedLevels) > 0

	// The entry must land even when the caller has already gone away:
	// cancellation resolved the consent request as a denial, and that
	// denial is itself an auditable outcome.
	logID, err := s.auditLog.Append(context.WithoutCancel(ctx), entry)
	if err != nil {
		s.metrics.AuditWriteFailures.Inc()
		s.logger.Error("audit append failed; operation failed closed",
			zap.String("correlation_id", a.req.CorrelationID),
			zap.String("tool", a.toolName),
			zap.Error(err),
		)
		return nil, err
	}

	env := &Envelope{
		CorrelationID:   a.req.CorrelationID,
		ToolName:        a.toolName,
		Records:         results,
		RequiresConsent: cns.RequiresConsent,
		ConsentID:       cns.ID,
		ConsentState:    cns.State,
		AuditLogID:      logID,
	}
	if a.fetchErr != nil {
		env.Partial = true
		env.SourceErrors = append(env.SourceErrors, *a.fetchErr)
	}
	return env, nil
}

// contactAllowList extracts addresses from the record's structured contact
// metadata. Free-text content never feeds the allow-list.
func contactAllowList(rec record.Record) []string {
	var out []string
	for _, key := range []string{classification.MetaAttendees, classification.MetaParticipants} {
		for _, addr := range strings.Split(rec.Meta(key), ";") {
			if addr = strings.TrimSpace(addr); strings.Contains(addr, "@") {
				out = append(out, addr)
			}
		}
	}
	for _, key := range []string{"organizer", "email"} {
		if addr := strings.TrimSpace(rec.Meta(key)); strings.Contains(addr, "@") {
			out = append(out, addr)
		}
	}
	return out
}

// safeReason reduces a connector error to a structured reason. Anything
// that still looks like it carries an identifier is replaced wholesale.
func safeReason(err error) string {
	msg := "source unavailable"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		msg = appErr.Message
	}
	if _, found := redaction.ContainsIdentifier(msg); found {
		return "source unavailable"
	}
	return msg
}

func outcome(env *Envelope, cns consent.Request) string {
	switch {
	case cns.RequiresConsent && cns.State == consent.StateDenied:
		return "consent_denied"
	case cns.RequiresConsent && cns.State == consent.StateExpired:
		return "consent_expired"
	case env.Released():
		return "released"
	case env.Partial && len(env.Records) == 0:
		return "fetch_failed"
	default:
		return "denied"
	}
}

func planOutcome(released bool, cns consent.Request) string {
	switch {
	case cns.RequiresConsent && cns.State == consent.StateDenied:
		return "consent_denied"
	case cns.RequiresConsent && cns.State == consent.StateExpired:
		return "consent_expired"
	case released:
		return "released"
	default:
		return "denied"
	}
}
