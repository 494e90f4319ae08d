package http

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/services"
)

type capRow struct {
	Category string
	Field    string
	Value    string // empty when unset
}

type indexView struct {
	Today      time.Time
	Year       int
	Month      int
	MonthName  string
	Categories []string
	Caps       []capRow
}

type categoryRow struct {
	core.CategoryStatus
	Name      string
	AlertText string
}

type overviewView struct {
	core.MonthlyBreakdown
	MonthName string
	Rows      []categoryRow
}

type entriesView struct {
	Year      int
	Month     int
	MonthName string
	Entries   []core.Entry
	Total     core.Money
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	params, err := ParseMonthParams(r.URL.Query(), s.svc.Now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	caps, err := s.svc.Caps(ctx, sessionID(ctx))
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to read caps", log.FieldError, err)
		InternalServerError("Could not load your budget").Write(w)
		return
	}

	view := indexView{
		Today:     s.svc.Now(),
		Year:      params.Year,
		Month:     params.Month,
		MonthName: time.Month(params.Month).String(),
	}
	for _, c := range core.Categories() {
		view.Categories = append(view.Categories, c.String())
		row := capRow{Category: c.String(), Field: CapField(c)}
		if m := caps.Get(c); m.Cents > 0 {
			row.Value = m.String()
		}
		view.Caps = append(view.Caps, row)
	}

	s.renderPage(w, r, "index.html", view)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	e, err := ParseEntry(p, core.DateOf(s.svc.Now()))
	if err != nil {
		logger.WarnContext(ctx, "Entry rejected", log.FieldOperation, log.OpParse, log.FieldError, err)
		UnprocessableEntityError(entryErrorMessage(err)).
			TriggerErrorNotification(entryErrorMessage(err)).
			Write(w)
		return
	}

	if err := s.svc.RecordEntry(ctx, sessionID(ctx), e); err != nil {
		if isValidationError(err) {
			UnprocessableEntityError(entryErrorMessage(err)).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Failed to record entry", log.FieldOperation, log.OpRecordEntry, log.FieldError, err)
		InternalServerError("Could not record the entry").Write(w)
		return
	}
	atomic.AddInt64(&s.metrics.entriesRecorded, 1)

	NewHTMXResponse().
		TriggerEntryCreated(e.Date.Year(), e.Date.Month()).
		TriggerOverviewRefresh(e.Date.Year(), e.Date.Month()).
		TriggerFormReset().
		TriggerSuccessNotification("Entry recorded successfully.").
		BodyHTML(`<div class="success">Entry recorded successfully.</div>`).
		Write(w)
}

func (s *Server) handleSetCaps(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	caps, err := ParseCaps(p)
	if err != nil {
		UnprocessableEntityError(capErrorMessage(err)).Write(w)
		return
	}

	var changed []string
	for _, c := range core.Categories() {
		amount, ok := caps[c]
		if !ok {
			continue
		}
		if err := s.svc.SetCap(ctx, sessionID(ctx), c, amount); err != nil {
			logger.ErrorContext(ctx, "Failed to set cap", log.FieldOperation, log.OpSetCap, log.FieldCategory, c.String(), log.FieldError, err)
			InternalServerError("Could not save the budget").Write(w)
			return
		}
		changed = append(changed, c.String())
	}
	atomic.AddInt64(&s.metrics.capsUpdated, int64(len(changed)))

	now := s.svc.Now()
	NewHTMXResponse().
		TriggerCapUpdated(changed).
		TriggerOverviewRefresh(now.Year(), int(now.Month())).
		TriggerSuccessNotification("Budget updated.").
		BodyHTML(`<div class="success">Budget updated.</div>`).
		Write(w)
}

// breakdown evaluates the requested month. Each call consults the
// notification ledger, so a low-remaining alert shows up in exactly one
// response.
func (s *Server) breakdown(w http.ResponseWriter, r *http.Request) (core.MonthlyBreakdown, bool) {
	ctx := r.Context()
	params, err := ParseMonthParams(r.URL.Query(), s.svc.Now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return core.MonthlyBreakdown{}, false
	}

	sl := log.NewStructuredLogger(log.FromContext(ctx))
	b, err := s.svc.MonthlyBreakdown(ctx, sessionID(ctx), params.Ref())
	if errors.Is(err, services.ErrLedger) {
		// totals are intact; only one-time notifications may be missing
		sl.LogError(ctx, "Notification ledger failed during breakdown", err, log.OpBreakdown,
			log.NewFields().WithSession(sessionID(ctx)).WithPeriod(params.Year, params.Month))
	} else if err != nil {
		sl.LogError(ctx, "Failed to compute breakdown", err, log.OpBreakdown,
			log.NewFields().WithSession(sessionID(ctx)).WithPeriod(params.Year, params.Month))
		InternalServerError("Could not compute the monthly overview").Write(w)
		return core.MonthlyBreakdown{}, false
	}

	atomic.AddInt64(&s.metrics.evaluations, 1)
	if alerts := b.Alerts(); len(alerts) > 0 {
		atomic.AddInt64(&s.metrics.alertsRaised, int64(len(alerts)))
		for _, cs := range alerts {
			sl.LogAlert(ctx, sessionID(ctx), b.Year, b.Month, cs.Category.String(), cs.State.String(), cs.Spent.Cents, cs.Cap.Cents)
		}
	}
	return b, true
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	b, ok := s.breakdown(w, r)
	if !ok {
		return
	}

	view := overviewView{MonthlyBreakdown: b, MonthName: time.Month(b.Month).String()}
	for _, cs := range b.Categories {
		view.Rows = append(view.Rows, categoryRow{
			CategoryStatus: cs,
			Name:           cs.Category.String(),
			AlertText:      cs.Message(s.svc.Symbol()),
		})
	}
	s.renderPage(w, r, "overview.html", view)
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	params, err := ParseMonthParams(r.URL.Query(), s.svc.Now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	entries, err := s.svc.DetailedEntries(ctx, sessionID(ctx), params.Ref())
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to list entries", log.FieldOperation, log.OpList, log.FieldError, err)
		InternalServerError("Could not load entries").Write(w)
		return
	}

	view := entriesView{
		Year:      params.Year,
		Month:     params.Month,
		MonthName: time.Month(params.Month).String(),
		Entries:   entries,
	}
	for _, e := range entries {
		view.Total = view.Total.Add(e.Amount)
	}
	s.renderPage(w, r, "entries.html", view)
}

type apiCategory struct {
	Category       string  `json:"category"`
	SpentCents     int64   `json:"spent_cents"`
	CapCents       int64   `json:"cap_cents"`
	State          string  `json:"state"`
	RemainingCents int64   `json:"remaining_cents"`
	OverageCents   int64   `json:"overage_cents"`
	Ratio          float64 `json:"ratio"`
	Message        string  `json:"message,omitempty"`
}

type apiOverview struct {
	Year            int           `json:"year"`
	Month           int           `json:"month"`
	Categories      []apiCategory `json:"categories"`
	TotalSpentCents int64         `json:"total_spent_cents"`
	TotalCapCents   int64         `json:"total_cap_cents"`
	ThresholdCents  int64         `json:"threshold_cents"`
	TotalRatio      float64       `json:"total_ratio"`
}

func (s *Server) handleAPIOverview(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	b, ok := s.breakdown(w, r)
	if !ok {
		return
	}

	out := apiOverview{
		Year:            b.Year,
		Month:           b.Month,
		Categories:      make([]apiCategory, 0, len(b.Categories)),
		TotalSpentCents: b.TotalSpent.Cents,
		TotalCapCents:   b.TotalCap.Cents,
		ThresholdCents:  b.Threshold.Cents,
		TotalRatio:      b.TotalRatio,
	}
	for _, cs := range b.Categories {
		out.Categories = append(out.Categories, apiCategory{
			Category:       cs.Category.String(),
			SpentCents:     cs.Spent.Cents,
			CapCents:       cs.Cap.Cents,
			State:          cs.State.String(),
			RemainingCents: cs.Remaining.Cents,
			OverageCents:   cs.Overage.Cents,
			Ratio:          cs.Ratio,
			Message:        cs.Message(s.svc.Symbol()),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	if err := s.svc.EndSession(ctx, sessionID(ctx)); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to end session", log.FieldOperation, log.OpEndSession, log.FieldError, err)
		InternalServerError("Could not reset the session").Write(w)
		return
	}
	atomic.AddInt64(&s.metrics.sessionsReset, 1)
	s.issueSession(w)

	NewHTMXResponse().
		TriggerSessionReset().
		Header("HX-Refresh", "true").
		Status(http.StatusNoContent).
		Write(w)
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrUnknownCategory) ||
		errors.Is(err, core.ErrNoteTooLong)
}

func entryErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date (YYYY-MM-DD)."
	case errors.Is(err, core.ErrUnknownCategory):
		return "Please choose Food, Transport or Entertainment."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter an amount of zero or more."
	case errors.Is(err, core.ErrNoteTooLong):
		return "The note can be at most 200 characters."
	default:
		return "Invalid entry."
	}
}

func capErrorMessage(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) && errors.Is(err, core.ErrInvalidAmount) {
		return "Budget caps must be amounts of zero or more."
	}
	return "Enter at least one budget cap."
}
