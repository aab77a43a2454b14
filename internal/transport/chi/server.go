package chi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/domain"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	"github.com/kailas-cloud/kitfinder/internal/domain/preference"
	domvideo "github.com/kailas-cloud/kitfinder/internal/domain/video"
	logpkg "github.com/kailas-cloud/kitfinder/internal/logger"
	gen "github.com/kailas-cloud/kitfinder/internal/transport/generated"
	embeddinguc "github.com/kailas-cloud/kitfinder/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/kitfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/kitfinder/internal/usecase/search"
	"github.com/kailas-cloud/kitfinder/internal/version"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// BudgetReporter exposes the embedding token budget on /health.
type BudgetReporter interface {
	Status() embeddinguc.BudgetStatus
}

// Server implements generated.ServerInterface for the chi router.
type Server struct {
	gen.Unimplemented
	search         *searchuc.Service
	health         *healthuc.Service
	budget         BudgetReporter
	options        preference.Options
	defaultResults int
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

var _ gen.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. options.MaxResults caps n_results and
// defaultResults is used when a request omits it.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	options preference.Options,
	defaultResults int,
	logger *zap.Logger,
) *Server {
	if options.MaxResults <= 0 {
		options.MaxResults = preference.DefaultMaxResults
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:         search,
		health:         health,
		options:        options,
		defaultResults: min(defaultResults, options.MaxResults),
		logger:         logger,
	}
	// Order matters: quota errors arrive wrapped in IndexUnavailableError.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidPreferences,
			http.StatusBadRequest, gen.ErrorResponseCodeInvalidPreferences),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusTooManyRequests, gen.ErrorResponseCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrIndexUnavailable,
			http.StatusServiceUnavailable, gen.ErrorResponseCodeIndexUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, gen.ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrVideoSearchUnavailable,
			http.StatusBadGateway, gen.ErrorResponseCodeVideoSearchUnavailable),
	}
	return s
}

// WithBudget reports the embedding budget on /health.
func (s *Server) WithBudget(budget BudgetReporter) *Server {
	s.budget = budget
	return s
}

// searchInput is the transport-neutral form of both search request shapes.
type searchInput struct {
	layout   *string
	hotswap  *string
	flexcuts *string
	budget   *string
	mounting *string
	nResults *int
}

// PostSearch handles POST /search.
func (s *Server) PostSearch(w http.ResponseWriter, r *http.Request) {
	var req gen.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed, validationMessage(err))
		return
	}

	var budget *string
	if req.Budget != nil {
		b := string(*req.Budget)
		budget = &b
	}

	s.runSearch(w, r, searchInput{
		layout:   req.Layout,
		hotswap:  req.Hotswap,
		flexcuts: req.Flexcuts,
		budget:   budget,
		mounting: req.MountingStyle,
		nResults: req.NResults,
	})
}

// GetSearch handles GET /search.
func (s *Server) GetSearch(w http.ResponseWriter, r *http.Request, params gen.SearchParams) {
	if err := validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed, validationMessage(err))
		return
	}

	s.runSearch(w, r, searchInput{
		layout:   params.Layout,
		hotswap:  params.Hotswap,
		flexcuts: params.Flexcuts,
		budget:   params.Budget,
		mounting: params.MountingStyle,
		nResults: params.NResults,
	})
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, in searchInput) {
	prefs, err := s.preferencesFromInput(in)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx := logpkg.With(r.Context(),
		zap.String("layout", prefs.LayoutLabel()),
		zap.Stringer("budget", prefs.Budget()),
		zap.Stringer("mounting", prefs.Mounting()),
	)
	ctx, usage := domain.NewContextWithUsage(ctx)

	resp, err := s.search.Search(ctx, prefs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseToGen(&resp))
}

// GetOptions handles GET /options.
func (s *Server) GetOptions(w http.ResponseWriter, r *http.Request) {
	mounting := append([]string{preference.NoPreferenceLabel}, s.options.MountingStyles...)

	budgets := make([]string, 0, len(s.options.BudgetTiers)+1)
	for _, tier := range s.options.BudgetTiers {
		budgets = append(budgets, strconv.FormatFloat(tier, 'f', -1, 64))
	}
	budgets = append(budgets, preference.NoLimitLabel)

	writeJSON(w, http.StatusOK, gen.OptionsResponse{
		Layouts:        append([]string{}, s.options.Layouts...),
		MountingStyles: mounting,
		Budgets:        budgets,
		Choices:        []string{preference.YesLabel, preference.NoLabel, preference.NoPreferenceLabel},
		MaxResults:     s.options.MaxResults,
		DefaultResults: s.defaultResults,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]gen.HealthResponseChecks, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = gen.HealthResponseChecks(v)
	}

	resp := gen.HealthResponse{
		Status:  gen.HealthResponseStatus(report.Status),
		Checks:  checks,
		Version: version.String(),
	}
	if report.Items >= 0 {
		items := report.Items
		resp.Items = &items
	}
	if s.budget != nil {
		resp.Budget = budgetToGen(s.budget.Status())
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) preferencesFromInput(in searchInput) (preference.Preferences, error) {
	layout := strings.TrimSpace(deref(in.layout))
	if !s.options.HasLayout(layout) {
		return preference.Preferences{}, fmt.Errorf("%w: unknown layout %q", domain.ErrInvalidPreferences, layout)
	}

	hotswap, err := preference.ParseChoice(deref(in.hotswap))
	if err != nil {
		return preference.Preferences{}, fmt.Errorf("hotswap: %w", err)
	}
	flexcuts, err := preference.ParseChoice(deref(in.flexcuts))
	if err != nil {
		return preference.Preferences{}, fmt.Errorf("flexcuts: %w", err)
	}

	budget, err := preference.ParseBudget(deref(in.budget))
	if err != nil {
		return preference.Preferences{}, err
	}

	style := strings.TrimSpace(deref(in.mounting))
	if !s.options.HasMountingStyle(style) {
		return preference.Preferences{}, fmt.Errorf("%w: unknown mounting style %q",
			domain.ErrInvalidPreferences, style)
	}

	n := s.defaultResults
	if in.nResults != nil {
		n = *in.nResults
	}

	prefs, err := preference.New(layout, hotswap, flexcuts, budget,
		preference.ParseMounting(style), n, s.options.MaxResults)
	if err != nil {
		return preference.Preferences{}, fmt.Errorf("build preferences: %w", err)
	}
	return prefs, nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.RequestUsage) {
	if usage.Calls() > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(usage.Tokens(), 10))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code gen.ErrorResponseCode, message string) {
	writeJSON(w, status, gen.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationMessage renders validator errors as "field: tag" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			parts[i] = fmt.Sprintf("%s: must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		} else {
			parts[i] = fmt.Sprintf("%s: must satisfy %s", fe.Field(), fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Preference errors carry user input only, so their full text is returned.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidPreferences) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrIndexUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrVideoSearchUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code gen.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, gen.ErrorResponseCodeInternalError, "internal error")
}

func searchResponseToGen(resp *searchuc.Response) gen.SearchResponse {
	results := make([]gen.KeyboardRow, len(resp.Results))
	for i := range resp.Results {
		results[i] = keyboardRowToGen(&resp.Results[i])
	}
	videos := make([]gen.VideoRow, len(resp.Videos))
	for i, v := range resp.Videos {
		videos[i] = videoRowToGen(v)
	}
	return gen.SearchResponse{
		Query:   resp.Query,
		Results: results,
		Videos:  videos,
	}
}

func keyboardRowToGen(item *domcat.Item) gen.KeyboardRow {
	return gen.KeyboardRow{
		Keyboard:      item.Name(),
		Layout:        item.Layout(),
		MountingStyle: item.MountingStyle(),
		Price:         item.Price().StringFixed(2),
		Features:      item.Features(),
	}
}

func videoRowToGen(row domvideo.DisplayRow) gen.VideoRow {
	return gen.VideoRow{Keyboard: row.Name, Link: row.Link}
}

func budgetToGen(st embeddinguc.BudgetStatus) *gen.BudgetStatus {
	return &gen.BudgetStatus{
		Provider:         st.Provider,
		Action:           string(st.Action),
		DailyUsed:        st.DailyUsed,
		DailyLimit:       st.DailyLimit,
		DailyRemaining:   st.DailyRemaining,
		MonthlyUsed:      st.MonthlyUsed,
		MonthlyLimit:     st.MonthlyLimit,
		MonthlyRemaining: st.MonthlyRemaining,
		IsExhausted:      st.Exceeded(),
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
