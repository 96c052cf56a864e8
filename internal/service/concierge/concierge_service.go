package concierge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/llm"
	"github.com/Domenick1991/campushub/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MaxQuestionLength     = 1000
	DefaultMaxResources   = 4
	DefaultMaxDocSnippets = 2
	mostRequestedLimit    = 2
)

const notConfiguredError = "Local AI runtime is not configured."

const greetingFallback = "Hello! 👋 I'm your Campus Resource Concierge, and I'm here to help you find the perfect study spaces, maker labs, equipment, and event venues around IU Bloomington. What can I help you discover today?"

type ConciergeUseCase interface {
	Answer(ctx context.Context, q Query) (*Result, error)
	Sources(ctx context.Context) (*Sources, error)
}

type Query struct {
	Question      string
	Category      string
	PublishedOnly bool
}

// ResourceFact is a catalogue record exactly as stored.
type ResourceFact struct {
	ResourceID   int64                 `json:"resource_id"`
	Title        string                `json:"title"`
	Category     string                `json:"category"`
	Location     string                `json:"location"`
	Description  string                `json:"description"`
	Capacity     *int                  `json:"capacity"`
	IsRestricted bool                  `json:"is_restricted"`
	Equipment    string                `json:"equipment"`
	Status       domain.ResourceStatus `json:"status"`
	Rating       *float64              `json:"rating"`
}

type DocSnippet struct {
	Source  string `json:"source"`
	Heading string `json:"heading"`
	Preview string `json:"preview"`
	Content string `json:"content"`
}

type Popular struct {
	ResourceID int64  `json:"resource_id"`
	Title      string `json:"title"`
	Total      int    `json:"total"`
}

type Stats struct {
	MostRequested []Popular `json:"most_requested"`
}

type Result struct {
	Question           string         `json:"question"`
	Answer             string         `json:"answer"`
	Resources          []ResourceFact `json:"resources"`
	DocSnippets        []DocSnippet   `json:"doc_snippets"`
	Stats              Stats          `json:"stats"`
	UsedLLM            bool           `json:"used_llm"`
	LLMError           string         `json:"llm_error,omitempty"`
	ContextBlock       string         `json:"context_block"`
	UnverifiedMentions []string       `json:"unverified_mentions"`
	Grounded           bool           `json:"grounded"`
}

type Sources struct {
	Documents  []string `json:"documents"`
	Categories []string `json:"categories"`
	Provider   string   `json:"provider,omitempty"`
}

type ConciergeService struct {
	resources    repository.ResourceRepository
	bookings     repository.BookingRepository
	reviews      repository.ReviewRepository
	llm          llm.Client
	docs         *docIndex
	contextDir   string
	maxResources int
	maxDocs      int
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

type ConciergeServiceOption func(*ConciergeService)

func WithLimits(maxResources, maxDocs int) ConciergeServiceOption {
	return func(s *ConciergeService) {
		if maxResources > 0 {
			s.maxResources = maxResources
		}
		if maxDocs > 0 {
			s.maxDocs = maxDocs
		}
	}
}

func WithLocation(loc *time.Location) ConciergeServiceOption {
	return func(s *ConciergeService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) ConciergeServiceOption {
	return func(s *ConciergeService) {
		s.now = now
	}
}

func WithLogger(l *zap.Logger) ConciergeServiceOption {
	return func(s *ConciergeService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewConciergeService wires retrieval over the catalogue and the markdown
// notes in contextDir. client may be nil.
func NewConciergeService(
	resources repository.ResourceRepository,
	bookings repository.BookingRepository,
	reviews repository.ReviewRepository,
	client llm.Client,
	contextDir string,
	opts ...ConciergeServiceOption,
) *ConciergeService {
	service := &ConciergeService{
		resources:    resources,
		bookings:     bookings,
		reviews:      reviews,
		llm:          client,
		docs:         newDocIndex(),
		contextDir:   contextDir,
		maxResources: DefaultMaxResources,
		maxDocs:      DefaultMaxDocSnippets,
		loc:          time.UTC,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.llm == nil {
		service.logger.Info("concierge running without a language model")
	} else {
		service.logger.Info("concierge language model configured", zap.String("provider", service.llm.Name()))
	}
	return service
}

var _ ConciergeUseCase = (*ConciergeService)(nil)

func (s *ConciergeService) Answer(ctx context.Context, q Query) (*Result, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return nil, domain.NewValidationError("question", "Question must not be empty.")
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return nil, domain.NewValidationError("question", fmt.Sprintf("Question must be %d characters or fewer.", MaxQuestionLength))
	}

	greeting := isGreeting(question)

	var availabilityAnswer string
	if !greeting {
		answer, ok, err := s.availabilityAnswer(ctx, question, q.PublishedOnly)
		if err != nil {
			return nil, err
		}
		if ok {
			availabilityAnswer = answer
		}
	}

	keywords := extractKeywords(question)
	if len(keywords) == 0 {
		keywords = tokenize(question)
	}

	var (
		matched []domain.Resource
		chunks  []chunk
		stats   = Stats{MostRequested: []Popular{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	if !greeting && availabilityAnswer == "" {
		g.Go(func() error {
			var err error
			matched, err = s.matchResources(gctx, question, keywords, q.Category, q.PublishedOnly)
			return err
		})
		g.Go(func() error {
			chunks = s.matchDocs(keywords)
			return nil
		})
	}
	if !greeting {
		g.Go(func() error {
			stats = s.insights(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("concierge retrieval: %w", err)
	}

	facts, err := s.facts(ctx, matched)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Question:           question,
		Resources:          facts,
		DocSnippets:        snippets(chunks),
		Stats:              stats,
		ContextBlock:       contextBlock(facts, chunks),
		UnverifiedMentions: []string{},
		Grounded:           true,
	}

	if availabilityAnswer != "" {
		s.logger.Info("concierge answered availability question directly")
		result.Answer = availabilityAnswer
		return result, nil
	}

	answer, llmErr := s.callLLM(ctx, question, result.ContextBlock, greeting)
	switch {
	case answer != "":
		result.Answer = answer
		result.UsedLLM = true
		mentions, err := s.unverifiedMentions(ctx, answer)
		result.UnverifiedMentions = mentions
		result.Grounded = err == nil && len(mentions) == 0
		if err != nil {
			s.logger.Warn("concierge could not verify mentions", zap.Error(err))
		}
	case greeting:
		result.Answer = greetingFallback
	default:
		result.Answer = composeFallback(facts, stats)
	}
	result.LLMError = llmErr
	return result, nil
}

// Sources lists the documentation files the concierge can cite.
func (s *ConciergeService) Sources(ctx context.Context) (*Sources, error) {
	out := &Sources{
		Documents:  s.docs.sources(s.contextDir),
		Categories: append([]string(nil), domain.Categories...),
	}
	if s.llm != nil {
		out.Provider = s.llm.Name()
	}
	return out, nil
}

func (s *ConciergeService) callLLM(ctx context.Context, question, block string, greeting bool) (string, string) {
	if s.llm == nil {
		return "", notConfiguredError
	}

	system, user := buildPrompt(question, block, greeting)
	s.logger.Info("concierge calling language model",
		zap.String("question", preview(question, 50)),
		zap.Bool("has_context", user != question),
	)

	answer, err := s.llm.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	})
	if err != nil {
		if !errors.Is(err, llm.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
		}
		s.logger.Warn("local AI unavailable", zap.Error(err))
		return "", err.Error()
	}
	return formatResponse(answer), ""
}

func (s *ConciergeService) insights(ctx context.Context) Stats {
	stats := Stats{MostRequested: []Popular{}}
	rows, err := s.bookings.MostRequested(ctx, mostRequestedLimit)
	if err != nil {
		s.logger.Warn("concierge could not load booking stats", zap.Error(err))
		return stats
	}
	for _, row := range rows {
		stats.MostRequested = append(stats.MostRequested, Popular{ResourceID: row.ResourceID, Title: row.Title, Total: row.Count})
	}
	return stats
}

// facts serialises matched records with their average rating.
func (s *ConciergeService) facts(ctx context.Context, matched []domain.Resource) ([]ResourceFact, error) {
	out := make([]ResourceFact, 0, len(matched))
	if len(matched) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(matched))
	for _, r := range matched {
		ids = append(ids, r.ID)
	}
	ratings, err := s.reviews.Stats(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	for _, r := range matched {
		fact := ResourceFact{
			ResourceID:   r.ID,
			Title:        r.Title,
			Category:     r.Category,
			Location:     r.Location,
			Description:  r.Description,
			Capacity:     r.Capacity,
			IsRestricted: r.IsRestricted,
			Equipment:    r.Equipment,
			Status:       r.Status,
		}
		if st, ok := ratings[r.ID]; ok && st.Count > 0 {
			avg := st.Average
			fact.Rating = &avg
		}
		out = append(out, fact)
	}
	return out, nil
}

func (s *ConciergeService) unverifiedMentions(ctx context.Context, answer string) ([]string, error) {
	mentions := boldMentions(answer)
	if len(mentions) == 0 {
		return []string{}, nil
	}
	titles, err := s.resources.Titles(ctx)
	if err != nil {
		return []string{}, err
	}
	return unmatched(mentions, titles), nil
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
