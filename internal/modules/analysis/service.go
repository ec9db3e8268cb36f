package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/scermak/theportfolio/internal/clients/yahoo"
	"github.com/scermak/theportfolio/internal/modules/ledger"
	"github.com/scermak/theportfolio/internal/modules/news"
)

const systemInstruction = `You are a sober financial analyst. For the instrument
described by the user, assess the upside chance and the downside risk on a 0-100
scale (100 = very high). If the information is insufficient, answer with chance 0
and risk 100. Answer with exactly two CSV rows and nothing else:

chance,<0-100>,<one sentence explanation>
risk,<0-100>,<one sentence explanation>`

// Quoter is the market data slice this module needs.
type Quoter interface {
	GetQuote(symbol string, extended bool) (*yahoo.Quote, error)
}

// Service produces chance/risk assessments with the Gemini API and
// persists them per instrument.
type Service struct {
	repo    *Repository
	lots    *ledger.LotRepository
	tickers *ledger.TickerRepository
	market  Quoter
	news    *news.Service

	apiKey string
	model  string
	log    zerolog.Logger
}

// NewService creates a new analysis service. An empty apiKey disables
// analysis generation; stored assessments stay readable.
func NewService(
	repo *Repository,
	lots *ledger.LotRepository,
	tickers *ledger.TickerRepository,
	market Quoter,
	newsService *news.Service,
	apiKey, model string,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		lots:    lots,
		tickers: tickers,
		market:  market,
		news:    newsService,
		apiKey:  apiKey,
		model:   model,
		log:     log.With().Str("service", "analysis").Logger(),
	}
}

// List returns all stored assessments.
func (s *Service) List() ([]Analysis, error) {
	return s.repo.List()
}

// Get returns the stored assessment for a ticker, nil when absent.
func (s *Service) Get(ticker string) (*Analysis, error) {
	return s.repo.Get(strings.ToUpper(strings.TrimSpace(ticker)))
}

// Analyze asks the model for a fresh assessment of one instrument and
// stores it. The position is re-checked after the model call; an
// instrument sold while the request was in flight is not persisted.
func (s *Service) Analyze(ctx context.Context, ticker string) (*Analysis, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("analysis disabled: no API key configured")
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	prompt, err := s.buildPrompt(ticker)
	if err != nil {
		return nil, err
	}

	text, err := s.ask(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to query model: %w", err)
	}

	chance, risk, chanceExpl, riskExpl, err := ParseResponse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	active, err := s.lots.ListActive(ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to re-check position: %w", err)
	}
	if len(active) == 0 {
		s.log.Info().Str("ticker", ticker).Msg("Position closed during analysis, result dropped")
		return nil, nil
	}

	analysis := Analysis{
		Ticker:            ticker,
		Chance:            chance,
		ChanceExplanation: chanceExpl,
		Risk:              risk,
		RiskExplanation:   riskExpl,
		UpdatedAt:         time.Now(),
	}
	if err := s.repo.Upsert(analysis); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("ticker", ticker).
		Int("chance", chance).
		Int("risk", risk).
		Msg("Analysis stored")

	return &analysis, nil
}

// RefreshAll re-analyzes every instrument with active lots and returns
// the number of stored assessments. Failures are logged per ticker so
// one bad instrument does not abort the sweep.
func (s *Service) RefreshAll(ctx context.Context) int {
	tickers, err := s.lots.ActiveTickers()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list instruments for refresh")
		return 0
	}

	refreshed := 0
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Analyze(ctx, ticker); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Analysis failed")
			continue
		}
		refreshed++
	}

	s.log.Info().Int("refreshed", refreshed).Msg("Analysis refresh finished")
	return refreshed
}

func (s *Service) buildPrompt(ticker string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Instrument: %s\n", ticker)

	keywords := []string{ticker}
	if name, err := s.tickers.ResolveName(ticker); err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to resolve display name")
	} else if name != nil {
		fmt.Fprintf(&b, "Name: %s\n", *name)
		keywords = append(keywords, *name)
	}

	quote, err := s.market.GetQuote(ticker, true)
	if err != nil {
		return "", fmt.Errorf("failed to get quote: %w", err)
	}
	fmt.Fprintf(&b, "Price: %.2f %s\n", quote.Price, quote.Currency)
	if quote.ChangePercent != nil {
		fmt.Fprintf(&b, "Day change: %.2f%%\n", *quote.ChangePercent)
	}
	if quote.High52 != nil && quote.Low52 != nil {
		fmt.Fprintf(&b, "52-week range: %.2f - %.2f\n", *quote.Low52, *quote.High52)
	}

	if s.news != nil {
		headlines := s.news.FetchHeadlines(keywords, 5)
		if len(headlines) > 0 {
			b.WriteString("Recent headlines:\n")
			for _, h := range headlines {
				fmt.Fprintf(&b, "- %s\n", h.Title)
			}
		}
	}

	return b.String(), nil
}

func (s *Service) ask(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: s.apiKey})
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
	chat, err := client.Chats.Create(ctx, s.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}

	resp, err := chat.Send(ctx, &genai.Part{Text: prompt})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}

	return b.String(), nil
}
