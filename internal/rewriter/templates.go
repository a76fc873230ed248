package rewriter

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// ContentType selects the article format and its prompt.
type ContentType string

const (
	BestBets     ContentType = "best_bets"
	PlayerProps  ContentType = "player_props"
	OddsAnalysis ContentType = "odds_analysis"
	Predictions  ContentType = "predictions"
)

var contentTypes = []ContentType{BestBets, PlayerProps, OddsAnalysis, Predictions}

// ContentTypes lists every supported content type in canonical order.
func ContentTypes() []ContentType {
	return append([]ContentType(nil), contentTypes...)
}

// ParseContentType validates s as a content type.
func ParseContentType(s string) (ContentType, error) {
	for _, ct := range contentTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	names := make([]string, len(contentTypes))
	for i, ct := range contentTypes {
		names[i] = string(ct)
	}
	return "", fmt.Errorf("%w: Unknown content type '%s'. Must be one of: %s",
		types.ErrUnknownContentType, s, strings.Join(names, ", "))
}

// PromptData fills a prompt template.
type PromptData struct {
	Sport      string
	Date       string
	SourceData string
	Keywords   string
}

// Template fields use [[ ]] so the literal {{novig_internal_link}}
// placeholder survives.
const baseInstructions = `You are a sports-analytics content writer for Novig, a prediction-market platform.

Voice guidelines:
- Authoritative but accessible: explain concepts without being condescending
- Data-driven: cite stats, probabilities, and historical trends
- Prediction-market focused: frame analysis through the lens of forecasting and prediction markets, not traditional gambling
- Replace gambling jargon: say "forecast" instead of "bet", "edge" instead of "value", "prediction market" instead of "sportsbook" where natural
- Naturally incorporate "Novig" and "prediction markets" where appropriate

Output format: produce ONLY the following, nothing else:
1. A compelling headline (H1), 50-60 characters ideal
2. A meta description, 150-160 characters, compelling for search results
3. Article body with H2 and H3 subheadings, at least 500 words
4. Include the placeholder {{novig_internal_link}} where an internal link to Novig should appear (use at least once)
5. End with a call-to-action encouraging readers to explore Novig's prediction markets

Return the article in this exact structure:

TITLE: <headline>
META_DESCRIPTION: <meta description>
BODY:
<markdown body starting with # headline>
`

var sections = map[ContentType]string{
	BestBets: `
Content type: Best Bets Article

You are rewriting a "best bets" article for [[.Sport]] on [[.Date]].

Source data:
[[.SourceData]]

Requirements:
- Produce a daily best-bets article covering the top picks
- For each pick, explain the reasoning with stats and trends
- Include an overview section, individual pick breakdowns (H2 per pick), and a summary
- Mention relevant odds/lines and how they relate to prediction-market pricing
- Use keywords: [[.Keywords]]
`,
	PlayerProps: `
Content type: Player Props Breakdown

You are rewriting a player props article for [[.Sport]] on [[.Date]].

Source data:
[[.SourceData]]

Requirements:
- Break down the most interesting player prop opportunities
- For each prop, include the player name, prop type, line, and analysis
- Reference historical performance data where available
- Frame props through a prediction-market lens: what does the market imply vs. your analysis?
- Use keywords: [[.Keywords]]
`,
	OddsAnalysis: `
Content type: Odds Analysis & Line Movement

You are rewriting an odds analysis article for [[.Sport]] on [[.Date]].

Source data:
[[.SourceData]]

Requirements:
- Analyze the current odds landscape and notable line movements
- Compare odds across sources and highlight discrepancies
- Explain what the line movements signal about market sentiment
- Connect to prediction-market concepts: efficiency, crowd wisdom, edge detection
- Use keywords: [[.Keywords]]
`,
	Predictions: `
Content type: Prediction Market Insights

You are rewriting a predictions/forecast article for [[.Sport]] on [[.Date]].

Source data:
[[.SourceData]]

Requirements:
- Present forecasts and predictions for upcoming games/events
- Use probabilistic language: express confidence as percentages where possible
- Compare model predictions vs. market prices
- Discuss where prediction markets may be mispricing outcomes
- Naturally tie into Novig's prediction market platform
- Use keywords: [[.Keywords]]
`,
}

var templates = func() map[ContentType]*template.Template {
	m := make(map[ContentType]*template.Template, len(sections))
	for ct, section := range sections {
		m[ct] = template.Must(template.New(string(ct)).Delims("[[", "]]").Parse(baseInstructions + section))
	}
	return m
}()

// Template returns the raw prompt template for ct.
func Template(ct ContentType) (string, error) {
	section, ok := sections[ct]
	if !ok {
		_, err := ParseContentType(string(ct))
		return "", err
	}
	return baseInstructions + section, nil
}

// BuildPrompt fills the template for ct.
func BuildPrompt(ct ContentType, data PromptData) (string, error) {
	tmpl, ok := templates[ct]
	if !ok {
		_, err := ParseContentType(string(ct))
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", ct, err)
	}
	return b.String(), nil
}
