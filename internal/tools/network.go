// ABOUTME: Tools backed by external HTTP data providers
// ABOUTME: Stock quotes from stooq CSV, weather from wttr.in, search from DuckDuckGo
package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 1 << 20

// maxSearchResults caps the snippets returned by web_search.
const maxSearchResults = 5

// fetch issues a GET with the request context and returns the limited body.
// Any non-2xx status or transport fault is an error the registry folds
// into an error payload.
func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "chatkit/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return body, nil
}

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// StockPrice fetches a delayed quote for a ticker symbol from a stooq-style
// CSV endpoint.
type StockPrice struct {
	BaseURL string
	Client  *http.Client
}

type stockArgs struct {
	Symbol string `json:"symbol"`
}

func (StockPrice) Name() string { return "get_stock_price" }

func (StockPrice) Description() string {
	return "Get the latest stock price for a ticker symbol (e.g. AAPL, MSFT)."
}

func (StockPrice) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol": map[string]any{
				"type":        "string",
				"description": "Ticker symbol to look up",
			},
		},
		"required": []string{"symbol"},
	}
}

func (t StockPrice) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var parsed stockArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid stock arguments: %w", err)
	}
	symbol := strings.ToLower(strings.TrimSpace(parsed.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	// stooq lists US equities under a .us suffix
	if !strings.Contains(symbol, ".") {
		symbol += ".us"
	}

	quoteURL := fmt.Sprintf("%s?s=%s&f=sd2t2ohlcv&h&e=csv", t.BaseURL, url.QueryEscape(symbol))
	body, err := fetch(ctx, defaultClient(t.Client), quoteURL)
	if err != nil {
		return nil, err
	}

	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing quote: %w", err)
	}
	if len(records) < 2 || len(records[1]) < 7 {
		return nil, fmt.Errorf("no quote data for %q", parsed.Symbol)
	}

	row := records[1]
	closePrice := row[6]
	if closePrice == "N/D" {
		return nil, fmt.Errorf("no quote data for %q", parsed.Symbol)
	}
	price, err := strconv.ParseFloat(closePrice, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing quote price %q: %w", closePrice, err)
	}

	return map[string]any{
		"symbol": strings.ToUpper(parsed.Symbol),
		"price":  price,
		"date":   row[1],
		"time":   row[2],
	}, nil
}

// Weather fetches current conditions for a city from a wttr.in-style
// JSON endpoint.
type Weather struct {
	BaseURL string
	Client  *http.Client
}

type weatherArgs struct {
	City string `json:"city"`
}

func (Weather) Name() string { return "get_weather" }

func (Weather) Description() string {
	return "Get current weather conditions for a city."
}

func (Weather) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{
				"type":        "string",
				"description": "City name to look up",
			},
		},
		"required": []string{"city"},
	}
}

type wttrResponse struct {
	CurrentCondition []struct {
		TempC       string `json:"temp_C"`
		FeelsLikeC  string `json:"FeelsLikeC"`
		Humidity    string `json:"humidity"`
		WindspeedK  string `json:"windspeedKmph"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

func (t Weather) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var parsed weatherArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid weather arguments: %w", err)
	}
	city := strings.TrimSpace(parsed.City)
	if city == "" {
		return nil, fmt.Errorf("city is required")
	}

	weatherURL := fmt.Sprintf("%s/%s?format=j1", t.BaseURL, url.PathEscape(city))
	body, err := fetch(ctx, defaultClient(t.Client), weatherURL)
	if err != nil {
		return nil, err
	}

	var decoded wttrResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("parsing weather response: %w", err)
	}
	if len(decoded.CurrentCondition) == 0 {
		return nil, fmt.Errorf("no weather data for %q", city)
	}

	current := decoded.CurrentCondition[0]
	description := ""
	if len(current.WeatherDesc) > 0 {
		description = current.WeatherDesc[0].Value
	}

	return map[string]any{
		"city":           city,
		"temperature_c":  current.TempC,
		"feels_like_c":   current.FeelsLikeC,
		"humidity":       current.Humidity,
		"windspeed_kmph": current.WindspeedK,
		"conditions":     description,
	}, nil
}

// WebSearch queries a DuckDuckGo-style instant answer endpoint and
// returns result snippets.
type WebSearch struct {
	BaseURL string
	Client  *http.Client
}

type searchArgs struct {
	Query string `json:"query"`
}

func (WebSearch) Name() string { return "web_search" }

func (WebSearch) Description() string {
	return "Search the web and return a short list of result snippets."
}

func (WebSearch) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query",
			},
		},
		"required": []string{"query"},
	}
}

type ddgResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (t WebSearch) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var parsed searchArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid search arguments: %w", err)
	}
	query := strings.TrimSpace(parsed.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	searchURL := fmt.Sprintf("%s/?q=%s&format=json&no_html=1", t.BaseURL, url.QueryEscape(query))
	body, err := fetch(ctx, defaultClient(t.Client), searchURL)
	if err != nil {
		return nil, err
	}

	var decoded ddgResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	type result struct {
		Snippet string `json:"snippet"`
		URL     string `json:"url,omitempty"`
	}
	var results []result
	if decoded.AbstractText != "" {
		results = append(results, result{Snippet: decoded.AbstractText, URL: decoded.AbstractURL})
	}
	for _, topic := range decoded.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		results = append(results, result{Snippet: topic.Text, URL: topic.FirstURL})
		if len(results) >= maxSearchResults {
			break
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for %q", query)
	}

	return map[string]any{
		"query":   query,
		"results": results,
	}, nil
}
