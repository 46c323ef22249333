// Package subgraph provides clients for the Goldsky-hosted Polymarket
// subgraphs: the orderbook subgraph (order fill events) and the
// positions subgraph (markets and resolution state).
package subgraph

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// OrderFilledEvent is a raw fill event as returned by the orderbook
// subgraph. BigInt fields arrive as decimal strings.
type OrderFilledEvent struct {
	ID                string `json:"id"`
	TransactionHash   string `json:"transactionHash"`
	Timestamp         string `json:"timestamp"`
	Maker             string `json:"maker"`
	Taker             string `json:"taker"`
	MakerAssetID      string `json:"makerAssetId"`
	TakerAssetID      string `json:"takerAssetId"`
	MakerAmountFilled string `json:"makerAmountFilled"`
	TakerAmountFilled string `json:"takerAmountFilled"`
	Fee               string `json:"fee"`
}

// UnixTimestamp parses the event timestamp, returning 0 when malformed.
func (e OrderFilledEvent) UnixTimestamp() int64 {
	ts, err := strconv.ParseInt(e.Timestamp, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// Market is a market row from the positions subgraph.
type Market struct {
	ID                  string   `json:"id"`
	ConditionID         string   `json:"conditionId"`
	Question            string   `json:"question"`
	Outcomes            []string `json:"outcomes"`
	CreatedAt           string   `json:"createdAt"`
	EndDate             string   `json:"endDate"`
	Resolved            bool     `json:"resolved"`
	WinningOutcomeIndex *int     `json:"winningOutcomeIndex"`
	TokenIDs            []string `json:"tokenIds"`
}

// CreatedAtUnix parses the market creation timestamp, 0 when malformed.
func (m Market) CreatedAtUnix() int64 {
	ts, err := strconv.ParseInt(m.CreatedAt, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// EndDateUnix parses the market end timestamp, 0 when absent.
func (m Market) EndDateUnix() int64 {
	ts, err := strconv.ParseInt(m.EndDate, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// WinningOutcome returns the winning outcome label for a resolved
// market, or "" when the market is unresolved or the index is out of
// range.
func (m Market) WinningOutcome() string {
	if !m.Resolved || m.WinningOutcomeIndex == nil {
		return ""
	}
	if *m.WinningOutcomeIndex < 0 || *m.WinningOutcomeIndex >= len(m.Outcomes) {
		return ""
	}
	return m.Outcomes[*m.WinningOutcomeIndex]
}

// GraphQLError represents an error reported by the subgraph itself
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("graphql errors: %s", strings.Join(e.Messages, "; "))
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

const orderFilledEventsQuery = `
query GetOrderFilledEvents($startTimestamp: BigInt!, $limit: Int!) {
    orderFilledEvents(
        where: { timestamp_gte: $startTimestamp }
        orderBy: timestamp
        orderDirection: asc
        first: $limit
    ) {
        id
        transactionHash
        timestamp
        maker
        taker
        makerAssetId
        takerAssetId
        makerAmountFilled
        takerAmountFilled
        fee
    }
}`

const marketsQuery = `
query GetMarkets($skip: Int!, $limit: Int!) {
    markets(
        first: $limit
        skip: $skip
        orderBy: createdAt
        orderDirection: desc
    ) {
        id
        conditionId
        question
        outcomes
        createdAt
        endDate
        resolved
        winningOutcomeIndex
        tokenIds
    }
}`

// Client queries the Polymarket subgraph endpoints
type Client struct {
	httpClient        *HTTPClient
	orderbookEndpoint string
	positionsEndpoint string
	logger            zerolog.Logger
}

// NewClient creates a new subgraph client
func NewClient(orderbookEndpoint, positionsEndpoint string, logger zerolog.Logger, options ...HTTPClientOption) *Client {
	return &Client{
		httpClient:        NewHTTPClient(options...),
		orderbookEndpoint: orderbookEndpoint,
		positionsEndpoint: positionsEndpoint,
		logger:            logger.With().Str("component", "subgraph").Logger(),
	}
}

// OrderFilledEvents returns up to limit fill events with
// timestamp >= startTimestamp, ordered ascending by timestamp. The
// subgraph guarantees a stable ordering for the same startTimestamp,
// which the synchronizer relies on for safe resumption.
func (c *Client) OrderFilledEvents(ctx context.Context, startTimestamp int64, limit int) ([]OrderFilledEvent, error) {
	req := gqlRequest{
		Query: orderFilledEventsQuery,
		Variables: map[string]interface{}{
			"startTimestamp": strconv.FormatInt(startTimestamp, 10),
			"limit":          limit,
		},
	}

	var resp struct {
		Data struct {
			OrderFilledEvents []OrderFilledEvent `json:"orderFilledEvents"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	if err := c.httpClient.Post(ctx, c.orderbookEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch order filled events: %w", err)
	}

	if len(resp.Errors) > 0 {
		return nil, gqlErrorFrom(resp.Errors)
	}

	c.logger.Debug().
		Int64("start_timestamp", startTimestamp).
		Int("events", len(resp.Data.OrderFilledEvents)).
		Msg("Fetched order filled events")

	return resp.Data.OrderFilledEvents, nil
}

// Markets returns a page of markets from the positions subgraph
func (c *Client) Markets(ctx context.Context, skip, limit int) ([]Market, error) {
	req := gqlRequest{
		Query: marketsQuery,
		Variables: map[string]interface{}{
			"skip":  skip,
			"limit": limit,
		},
	}

	var resp struct {
		Data struct {
			Markets []Market `json:"markets"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	if err := c.httpClient.Post(ctx, c.positionsEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}

	if len(resp.Errors) > 0 {
		return nil, gqlErrorFrom(resp.Errors)
	}

	c.logger.Debug().
		Int("skip", skip).
		Int("markets", len(resp.Data.Markets)).
		Msg("Fetched markets")

	return resp.Data.Markets, nil
}

func gqlErrorFrom(errs []struct {
	Message string `json:"message"`
}) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	return &GraphQLError{Messages: messages}
}
