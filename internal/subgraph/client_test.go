package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderFilledEventUnixTimestamp(t *testing.T) {
	assert.Equal(t, int64(1700000000), OrderFilledEvent{Timestamp: "1700000000"}.UnixTimestamp())
	assert.Equal(t, int64(0), OrderFilledEvent{Timestamp: "soon"}.UnixTimestamp())
	assert.Equal(t, int64(0), OrderFilledEvent{}.UnixTimestamp())
}

func TestMarketWinningOutcome(t *testing.T) {
	idx := 1
	m := Market{Outcomes: []string{"Yes", "No"}, Resolved: true, WinningOutcomeIndex: &idx}
	assert.Equal(t, "No", m.WinningOutcome())

	m.Resolved = false
	assert.Equal(t, "", m.WinningOutcome())

	m.Resolved = true
	m.WinningOutcomeIndex = nil
	assert.Equal(t, "", m.WinningOutcome())

	outOfRange := 5
	m.WinningOutcomeIndex = &outOfRange
	assert.Equal(t, "", m.WinningOutcome())
}

func TestMarketTimestampParsing(t *testing.T) {
	m := Market{CreatedAt: "1700000000", EndDate: "1700100000"}
	assert.Equal(t, int64(1700000000), m.CreatedAtUnix())
	assert.Equal(t, int64(1700100000), m.EndDateUnix())

	empty := Market{}
	assert.Equal(t, int64(0), empty.CreatedAtUnix())
	assert.Equal(t, int64(0), empty.EndDateUnix())
}

func TestOrderFilledEventsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Contains(t, req.Query, "orderFilledEvents")
		assert.Equal(t, "1500", req.Variables["startTimestamp"])
		assert.Equal(t, float64(100), req.Variables["limit"])

		w.Write([]byte(`{"data":{"orderFilledEvents":[
			{"id":"fill-1","timestamp":"1600","makerAmountFilled":"1","takerAmountFilled":"2"}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, zerolog.Nop())

	events, err := client.OrderFilledEvents(context.Background(), 1500, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "fill-1", events[0].ID)
	assert.Equal(t, int64(1600), events[0].UnixTimestamp())
}

func TestOrderFilledEventsGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"field does not exist"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, zerolog.Nop())

	_, err := client.OrderFilledEvents(context.Background(), 0, 10)
	require.Error(t, err)

	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Contains(t, gqlErr.Error(), "field does not exist")
	assert.False(t, IsTransient(err))
}

func TestMarketsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Contains(t, req.Query, "markets")
		assert.Equal(t, float64(1000), req.Variables["skip"])

		w.Write([]byte(`{"data":{"markets":[
			{"id":"m1","conditionId":"0xcond","resolved":true,"outcomes":["Yes","No"],
			 "winningOutcomeIndex":0,"tokenIds":["111","222"]}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, zerolog.Nop())

	markets, err := client.Markets(context.Background(), 1000, 1000)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "0xcond", markets[0].ConditionID)
	assert.Equal(t, "Yes", markets[0].WinningOutcome())
	assert.Equal(t, []string{"111", "222"}, markets[0].TokenIDs)
}
