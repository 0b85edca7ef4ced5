package tool_weathersearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/weather"
)

func TestWeatherSearch(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forecast" {
			w.Write([]byte(`{"properties":{"periods":[{"name":"Sunday","temperature":31,"temperatureUnit":"F","shortForecast":"Snow"}]}}`))
			return
		}
		fmt.Fprintf(w, `{"properties":{"forecast":"%s/forecast","relativeLocation":{"properties":{"city":"Orchard Park","state":"NY"}}}}`, server.URL)
	}))
	defer server.Close()

	tool, err := Tool(weather.NewClient(weather.Config{BaseURL: server.URL}))
	require.NoError(t, err)

	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool(tool))

	out, err := tb.Invoke(context.Background(), Name, map[string]any{"latitude": 42.7738, "longitude": -78.787})
	require.NoError(t, err)

	var fc weather.Forecast
	require.NoError(t, json.Unmarshal(out, &fc))
	assert.Equal(t, "Orchard Park", fc.City)
	require.Len(t, fc.Periods, 1)
	assert.Equal(t, "Snow", fc.Periods[0].ShortForecast)

	_, err = tb.Invoke(context.Background(), Name, map[string]any{"latitude": 142.0, "longitude": 0})
	assert.ErrorIs(t, err, agent.ErrInvalidParameters)

	_, err = tb.Invoke(context.Background(), Name, map[string]any{"city": "Buffalo"})
	assert.ErrorIs(t, err, agent.ErrInvalidParameters)
}
