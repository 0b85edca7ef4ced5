package tool_weathersearch

import (
	"context"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
	"github.com/loxresearch/genie/src/weather"
)

// Tool name constant
const Name = "weather_search"

const weatherSearchPrompt = `Get the upcoming weather forecast for a location in the United States.

WHEN TO USE THIS TOOL:
- Game-day conditions for an outdoor stadium (wind, rain, snow, cold)
- Deciding between players whose games may be affected by weather

HOW TO USE:
- Provide the stadium or city latitude and longitude in decimal degrees,
  e.g. Soldier Field is latitude 41.8623, longitude -87.6167.`

// WeatherSearchInput represents the parameters for weather_search
type WeatherSearchInput struct {
	Latitude  float64 `json:"latitude" required:"true" minimum:"-90" maximum:"90" description:"Latitude in decimal degrees"`
	Longitude float64 `json:"longitude" required:"true" minimum:"-180" maximum:"180" description:"Longitude in decimal degrees"`
}

// Tool returns the weather_search tool bound to client.
func Tool(client *weather.Client) (agent.Tool, error) {
	return agent.NewGenericTool(Name, weatherSearchPrompt, func(ctx context.Context, input WeatherSearchInput) (*weather.Forecast, error) {
		fc, err := client.Forecast(ctx, input.Latitude, input.Longitude)
		if err != nil {
			return nil, err
		}
		toolsutil.GetLogger().Info("fetched forecast", "city", fc.City, "periods", len(fc.Periods))
		return fc, nil
	})
}
