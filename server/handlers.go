package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/history"
	"github.com/wxcomment/wxcomment-go/location"
	"github.com/wxcomment/wxcomment-go/workflow"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.locations.All())
}

type generateRequest struct {
	Location struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Prefecture string `json:"prefecture"`
		Region     string `json:"region"`
	} `json:"location"`
	LLMProvider     string  `json:"llmProvider" validate:"omitempty,oneof=openai gemini anthropic"`
	Temperature     float64 `json:"temperature" validate:"omitempty,min=0,max=2"`
	TargetDateTime  string  `json:"targetDateTime"`
	ExcludePrevious bool    `json:"excludePrevious"`
}

type weatherBlock struct {
	Current  forecast.WeatherForecast   `json:"current"`
	Forecast []forecast.WeatherForecast `json:"forecast"`
	Trend    string                     `json:"trend,omitempty"`
}

type timelineBlock struct {
	Summary         string                     `json:"summary"`
	PastForecasts   []forecast.WeatherForecast `json:"past_forecasts"`
	FutureForecasts []forecast.WeatherForecast `json:"future_forecasts"`
}

type responseMetadata struct {
	Temperature            float64            `json:"temperature"`
	WeatherCondition       string             `json:"weather_condition"`
	WindSpeed              float64            `json:"wind_speed"`
	Humidity               float64            `json:"humidity"`
	WeatherForecastTime    time.Time          `json:"weather_forecast_time"`
	WeatherTimeline        timelineBlock      `json:"weather_timeline"`
	SelectedWeatherComment string             `json:"selected_weather_comment"`
	SelectedAdviceComment  string             `json:"selected_advice_comment"`
	NodeExecutionTimes     map[string]float64 `json:"node_execution_times"`
	RetryCount             int                `json:"retry_count"`
	Forced                 bool               `json:"forced"`
	Fallback               string             `json:"fallback,omitempty"`
	SpatialBorrow          string             `json:"spatial_borrow,omitempty"`
	CacheTier              string             `json:"cache_tier,omitempty"`
}

type settingsBlock struct {
	LLMProvider    string  `json:"llmProvider"`
	Temperature    float64 `json:"temperature"`
	ValidationMode string  `json:"validationMode"`
	UseUnifiedPath bool    `json:"useUnifiedPath"`
}

type generateResponse struct {
	ID            string            `json:"id"`
	Success       bool              `json:"success"`
	Comment       string            `json:"comment"`
	AdviceComment string            `json:"adviceComment"`
	Weather       weatherBlock      `json:"weather"`
	Metadata      responseMetadata  `json:"metadata"`
	Timestamp     time.Time         `json:"timestamp"`
	Confidence    float64           `json:"confidence"`
	Location      location.Location `json:"location"`
	Settings      settingsBlock     `json:"settings"`
	Error         *apiError         `json:"error,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body", err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request field", err.Error())
		return
	}

	name := req.Location.Name
	if name == "" && req.Location.ID != "" {
		loc, err := s.locations.FindByID(req.Location.ID)
		if err != nil {
			s.writeError(w, http.StatusNotFound, "NOT_FOUND",
				fmt.Sprintf("location id %q", req.Location.ID), "")
			return
		}
		name = loc.Name
	}
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "location name or id required", "")
		return
	}

	wreq := workflow.Request{
		LocationName: name,
		Provider:     req.LLMProvider,
		Temperature:  req.Temperature,
	}
	if req.TargetDateTime != "" {
		target, err := time.Parse(time.RFC3339, req.TargetDateTime)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "targetDateTime must be RFC 3339", err.Error())
			return
		}
		wreq.TargetTime = target
	}
	if req.ExcludePrevious {
		wreq.ExcludePrevious = s.previousTexts(name)
	}

	res, err := s.gen.Generate(r.Context(), wreq)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "INTERNAL", "generation failed", err.Error())
		return
	}
	if res.Success {
		s.rememberTexts(name, res.ExcludableTexts()...)
	}
	if s.hist != nil {
		if err := s.hist.Append(r.Context(), history.FromResult(res)); err != nil {
			s.log.Warn("history append failed", zap.Error(err))
		}
	}

	// Generation failures are ordinary results: HTTP 200 with
	// success=false. Only infrastructure errors use non-2xx.
	s.writeJSON(w, http.StatusOK, s.buildGenerateResponse(res, req))
}

func (s *Server) buildGenerateResponse(res *workflow.Result, req generateRequest) generateResponse {
	out := generateResponse{
		ID:            res.RunID,
		Success:       res.Success,
		Comment:       res.Comment,
		AdviceComment: res.AdviceComment,
		Weather: weatherBlock{
			Current:  res.Forecast,
			Forecast: res.ForecastTail,
			Trend:    res.Trend,
		},
		Metadata: responseMetadata{
			Temperature:            res.Forecast.TemperatureC,
			WeatherCondition:       string(res.Forecast.Condition.Normalized()),
			WindSpeed:              res.Forecast.WindSpeedMPS,
			Humidity:               res.Forecast.HumidityPct,
			WeatherForecastTime:    res.Forecast.DateTime,
			WeatherTimeline:        buildTimeline(res),
			SelectedWeatherComment: res.Metadata.SelectedWeatherComment,
			SelectedAdviceComment:  res.Metadata.SelectedAdviceComment,
			NodeExecutionTimes:     res.Metadata.NodeExecutionTimes,
			RetryCount:             res.Metadata.RetryCount,
			Forced:                 res.Metadata.Forced,
			Fallback:               res.Metadata.Fallback,
			SpatialBorrow:          res.Metadata.SpatialBorrow,
			CacheTier:              res.Metadata.CacheTier,
		},
		Timestamp:  res.GeneratedAt,
		Confidence: res.Confidence,
		Location:   res.Location,
		Settings: settingsBlock{
			LLMProvider:    res.Provider,
			Temperature:    req.Temperature,
			ValidationMode: s.cfg.ValidationMode,
			UseUnifiedPath: s.cfg.UseUnifiedPath,
		},
	}
	if e := res.Error(); e != nil {
		out.Error = &apiError{Code: apiCodeFor(e.Code), Message: e.Message, Details: e.Node}
	}
	return out
}

func buildTimeline(res *workflow.Result) timelineBlock {
	tl := res.Timeline
	summary := string(tl.Target.Condition.Normalized())
	if res.Trend != "" {
		summary = fmt.Sprintf("%s, %s", summary, res.Trend)
	}
	return timelineBlock{
		Summary:         summary,
		PastForecasts:   tl.Past,
		FutureForecasts: tl.Future,
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "history is disabled", "")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", "")
			return
		}
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	}
	records, err := s.hist.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "INTERNAL", "history read failed", err.Error())
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

type weatherResponse struct {
	Location location.Location          `json:"location"`
	Current  forecast.WeatherForecast   `json:"current"`
	Forecast []forecast.WeatherForecast `json:"forecast"`
	Tier     string                     `json:"cache_tier"`
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["locationId"]
	loc, err := s.locations.FindByID(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("location id %q", id), "")
		return
	}

	target := s.now()
	res, err := s.weather.Get(r.Context(), loc, target)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "WEATHER_FETCH", "forecast fetch failed", err.Error())
		return
	}
	current, ok := res.Collection.At(target)
	if !ok {
		s.writeError(w, http.StatusBadGateway, "WEATHER_FETCH", "forecast collection is empty", "")
		return
	}
	s.writeJSON(w, http.StatusOK, weatherResponse{
		Location: loc,
		Current:  current,
		Forecast: res.Collection.Around(target, 12*time.Hour),
		Tier:     res.Tier,
	})
}
