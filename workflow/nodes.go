package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/corpus"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/llm"
	"github.com/wxcomment/wxcomment-go/validator"
)

var jst = time.FixedZone("JST", 9*60*60)

// inputNode validates the request and fills the derived fields. A
// missing target defaults to tomorrow morning in JST.
func (g *Generator) inputNode(ctx context.Context, st *GenerationState) NodeResult {
	loc, err := g.locations.Find(st.LocationName)
	if err != nil {
		return NodeResult{Err: nodeErr(CodeLocationNotFound, fmt.Errorf("location %q: %w", st.LocationName, err))}
	}
	st.Location = loc

	if st.ProviderName == "" {
		st.ProviderName = g.cfg.DefaultLLMProvider
	}
	if g.client(st.ProviderName) == nil {
		return NodeResult{Err: nodeErr(CodeLLMError, fmt.Errorf("provider %q not configured", st.ProviderName))}
	}

	if st.TargetTime.IsZero() {
		tomorrow := g.now().In(jst).AddDate(0, 0, 1)
		st.TargetTime = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, jst)
	}
	st.Season = corpus.SeasonOf(st.TargetTime)
	return NodeResult{}
}

// fetchForecastNode pulls the collection through the cache tiers and
// pins the target sample.
func (g *Generator) fetchForecastNode(ctx context.Context, st *GenerationState) NodeResult {
	res, err := g.forecasts.Get(ctx, st.Location, st.TargetTime)
	if err != nil {
		return NodeResult{Err: nodeErr(CodeWeatherFetchError, err)}
	}
	at, ok := res.Collection.At(st.TargetTime)
	if !ok {
		return NodeResult{Err: nodeErr(CodeWeatherFetchError, errors.New("forecast collection is empty"))}
	}
	st.Forecast = res.Collection
	st.ForecastAtTarget = at
	st.ForecastTier = res.Tier
	st.Metadata.CacheTier = res.Tier
	if res.SpatialBorrowFrom != "" {
		if src, err := g.locations.FindByID(res.SpatialBorrowFrom); err == nil {
			st.Metadata.SpatialBorrow = src.Name
		} else {
			st.Metadata.SpatialBorrow = res.SpatialBorrowFrom
		}
	}
	if tl, ok := res.Collection.Timeline(st.TargetTime); ok {
		st.Timeline = tl
	}
	return NodeResult{}
}

// retrieveCorpusNode loads the season's candidate lists, dropping
// texts already tried in earlier retries.
func (g *Generator) retrieveCorpusNode(ctx context.Context, st *GenerationState) NodeResult {
	weather, err := g.corpus.GetBySeasonAndType(st.Season, corpus.TypeWeather)
	if err != nil {
		return NodeResult{Err: nodeErr(CodeCorpusNotFound, err)}
	}
	advice, err := g.corpus.GetBySeasonAndType(st.Season, corpus.TypeAdvice)
	if err != nil {
		return NodeResult{Err: nodeErr(CodeCorpusNotFound, err)}
	}
	st.WeatherCandidates = g.filterCandidates(weather, st)
	st.AdviceCandidates = g.filterCandidates(advice, st)
	return NodeResult{}
}

func (g *Generator) filterCandidates(list []corpus.PastComment, st *GenerationState) []corpus.PastComment {
	out := make([]corpus.PastComment, 0, len(list))
	for _, c := range list {
		if st.excluded(c.Text) {
			continue
		}
		out = append(out, c)
		if len(out) >= maxCandidates {
			break
		}
	}
	return out
}

// selectPairNode asks the model to pick one phrase from each list. An
// unparseable reply falls back to the top-ranked candidates.
func (g *Generator) selectPairNode(ctx context.Context, st *GenerationState) NodeResult {
	// Re-filter on every visit: retries grow the exclusion set.
	weatherList := g.filterCandidates(st.WeatherCandidates, st)
	adviceList := g.filterCandidates(st.AdviceCandidates, st)
	if len(weatherList) == 0 || len(adviceList) == 0 {
		return NodeResult{Err: nodeErr(CodeCorpusNotFound,
			fmt.Errorf("no candidates for season %s after exclusions", st.Season))}
	}

	client := g.client(st.ProviderName)
	if client == nil {
		// No provider: degrade to the top-ranked pair.
		st.Selected = corpus.CommentPair{Weather: weatherList[0], Advice: adviceList[0]}
		st.Metadata.Fallback = "selection"
		st.PreviousCandidates = append(st.PreviousCandidates, st.Selected.Weather.Text)
		return NodeResult{}
	}

	raw, err := client.Generate(ctx, buildSelectionPrompt(st, weatherList, adviceList), g.llmOptions(st))
	if err != nil {
		return NodeResult{Err: nodeErr(CodeLLMError, err)}
	}

	weatherText, adviceText, perr := llm.ParsePair(raw)
	var pair corpus.CommentPair
	// A pick the model repeats from an earlier retry counts as
	// unparseable: the exclusion set must hold.
	if perr == nil && !st.excluded(weatherText) {
		pair = corpus.CommentPair{
			Weather: matchCandidate(weatherList, weatherText, corpus.TypeWeather, st.Season),
			Advice:  matchCandidate(adviceList, adviceText, corpus.TypeAdvice, st.Season),
		}
	} else {
		pair = corpus.CommentPair{Weather: weatherList[0], Advice: adviceList[0]}
		st.Metadata.Fallback = "selection"
		g.log.Warn("selection reply unusable, using top candidates",
			zap.String("provider", st.ProviderName), zap.Error(perr))
	}
	st.Selected = pair
	st.PreviousCandidates = append(st.PreviousCandidates, pair.Weather.Text)
	return NodeResult{}
}

// matchCandidate resolves model output back to a corpus entry,
// synthesizing one when the model paraphrased.
func matchCandidate(list []corpus.PastComment, text string, typ corpus.CommentType, season corpus.Season) corpus.PastComment {
	for _, c := range list {
		if c.Text == text {
			return c
		}
	}
	return corpus.PastComment{Text: text, Type: typ, Season: season}
}

// evaluateNode runs the validator over the current candidate and
// routes: retry on rejection while budget remains, otherwise forward,
// forcing the pair through after exhaustion.
func (g *Generator) evaluateNode(ctx context.Context, st *GenerationState) NodeResult {
	st.Validation = g.pipeline.Validate(validator.Input{
		Weather:  st.Selected.Weather.Text,
		Advice:   st.Selected.Advice.Text,
		Forecast: st.ForecastAtTarget,
		Location: st.Location,
		Target:   st.TargetTime,
		Stable:   stableTimeline(st.Timeline, g.cfg.Thresholds.WeatherChange),
	})
	if st.Validation.OK {
		return NodeResult{Route: Goto(NodeGenerate)}
	}
	if st.RetryCount < g.cfg.MaxEvaluationRetries {
		st.RetryCount++
		st.excludeCandidate()
		g.log.Debug("candidate rejected, retrying selection",
			zap.Int("retry", st.RetryCount),
			zap.Strings("reasons", st.Validation.Reasons))
		return NodeResult{Route: Goto(NodeSelectPair)}
	}
	st.Metadata.Forced = true
	g.log.Warn("validation retries exhausted, forcing last candidate",
		zap.Strings("reasons", st.Validation.Reasons))
	return NodeResult{Route: Goto(NodeGenerate)}
}

// generateNode adapts the selected pair into final phrasing. The
// emitted text must clear the validator again; otherwise the verified
// candidate text ships as-is.
func (g *Generator) generateNode(ctx context.Context, st *GenerationState) NodeResult {
	st.Metadata.SelectedWeatherComment = st.Selected.Weather.Text
	st.Metadata.SelectedAdviceComment = st.Selected.Advice.Text

	client := g.client(st.ProviderName)
	if client == nil {
		st.FinalWeather = st.Selected.Weather.Text
		st.FinalAdvice = st.Selected.Advice.Text
		return NodeResult{Route: Goto(NodeOutput)}
	}

	raw, err := client.Generate(ctx, buildAdaptationPrompt(st), g.llmOptions(st))
	if err != nil {
		return NodeResult{Err: nodeErr(CodeLLMError, err)}
	}

	weatherText, adviceText, perr := llm.ParsePair(raw)
	if perr == nil && g.revalidate(st, weatherText, adviceText) {
		st.FinalWeather = weatherText
		st.FinalAdvice = adviceText
	} else {
		st.FinalWeather = st.Selected.Weather.Text
		st.FinalAdvice = st.Selected.Advice.Text
		st.Metadata.Fallback = "generation"
		g.log.Debug("adapted phrasing rejected, reverting to candidate",
			zap.String("weather", weatherText), zap.String("advice", adviceText))
	}
	return NodeResult{Route: Goto(NodeOutput)}
}

func (g *Generator) revalidate(st *GenerationState, weather, advice string) bool {
	res := g.pipeline.Validate(validator.Input{
		Weather:  weather,
		Advice:   advice,
		Forecast: st.ForecastAtTarget,
		Location: st.Location,
		Target:   st.TargetTime,
		Stable:   stableTimeline(st.Timeline, g.cfg.Thresholds.WeatherChange),
	})
	return res.OK
}

// unifiedNode issues one compound prompt covering selection and
// adaptation. Any failure falls back to the classic path exactly once.
func (g *Generator) unifiedNode(ctx context.Context, st *GenerationState) NodeResult {
	fallback := func(reason string, err error) NodeResult {
		st.UnifiedFallback = true
		st.Metadata.Fallback = "classic"
		g.log.Warn("unified path failed, falling back to classic",
			zap.String("reason", reason), zap.Error(err))
		return NodeResult{Route: Goto(NodeSelectPair)}
	}

	if len(st.WeatherCandidates) == 0 || len(st.AdviceCandidates) == 0 {
		return NodeResult{Err: nodeErr(CodeCorpusNotFound,
			fmt.Errorf("no candidates for season %s", st.Season))}
	}
	client := g.client(st.ProviderName)
	if client == nil {
		return fallback("provider not configured", nil)
	}

	raw, err := client.Generate(ctx, buildUnifiedPrompt(st), g.llmOptions(st))
	if err != nil {
		return fallback("llm call failed", err)
	}
	sel, perr := parseUnified(raw)
	if perr != nil {
		return fallback("reply unparseable", perr)
	}

	if !g.revalidate(st, sel.finalWeather, sel.finalAdvice) {
		return fallback("adapted pair rejected", nil)
	}

	st.Selected = corpus.CommentPair{
		Weather: matchCandidate(st.WeatherCandidates, sel.selectedWeather, corpus.TypeWeather, st.Season),
		Advice:  matchCandidate(st.AdviceCandidates, sel.selectedAdvice, corpus.TypeAdvice, st.Season),
	}
	st.PreviousCandidates = append(st.PreviousCandidates, sel.selectedWeather)
	st.FinalWeather = sel.finalWeather
	st.FinalAdvice = sel.finalAdvice
	st.Validation = validator.Result{OK: true, Score: 1.0}
	st.Metadata.SelectedWeatherComment = sel.selectedWeather
	st.Metadata.SelectedAdviceComment = sel.selectedAdvice
	return NodeResult{Route: Goto(NodeOutput)}
}

// outputNode serializes the run. It always executes, including after
// node failures, so every run yields a result.
func (g *Generator) outputNode(ctx context.Context, st *GenerationState) NodeResult {
	st.Success = len(st.Errors) == 0
	st.Result = g.buildResult("", st)
	return NodeResult{Route: Stop()}
}

func (g *Generator) buildResult(runID string, st *GenerationState) *Result {
	var tail []forecast.WeatherForecast
	if st.Forecast.Len() > 0 {
		tail = st.Forecast.Around(st.TargetTime, 12*time.Hour)
	}
	return &Result{
		RunID:         runID,
		Success:       st.Success,
		Comment:       st.FinalWeather,
		AdviceComment: st.FinalAdvice,
		Forecast:      st.ForecastAtTarget,
		ForecastTail:  tail,
		Timeline:      st.Timeline,
		Trend:         trend(st.Timeline),
		Location:      st.Location,
		Provider:      st.ProviderName,
		Confidence:    st.Confidence(),
		Metadata:      st.Metadata,
		Errors:        st.Errors,
		GeneratedAt:   g.now().UTC(),
	}
}

func (g *Generator) llmOptions(st *GenerationState) llm.Options {
	return llm.Options{
		Temperature: st.Temperature,
		Performance: g.cfg.LLMPerformanceMode,
		Timeout:     g.cfg.CommentTimeout,
	}
}

// stableTimeline reports whether the sky around the target holds
// steady: every sample shares the target's normalized condition and no
// adjacent pair jumps in cloud coverage by changePct or more. A
// changePct of zero disables the cloud-cover check.
func stableTimeline(tl forecast.Timeline, changePct float64) bool {
	want := tl.Target.Condition.Normalized()
	if want == "" {
		return false
	}
	ordered := make([]forecast.WeatherForecast, 0, len(tl.Past)+1+len(tl.Future))
	ordered = append(ordered, tl.Past...)
	ordered = append(ordered, tl.Target)
	ordered = append(ordered, tl.Future...)
	for i, s := range ordered {
		if s.Condition.Normalized() != want {
			return false
		}
		if i > 0 && changePct > 0 &&
			math.Abs(s.CloudCoverPct-ordered[i-1].CloudCoverPct) >= changePct {
			return false
		}
	}
	return true
}

// trend summarizes where the sky is heading after the target hour.
func trend(tl forecast.Timeline) string {
	if len(tl.Future) == 0 {
		return ""
	}
	nowWet := tl.Target.Condition.IsPrecipitating()
	laterWet := tl.Future[len(tl.Future)-1].Condition.IsPrecipitating()
	switch {
	case !nowWet && laterWet:
		return "worsening"
	case nowWet && !laterWet:
		return "improving"
	default:
		return "stable"
	}
}
