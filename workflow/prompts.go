package workflow

import (
	"fmt"
	"strings"

	"github.com/wxcomment/wxcomment-go/corpus"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/llm"
)

// parseUnified extracts the four labeled lines of the unified reply.
type unifiedSelection struct {
	selectedWeather string
	selectedAdvice  string
	finalWeather    string
	finalAdvice     string
}

func parseUnified(raw string) (unifiedSelection, error) {
	var sel unifiedSelection
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
		lower := strings.ToLower(line)
		for _, p := range []struct {
			label string
			dst   *string
		}{
			{"selected_weather:", &sel.selectedWeather},
			{"selected_advice:", &sel.selectedAdvice},
			{"final_weather:", &sel.finalWeather},
			{"final_advice:", &sel.finalAdvice},
		} {
			if strings.HasPrefix(lower, p.label) {
				v := strings.TrimSpace(line[len(p.label):])
				v = strings.Trim(v, `"'`)
				v = strings.Trim(v, "「」")
				if v != "" {
					*p.dst = v
				}
			}
		}
	}
	if sel.selectedWeather == "" || sel.selectedAdvice == "" ||
		sel.finalWeather == "" || sel.finalAdvice == "" {
		return unifiedSelection{}, llm.ErrNoPair
	}
	return sel, nil
}

func forecastSummary(f forecast.WeatherForecast) string {
	return fmt.Sprintf("condition=%s temperature=%.1f°C humidity=%.0f%% precipitation=%.1fmm/h wind=%.1fm/s %s",
		f.Condition.Normalized(), f.TemperatureC, f.HumidityPct, f.PrecipitationMM, f.WindSpeedMPS, f.WindDirection)
}

func writeCandidateList(sb *strings.Builder, header string, list []corpus.PastComment) {
	sb.WriteString(header)
	sb.WriteString("\n")
	for i, c := range list {
		fmt.Fprintf(sb, "%d. %s\n", i+1, c.Text)
	}
	sb.WriteString("\n")
}

func writeSelectionRules(sb *strings.Builder) {
	sb.WriteString("Selection rules, in priority order:\n")
	sb.WriteString("1. Thunder in the forecast: pick phrases warning about thunder.\n")
	sb.WriteString("2. Snow: pick snow phrases.\n")
	sb.WriteString("3. Rain: pick rain phrases; the advice must mention umbrellas, rain gear, or caution.\n")
	sb.WriteString("4. Temperature 35°C or higher: pick heat-stroke caution phrases.\n")
	sb.WriteString("5. Otherwise pick the pair that best matches the forecast.\n")
	sb.WriteString("Pick phrases EXACTLY as written in the lists. Do not invent new phrases.\n\n")
}

func writeStyleRules(sb *strings.Builder) {
	sb.WriteString("Style constraints for the final lines:\n")
	sb.WriteString("- Each line must be 15 characters or fewer.\n")
	sb.WriteString("- Natural Japanese, no exclamation runs, no negative words.\n")
	sb.WriteString("- The two lines must not contradict each other or the forecast.\n\n")
}

// buildSelectionPrompt asks the model to choose one phrase per list.
func buildSelectionPrompt(st *GenerationState, weatherList, adviceList []corpus.PastComment) string {
	var sb strings.Builder
	sb.WriteString("You are selecting a weather comment pair for a Japanese weather service.\n\n")
	fmt.Fprintf(&sb, "Location: %s (%s)\nTarget: %s\nForecast: %s\n\n",
		st.Location.Name, st.Location.Prefecture,
		st.TargetTime.Format("2006-01-02 15:04 MST"),
		forecastSummary(st.ForecastAtTarget))
	writeCandidateList(&sb, "Weather comment candidates:", weatherList)
	writeCandidateList(&sb, "Advice candidates:", adviceList)
	writeSelectionRules(&sb)
	sb.WriteString("Answer with exactly two lines:\nweather: <chosen weather comment>\nadvice: <chosen advice>\n")
	return sb.String()
}

// buildAdaptationPrompt asks the model to re-phrase the validated pair
// for the target forecast.
func buildAdaptationPrompt(st *GenerationState) string {
	var sb strings.Builder
	sb.WriteString("Adapt this weather comment pair to today's forecast.\n\n")
	fmt.Fprintf(&sb, "Location: %s\nForecast: %s\n\n", st.Location.Name, forecastSummary(st.ForecastAtTarget))
	fmt.Fprintf(&sb, "Base weather comment: %s\nBase advice: %s\n\n",
		st.Selected.Weather.Text, st.Selected.Advice.Text)
	writeStyleRules(&sb)
	sb.WriteString("Answer with exactly two lines:\nweather: <final weather comment>\nadvice: <final advice>\n")
	return sb.String()
}

// buildUnifiedPrompt folds selection and adaptation into one call.
func buildUnifiedPrompt(st *GenerationState) string {
	var sb strings.Builder
	sb.WriteString("You are producing a weather comment pair for a Japanese weather service.\n")
	sb.WriteString("First choose the best candidate pair, then adapt the phrasing to the forecast.\n\n")
	fmt.Fprintf(&sb, "Location: %s (%s)\nTarget: %s\nForecast: %s\n\n",
		st.Location.Name, st.Location.Prefecture,
		st.TargetTime.Format("2006-01-02 15:04 MST"),
		forecastSummary(st.ForecastAtTarget))
	writeCandidateList(&sb, "Weather comment candidates:", st.WeatherCandidates)
	writeCandidateList(&sb, "Advice candidates:", st.AdviceCandidates)
	writeSelectionRules(&sb)
	writeStyleRules(&sb)
	sb.WriteString("Answer with exactly four lines:\n")
	sb.WriteString("selected_weather: <candidate picked verbatim>\n")
	sb.WriteString("selected_advice: <candidate picked verbatim>\n")
	sb.WriteString("final_weather: <adapted weather comment>\n")
	sb.WriteString("final_advice: <adapted advice>\n")
	return sb.String()
}
