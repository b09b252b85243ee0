package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/wxcomment/wxcomment-go/config"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/location"
)

func baseInput() Input {
	return Input{
		Weather: "曇りがちな空",
		Advice:  "上着があると安心",
		Forecast: forecast.WeatherForecast{
			DateTime:     time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
			Condition:    forecast.Cloudy,
			TemperatureC: 20,
			HumidityPct:  60,
		},
		Location: location.Location{Name: "Tokyo", Prefecture: "東京都"},
		Target:   time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC),
	}
}

func strictPipeline() *Pipeline {
	return New(Strict, config.DefaultThresholds(), nil, nil)
}

func TestPipeline_AcceptsConsistentPair(t *testing.T) {
	res := strictPipeline().Validate(baseInput())
	if !res.OK {
		t.Fatalf("expected accept, got reasons %v", res.Reasons)
	}
	if res.Score != 1.0 {
		t.Errorf("full pass should score 1.0, got %f", res.Score)
	}
}

func TestPipeline_ShortCircuits(t *testing.T) {
	in := baseInput()
	in.Forecast.Condition = forecast.Rainy
	in.Weather = "快晴の空"
	in.Advice = "傘は不要" // would also fail later checks, but only one reason surfaces

	res := strictPipeline().Validate(in)
	if res.OK {
		t.Fatal("expected rejection")
	}
	if len(res.Reasons) != 1 {
		t.Errorf("short-circuit should yield exactly one reason, got %v", res.Reasons)
	}
	if res.Score >= 1.0 {
		t.Errorf("rejected candidate should score below 1.0, got %f", res.Score)
	}
}

func TestWeatherCondition_RainRequiresRainAdvice(t *testing.T) {
	in := baseInput()
	in.Forecast.Condition = forecast.Rainy
	in.Weather = "雨の一日"
	in.Advice = "素敵な一日を"

	ok, reason := (&WeatherConditionChecker{}).Check(in)
	if ok {
		t.Fatal("rain advice without rain guidance should fail")
	}
	if !strings.Contains(reason, "rain guidance") {
		t.Errorf("unexpected reason %q", reason)
	}

	in.Advice = "傘をお忘れなく"
	if ok, _ := (&WeatherConditionChecker{}).Check(in); !ok {
		t.Error("umbrella advice should satisfy the rain requirement")
	}
}

func TestWeatherCondition_ThinCloudTreatedAsCloudy(t *testing.T) {
	in := baseInput()
	in.Forecast.Condition = forecast.ThinCloud
	in.Weather = "青空が広がる"
	in.Advice = "洗濯物を外に"

	ok, _ := (&WeatherConditionChecker{}).Check(in)
	if ok {
		t.Error("thin cloud must reject blue-sky phrasing like plain cloudy")
	}

	// Clear-only forbidden words must NOT fire under thin cloud.
	in.Weather = "どんよりした空"
	in.Advice = "落ち着いた一日を"
	if ok, reason := (&WeatherConditionChecker{}).Check(in); !ok {
		t.Errorf("thin cloud should not apply clear rules: %s", reason)
	}
}

func TestWeatherCondition_StableCloudy(t *testing.T) {
	in := baseInput()
	in.Weather = "急変しやすい空"
	in.Advice = "空模様に注意"

	if ok, _ := (&WeatherConditionChecker{}).Check(in); !ok {
		t.Error("unstable phrasing is fine when the forecast is not stable")
	}
	in.Stable = true
	if ok, _ := (&WeatherConditionChecker{}).Check(in); ok {
		t.Error("stable cloudy forecast should reject sudden-change phrasing")
	}
}

func TestTemperature_HeatstrokeBoundaries(t *testing.T) {
	th := config.DefaultThresholds()
	checker := &TemperatureConditionChecker{Thresholds: th}

	// Exactly 34.0: warning-toned advice must name heat stroke.
	in := baseInput()
	in.Forecast.TemperatureC = 34.0
	in.Advice = "暑さに注意"
	if ok, _ := checker.Check(in); ok {
		t.Error("34.0°C warning advice without heat-stroke vocabulary should fail")
	}
	in.Advice = "熱中症に注意"
	if ok, reason := checker.Check(in); !ok {
		t.Errorf("34.0°C heat-stroke advice should pass: %s", reason)
	}
	// Non-warning advice needs nothing at 34.0.
	in.Advice = "半袖で大丈夫"
	if ok, reason := checker.Check(in); !ok {
		t.Errorf("34.0°C without warning tone should pass: %s", reason)
	}

	// Exactly 35.0: any warning phrasing requires the vocabulary.
	in = baseInput()
	in.Forecast.TemperatureC = 35.0
	in.Weather = "危険な暑さに警戒"
	in.Advice = "水分補給を忘れずに"
	if ok, reason := checker.Check(in); !ok {
		t.Errorf("35.0°C with hydration vocabulary should pass: %s", reason)
	}
	in.Advice = "外出は控えめに"
	in.Weather = "厳しい暑さに警戒"
	if ok, _ := checker.Check(in); ok {
		t.Error("35.0°C warning without heat-stroke vocabulary should fail")
	}
}

func TestTemperature_ContradictionBands(t *testing.T) {
	th := config.DefaultThresholds()
	checker := &TemperatureConditionChecker{Thresholds: th}

	tests := []struct {
		name   string
		temp   float64
		text   string
		wantOK bool
	}{
		{"hot day cold phrase", 31, "肌寒い一日", false},
		{"cold day hot phrase", 8, "蒸し暑い夜", false},
		{"mild day extreme phrase", 20, "猛暑の空", false},
		{"hot day hot phrase", 31, "厳しい暑さ", true},
		{"cold day cold phrase", 8, "冷え込む朝", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Forecast.TemperatureC = tt.temp
			in.Weather = tt.text
			if ok, _ := checker.Check(in); ok != tt.wantOK {
				t.Errorf("Check() ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestHumidityChecker(t *testing.T) {
	th := config.DefaultThresholds()
	checker := &HumidityChecker{Thresholds: th}

	in := baseInput()
	in.Forecast.HumidityPct = 85
	in.Advice = "乾燥対策を忘れずに"
	if ok, _ := checker.Check(in); ok {
		t.Error("85% humidity should reject dry-air advice")
	}

	in.Forecast.HumidityPct = 20
	in.Advice = "除湿を心がけて"
	if ok, _ := checker.Check(in); ok {
		t.Error("20% humidity should reject dehumidify advice")
	}

	in.Advice = "加湿を心がけて"
	if ok, _ := checker.Check(in); !ok {
		t.Error("humidify advice at low humidity should pass")
	}
}

func TestRegional_OkinawaSnowRejected(t *testing.T) {
	in := baseInput()
	in.Location = location.Location{Name: "Naha", Prefecture: "沖縄県"}
	in.Weather = "雪がちらつく"
	in.Advice = "足元に注意"

	ok, reason := (&RegionalChecker{}).Check(in)
	if ok {
		t.Fatal("Okinawa snow phrasing must be rejected")
	}
	if !strings.Contains(reason, "Okinawa") {
		t.Errorf("unexpected reason %q", reason)
	}

	// English prefecture spelling also matches.
	in.Location.Prefecture = "Okinawa"
	in.Weather = "chance of snow"
	if ok, _ := (&RegionalChecker{}).Check(in); ok {
		t.Error("English snow phrasing in Okinawa must be rejected")
	}
}

func TestRegional_HokkaidoTropicalRejected(t *testing.T) {
	in := baseInput()
	in.Location = location.Location{Name: "Sapporo", Prefecture: "北海道"}
	in.Weather = "熱帯夜が続く"
	in.Advice = "寝苦しい夜に"
	in.Target = time.Date(2024, 8, 2, 21, 0, 0, 0, time.UTC)

	if ok, _ := (&RegionalChecker{}).Check(in); ok {
		t.Error("Hokkaido tropical-night phrasing must be rejected")
	}
}

func TestSeasonal_PollenRules(t *testing.T) {
	checker := &SeasonalChecker{}

	in := baseInput()
	in.Advice = "花粉対策を"
	in.Target = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	if ok, reason := checker.Check(in); !ok {
		t.Errorf("March pollen advice should pass: %s", reason)
	}

	in.Target = time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)
	if ok, _ := checker.Check(in); ok {
		t.Error("July pollen advice should fail")
	}

	in.Target = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	if ok, _ := checker.Check(in); ok {
		t.Error("January pollen advice should fail")
	}

	// Rain forbids pollen even inside the season.
	in.Target = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	in.Forecast.Condition = forecast.Rainy
	if ok, _ := checker.Check(in); ok {
		t.Error("rainy-day pollen advice should fail in any month")
	}
}

func TestConsistencyChecker(t *testing.T) {
	th := config.DefaultThresholds()
	checker := &ConsistencyChecker{Thresholds: th}

	tests := []struct {
		name    string
		weather string
		advice  string
		hour    int
		wantOK  bool
	}{
		{"sunny weather with umbrella advice", "晴れの一日", "傘をお忘れなく", 14, false},
		{"cold weather with heatstroke advice", "肌寒い朝", "熱中症に注意", 9, false},
		{"hot weather with winter advice", "蒸し暑い一日", "防寒対策を", 14, false},
		{"warning vs relax tone", "荒れた空に警戒", "のんびり過ごして", 14, false},
		{"umbrella in both lines", "傘の出番", "傘をお忘れなく", 14, false},
		{"night phrase on morning target", "熱帯夜の続き", "水分補給を", 9, false},
		{"morning phrase on evening target", "朝晩は冷える", "上着を一枚", 20, false},
		{"coherent pair", "雨が続く空", "足元に注意", 14, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Weather = tt.weather
			in.Advice = tt.advice
			in.Target = time.Date(2024, 6, 10, tt.hour, 0, 0, 0, time.UTC)
			if ok, reason := checker.Check(in); ok != tt.wantOK {
				t.Errorf("Check() ok = %v (reason %q), want %v", ok, reason, tt.wantOK)
			}
		})
	}
}

func TestLengthAndBannedWord(t *testing.T) {
	checker := &LengthAndBannedWordChecker{}

	in := baseInput()
	in.Weather = strings.Repeat("あ", 16)
	if ok, _ := checker.Check(in); ok {
		t.Error("16-character line should fail")
	}
	in.Weather = strings.Repeat("あ", 15)
	if ok, reason := checker.Check(in); !ok {
		t.Errorf("15-character line should pass: %s", reason)
	}

	in = baseInput()
	in.Advice = "最悪の天気"
	if ok, _ := checker.Check(in); ok {
		t.Error("NG word should fail")
	}

	in = baseInput()
	in.Weather = "  "
	if ok, _ := checker.Check(in); ok {
		t.Error("blank line should fail")
	}
}

func TestLengthAndBannedWord_StylisticRulesOnlyInStrict(t *testing.T) {
	in := baseInput()
	in.Weather = "絶望的な空"
	in.Advice = "無理せずに"

	strict := &LengthAndBannedWordChecker{StylisticRules: true}
	if ok, _ := strict.Check(in); ok {
		t.Error("stylistic ban should fire with StylisticRules on")
	}
	moderate := &LengthAndBannedWordChecker{}
	if ok, reason := moderate.Check(in); !ok {
		t.Errorf("stylistic ban should not fire without StylisticRules: %s", reason)
	}
}

func TestModes_CheckerSets(t *testing.T) {
	th := config.DefaultThresholds()

	// A pair violating the humidity rule passes in relaxed mode, which
	// keeps only the condition core and the NG screen.
	in := baseInput()
	in.Forecast.HumidityPct = 90
	in.Advice = "乾燥対策を"

	if res := New(Strict, th, nil, nil).Validate(in); res.OK {
		t.Error("strict mode should reject a humidity contradiction")
	}
	if res := New(Relaxed, th, nil, nil).Validate(in); !res.OK {
		t.Errorf("relaxed mode should not run the humidity checker: %v", res.Reasons)
	}

	// NG words fail in every mode.
	in = baseInput()
	in.Advice = "最悪な一日"
	for _, mode := range []Mode{Strict, Moderate, Relaxed} {
		if res := New(mode, th, nil, nil).Validate(in); res.OK {
			t.Errorf("%s mode should reject NG words", mode)
		}
	}
}
