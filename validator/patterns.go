package validator

import "strings"

// Pattern tables. Comments arrive in Japanese from the production
// corpus and occasionally in English from test fixtures, so every
// table carries both vocabularies.

var (
	// Phrases that contradict an actively raining forecast.
	rainForbidden = []string{
		"青空", "快晴", "日差しが気持ちいい", "お出かけ日和", "散歩日和",
		"clear sky", "sunny", "pleasant outdoors", "great for a walk",
	}

	// Extra phrases forbidden under heavy rain.
	heavyRainForbidden = []string{
		"小雨", "変わりやすい空", "light rain", "changing sky",
	}

	// Rain advice must carry at least one of these.
	rainAdviceRequired = []string{
		"傘", "雨具", "警戒", "注意", "室内", "屋内",
		"umbrella", "rain gear", "caution", "indoors",
	}

	// Phrases that contradict a clear forecast.
	clearForbidden = []string{
		"雨", "じめじめ", "どんより", "傘が必要",
		"rainy", "damp", "gloomy", "umbrella required",
	}

	// Phrases that contradict a cloudy forecast. Thin cloud counts as
	// cloudy, never as clear.
	cloudyForbidden = []string{
		"青空", "眩しい", "洗濯日和",
		"blue sky", "dazzling", "laundry day",
	}

	// Extra phrases forbidden when the cloudy forecast is stable.
	stableCloudyForbidden = []string{
		"急変", "不安定な空", "sudden change", "unstable sky",
	}

	coldVocab = []string{"寒い", "肌寒い", "冷え込", "cold", "chilly"}
	hotVocab  = []string{"暑い", "蒸し暑", "hot", "sweltering"}

	extremeVocab = []string{"極寒", "酷暑", "猛暑", "extreme cold", "scorching"}

	heatstrokeVocab = []string{
		"熱中症", "水分補給", "暑さ対策", "heat stroke", "heatstroke", "hydration",
	}

	warningVocab = []string{
		"注意", "警戒", "気をつけ", "caution", "warning", "careful", "beware",
	}

	dryAirVocab  = []string{"乾燥注意", "乾燥対策", "空気が乾燥", "dry air"}
	humidVocab   = []string{"除湿", "じめじめ", "muggy", "dehumidify"}
	snowVocab    = []string{"雪", "凍結", "吹雪", "snow", "freezing", "blizzard"}
	tropicVocab  = []string{"猛暑", "熱帯夜", "scorching", "tropical night"}
	pollenVocab  = []string{"花粉", "pollen"}
	relaxVocab   = []string{"のんびり", "リラックス", "ゆったり", "relax", "unwind"}
	sunnyVocab   = []string{"晴れ", "快晴", "青空", "sunny", "clear"}
	umbrellaWord = []string{"傘", "umbrella"}
	nightVocab   = []string{"熱帯夜", "夜は", "night"}
	morningVocab = []string{"朝は", "朝晩", "morning"}

	// ngWords is the global hard screen; no mode disables it.
	ngWords = []string{
		"死", "殺", "最悪", "くたばれ",
		"death", "kill", "die", "worst",
	}

	// stylisticBanned are the softer style rules strict mode adds.
	stylisticBanned = []string{
		"！！", "!!", "絶望", "terrible", "hopeless",
	}
)

// containsAny reports whether s contains any of the listed substrings.
// Matching is case-insensitive for the English entries.
func containsAny(s string, words []string) (string, bool) {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, strings.ToLower(w)) {
			return w, true
		}
	}
	return "", false
}
