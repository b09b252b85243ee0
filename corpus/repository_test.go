package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeCorpusFile(t *testing.T, dir string, season Season, typ CommentType, body string) {
	t.Helper()
	name := string(season) + "_" + string(typ) + "_enhanced100.csv"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestRepo(t *testing.T, dir string, opts ...RepositoryOption) *Repository {
	t.Helper()
	repo, err := NewRepository(dir, nil, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestSeasonOf(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.January, Winter},
		{time.March, Spring},
		{time.May, Spring},
		{time.June, RainySeason},
		{time.July, Summer},
		{time.August, Summer},
		{time.September, Typhoon},
		{time.October, Autumn},
		{time.November, Autumn},
		{time.December, Winter},
	}
	for _, tt := range tests {
		ts := time.Date(2024, tt.month, 15, 12, 0, 0, 0, time.UTC)
		if got := SeasonOf(ts); got != tt.want {
			t.Errorf("SeasonOf(%s) = %s, want %s", tt.month, got, tt.want)
		}
	}
}

func TestSeasonOf_JSTBoundary(t *testing.T) {
	// 2024-05-31 23:00 UTC is already June 1st in JST.
	ts := time.Date(2024, time.May, 31, 23, 0, 0, 0, time.UTC)
	if got := SeasonOf(ts); got != RainySeason {
		t.Errorf("late May UTC evening is June in JST, got %s", got)
	}
}

func TestRepository_MissingDir(t *testing.T) {
	_, err := NewRepository(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRepository_LoadAndSort(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, Summer, TypeWeather,
		"weather_comment,count\n今日は晴れ,10\n蒸し暑い一日,40\n雲が広がる,25\n")
	repo := newTestRepo(t, dir)

	got, err := repo.GetBySeasonAndType(Summer, TypeWeather)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 phrases, got %d", len(got))
	}
	if got[0].Text != "蒸し暑い一日" || got[0].Count != 40 {
		t.Errorf("expected count-descending order, got %q first", got[0].Text)
	}
	if got[0].Season != Summer || got[0].Type != TypeWeather {
		t.Error("loaded phrase not labeled with its season and type")
	}
}

func TestRepository_BOMAndWhitespace(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, Winter, TypeAdvice,
		"\ufeffadvice,count\n  暖かくして  ,5\n")
	repo := newTestRepo(t, dir)

	got, err := repo.GetBySeasonAndType(Winter, TypeAdvice)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "暖かくして" {
		t.Fatalf("expected trimmed phrase, got %+v", got)
	}
}

func TestRepository_BadCountRowDropped(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, Spring, TypeWeather,
		"weather_comment,count\n良い天気,3\nだめな行,abc\n花粉に注意,7\n")
	repo := newTestRepo(t, dir)

	got, err := repo.GetBySeasonAndType(Spring, TypeWeather)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("row with non-integer count should be dropped, got %d rows", len(got))
	}
	for _, c := range got {
		if c.Text == "だめな行" {
			t.Error("bad-count row survived")
		}
	}
}

func TestRepository_EmptyRowsSkippedAndLongTruncated(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("あ", 250)
	writeCorpusFile(t, dir, Autumn, TypeWeather,
		"weather_comment,count\n,9\n"+long+",1\n")
	repo := newTestRepo(t, dir)

	got, err := repo.GetBySeasonAndType(Autumn, TypeWeather)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("empty row should be skipped, got %d rows", len(got))
	}
	if n := len([]rune(got[0].Text)); n != maxTextLen {
		t.Errorf("long phrase should truncate to %d runes, got %d", maxTextLen, n)
	}
}

func TestRepository_MissingFileIsEmptyNotError(t *testing.T) {
	repo := newTestRepo(t, t.TempDir())
	got, err := repo.GetBySeasonAndType(Typhoon, TypeAdvice)
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list, got %d", len(got))
	}
}

func TestRepository_CacheReadsFileOnce(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, Summer, TypeWeather, "weather_comment,count\n一回目,1\n")
	repo := newTestRepo(t, dir)

	if _, err := repo.GetBySeasonAndType(Summer, TypeWeather); err != nil {
		t.Fatal(err)
	}
	// Rewrite the file; cached list must keep serving until eviction.
	writeCorpusFile(t, dir, Summer, TypeWeather, "weather_comment,count\n二回目,1\n")
	got, _ := repo.GetBySeasonAndType(Summer, TypeWeather)
	if got[0].Text != "一回目" {
		t.Error("cached list should not re-read the file within the TTL")
	}

	repo.RefreshCache()
	got, _ = repo.GetBySeasonAndType(Summer, TypeWeather)
	if got[0].Text != "二回目" {
		t.Error("RefreshCache should force a re-read")
	}
}

func TestRepository_TTLExpiry(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, Summer, TypeWeather, "weather_comment,count\n古い,1\n")
	repo := newTestRepo(t, dir)

	now := time.Now()
	repo.now = func() time.Time { return now }

	if _, err := repo.GetBySeasonAndType(Summer, TypeWeather); err != nil {
		t.Fatal(err)
	}
	writeCorpusFile(t, dir, Summer, TypeWeather, "weather_comment,count\n新しい,1\n")

	now = now.Add(61 * time.Minute)
	got, _ := repo.GetBySeasonAndType(Summer, TypeWeather)
	if got[0].Text != "新しい" {
		t.Error("expired entry should be re-read from disk")
	}
}

func TestRepository_LRUEviction(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, Spring, TypeWeather, "weather_comment,count\n春,1\n")
	writeCorpusFile(t, dir, Summer, TypeWeather, "weather_comment,count\n夏,1\n")
	writeCorpusFile(t, dir, Autumn, TypeWeather, "weather_comment,count\n秋,1\n")
	repo := newTestRepo(t, dir, WithCacheSize(2))

	repo.GetBySeasonAndType(Spring, TypeWeather)
	repo.GetBySeasonAndType(Summer, TypeWeather)
	repo.GetBySeasonAndType(Autumn, TypeWeather) // evicts Spring

	// Rewriting Spring's file then querying must show the new content,
	// because its cache entry was evicted.
	writeCorpusFile(t, dir, Spring, TypeWeather, "weather_comment,count\n新春,1\n")
	got, _ := repo.GetBySeasonAndType(Spring, TypeWeather)
	if got[0].Text != "新春" {
		t.Error("evicted entry should re-read from disk")
	}
}

func TestRepository_Search(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, Summer, TypeWeather,
		"weather_comment,count\n蒸し暑い一日,40\n晴れて暑い,20\n")
	writeCorpusFile(t, dir, Summer, TypeAdvice,
		"advice,count\n暑さ対策を,30\n水分補給を,25\n")
	repo := newTestRepo(t, dir)

	summer := Summer
	got, err := repo.Search("暑", &summer, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 matches across both types, got %d", len(got))
	}

	// Limit stops the scan early.
	got, _ = repo.Search("暑", &summer, nil, 2)
	if len(got) != 2 {
		t.Errorf("limit not honored, got %d", len(got))
	}

	wt := TypeWeather
	got, _ = repo.Search("暑", &summer, &wt, 10)
	for _, c := range got {
		if c.Type != TypeWeather {
			t.Errorf("type filter leaked %s", c.Type)
		}
	}
}

func TestRepository_GetBySeason(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, Winter, TypeWeather, "weather_comment,count\n雪の予報,8\n")
	writeCorpusFile(t, dir, Winter, TypeAdvice, "advice,count\n路面凍結注意,12\n")
	repo := newTestRepo(t, dir)

	got, err := repo.GetBySeason(Winter)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected merged 2 phrases, got %d", len(got))
	}
	if got[0].Type != TypeWeather || got[1].Type != TypeAdvice {
		t.Error("GetBySeason should list weather phrases before advice")
	}
}

func TestCommentPair_Valid(t *testing.T) {
	w := PastComment{Text: "晴れ", Type: TypeWeather, Season: Summer}
	a := PastComment{Text: "日焼け注意", Type: TypeAdvice, Season: Summer}
	if !(CommentPair{Weather: w, Advice: a}).Valid() {
		t.Error("matched pair should be valid")
	}
	aw := a
	aw.Season = Winter
	if (CommentPair{Weather: w, Advice: aw}).Valid() {
		t.Error("cross-season pair should be invalid")
	}
	if (CommentPair{Weather: a, Advice: w}).Valid() {
		t.Error("swapped types should be invalid")
	}
}

func TestParseFileName(t *testing.T) {
	s, typ, ok := parseFileName("rainy_season_weather_comment_enhanced100.csv")
	if !ok || s != RainySeason || typ != TypeWeather {
		t.Errorf("parse failed: %s %s %v", s, typ, ok)
	}
	if _, _, ok := parseFileName("notes.txt"); ok {
		t.Error("unrelated file should not parse")
	}
}
