package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "PlayVideoFirst"); got != "Please play a video first!" {
		t.Errorf("T(PlayVideoFirst) = %q", got)
	}
	if got := T(ctx, "FocusOn"); got != "🚀 Focus Mode: ON!" {
		t.Errorf("T(FocusOn) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	if got := T(ctx, "PlayVideoFirst"); got != "Сначала включите видео!" {
		t.Errorf("T(PlayVideoFirst) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "QuizReady", 1); got != "Your quiz is ready: 1 question." {
		t.Errorf("Tp(QuizReady, 1) = %q", got)
	}
	if got := Tp(ctx, "QuizReady", 5); got != "Your quiz is ready: 5 questions." {
		t.Errorf("Tp(QuizReady, 5) = %q", got)
	}
}

func TestRussianPlural(t *testing.T) {
	ctx := initLang(t, "ru")

	tests := []struct {
		n    int
		want string
	}{
		{1, "Тест готов: 1 вопрос."},
		{3, "Тест готов: 3 вопроса."},
		{5, "Тест готов: 5 вопросов."},
	}
	for _, tt := range tests {
		if got := Tp(ctx, "QuizReady", tt.n); got != tt.want {
			t.Errorf("Tp(QuizReady, %d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "QuizScore", map[string]any{"Score": 3, "Total": 5})
	if got != "You scored 3 out of 5." {
		t.Errorf("Td(QuizScore) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestText(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Text(ctx, "Quote2"); got != "🌱 Every second you learn, you grow." {
		t.Errorf("Text(Quote2) = %q", got)
	}
	if got := Text(ctx, "Halfway there"); got != "Halfway there" {
		t.Errorf("Text(literal) = %q, want it unchanged", got)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatal(err)
	}
	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "Paused")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "⏸️ Пауза" {
		t.Errorf("with Accept-Language ru: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "⏸️ Paused" {
		t.Errorf("without Accept-Language: %q", got)
	}
}
