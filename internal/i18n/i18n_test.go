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

func TestTranslateIndonesian(t *testing.T) {
	ctx := initLang(t, "id")

	got := T(ctx, "AppTitle")
	if got != "Panel Admin Sekolah" {
		t.Errorf("T(AppTitle) = %q, want 'Panel Admin Sekolah'", got)
	}

	got = T(ctx, "QueryEmpty")
	if got != "Pertanyaan tidak boleh kosong." {
		t.Errorf("T(QueryEmpty) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "School Admin Panel" {
		t.Errorf("T(AppTitle) = %q, want 'School Admin Panel'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "StudentsFound", 1)
	if got1 != "1 student found." {
		t.Errorf("Tp(StudentsFound, 1) = %q, want '1 student found.'", got1)
	}

	got5 := Tp(ctx, "StudentsFound", 5)
	if got5 != "5 students found." {
		t.Errorf("Tp(StudentsFound, 5) = %q, want '5 students found.'", got5)
	}
}

func TestFallbackToIndonesian(t *testing.T) {
	if err := Init("id"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// No localizer in context: the panel's default language applies.
	got := T(context.Background(), "SafetyBlocked")
	if got != "Pertanyaan tidak dapat diproses karena alasan keamanan. Silakan reformulasi pertanyaan Anda." {
		t.Errorf("T(SafetyBlocked) = %q", got)
	}
}

func TestMiddlewareHonorsAcceptLanguage(t *testing.T) {
	if err := Init("id"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("id")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "AppTitle")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "School Admin Panel" {
		t.Errorf("with Accept-Language en: %q, want the English title", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Panel Admin Sekolah" {
		t.Errorf("without Accept-Language: %q, want the Indonesian title", got)
	}
}

func TestMissingTranslationReturnsID(t *testing.T) {
	ctx := initLang(t, "id")

	got := T(ctx, "NoSuchMessage")
	if got != "NoSuchMessage" {
		t.Errorf("T(NoSuchMessage) = %q, want the message ID back", got)
	}
}
