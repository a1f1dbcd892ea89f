package format

import (
	"strings"
	"testing"
)

func TestResponseEmpty(t *testing.T) {
	got := Response("   \n ")
	if got.HTML != "" || got.PlainText != "" {
		t.Errorf("Response(blank) = %+v, want empty", got)
	}
}

func TestResponseHeadersAndParagraphs(t *testing.T) {
	got := Response("## Ringkasan\nNilai rata-rata kelas 6A adalah 78.\nTingkat kelulusan 80%.")

	if !strings.Contains(got.HTML, "<h2>Ringkasan</h2>") {
		t.Errorf("missing h2: %s", got.HTML)
	}
	if !strings.Contains(got.HTML, "<p>Nilai rata-rata kelas 6A adalah 78. Tingkat kelulusan 80%.</p>") {
		t.Errorf("consecutive lines must join into one paragraph: %s", got.HTML)
	}
	if got.PlainText == "" {
		t.Error("PlainText must keep the original text")
	}
}

func TestResponseBoldAndItalic(t *testing.T) {
	got := Response("**Budi** mendapat nilai *tertinggi*.")

	if !strings.Contains(got.HTML, "<strong>Budi</strong>") {
		t.Errorf("missing strong: %s", got.HTML)
	}
	if !strings.Contains(got.HTML, "<em>tertinggi</em>") {
		t.Errorf("missing em: %s", got.HTML)
	}
}

func TestResponseLists(t *testing.T) {
	got := Response("Rekomendasi:\n- Les tambahan untuk Andi\n- Remedial matematika\n\n1. Hubungi orang tua\n2. Jadwalkan ulangan")

	if !strings.Contains(got.HTML, "<ul>\n<li>Les tambahan untuk Andi</li>\n<li>Remedial matematika</li>\n</ul>") {
		t.Errorf("bullet items must group into one ul: %s", got.HTML)
	}
	if !strings.Contains(got.HTML, "<ol>\n<li>Hubungi orang tua</li>\n<li>Jadwalkan ulangan</li>\n</ol>") {
		t.Errorf("numbered items must group into one ol: %s", got.HTML)
	}
}

func TestResponseCode(t *testing.T) {
	got := Response("Gunakan `rata-rata` sebagai metrik.\n```\nSELECT 1\n```")

	if !strings.Contains(got.HTML, "<code>rata-rata</code>") {
		t.Errorf("missing inline code: %s", got.HTML)
	}
	if !strings.Contains(got.HTML, "<pre><code>SELECT 1</code></pre>") {
		t.Errorf("missing code block: %s", got.HTML)
	}
}

func TestResponseEscapesHTML(t *testing.T) {
	got := Response("skor <60 dianggap kurang")

	if strings.Contains(got.HTML, "<60") {
		t.Errorf("raw angle bracket leaked: %s", got.HTML)
	}
	if !strings.Contains(got.HTML, "&lt;60") {
		t.Errorf("angle bracket must be escaped: %s", got.HTML)
	}
}

func TestResponseBadges(t *testing.T) {
	got := Response("PENTING: tiga siswa di bawah KKM.\nREKOMENDASI: adakan remedial.\nPERINGATAN: data belum lengkap.")

	for _, want := range []string{
		`<span class="badge badge-note">PENTING</span>`,
		`<span class="badge badge-info">REKOMENDASI</span>`,
		`<span class="badge badge-warn">PERINGATAN</span>`,
	} {
		if !strings.Contains(got.HTML, want) {
			t.Errorf("missing %s in %s", want, got.HTML)
		}
	}
}
