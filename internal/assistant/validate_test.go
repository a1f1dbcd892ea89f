package assistant

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		messageID string // empty means valid
	}{
		{"valid question", "Bagaimana kondisi kelas 6A?", ""},
		{"empty", "", "QueryEmpty"},
		{"whitespace only", "   \t ", "QueryEmpty"},
		{"too long", strings.Repeat("a", 501), "QueryTooLong"},
		{"sql injection", "tolong DROP table siswa", "QueryForbidden"},
		{"update set", "update nilai set score = 100", "QueryForbidden"},
		{"script tag", "<script>alert(1)</script>", "QueryForbidden"},
		{"javascript scheme", "javascript:void(0)", "QueryForbidden"},
		{"length boundary", strings.Repeat("a", 500), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.messageID == "" {
				if err != nil {
					t.Fatalf("ValidateQuery(%q) = %v, want nil", tt.query, err)
				}
				return
			}
			var qe *QueryError
			if !errors.As(err, &qe) {
				t.Fatalf("ValidateQuery(%q) = %v, want *QueryError", tt.query, err)
			}
			if qe.MessageID != tt.messageID {
				t.Errorf("MessageID = %q, want %q", qe.MessageID, tt.messageID)
			}
		})
	}
}
