package workflow

import "testing"

func TestExtractUTR(t *testing.T) {
	t.Run("twelve digit reference", func(t *testing.T) {
		got := ExtractUTR("UTR No: 123456789012 thank you")
		if got != "123456789012" {
			t.Fatalf("expected 123456789012, got %q", got)
		}
	})

	t.Run("twenty two character reference", func(t *testing.T) {
		got := ExtractUTR("ref ABCDEFGHIJKLMNOPQR1234")
		if got != "ABCDEFGHIJKLMNOPQR1234" {
			t.Fatalf("expected ABCDEFGHIJKLMNOPQR1234, got %q", got)
		}
	})

	t.Run("sixteen character reference", func(t *testing.T) {
		got := ExtractUTR("IMPS reference CMS1234567890123 received")
		if got != "CMS1234567890123" {
			t.Fatalf("expected CMS1234567890123, got %q", got)
		}
	})

	t.Run("plain words do not match", func(t *testing.T) {
		if got := ExtractUTR("hello world"); got != "" {
			t.Fatalf("expected no match, got %q", got)
		}
	})

	t.Run("matching length without digit is rejected", func(t *testing.T) {
		if got := ExtractUTR("exactlytwelv"); got != "" {
			t.Fatalf("expected no match, got %q", got)
		}
	})

	t.Run("reference embedded in punctuation", func(t *testing.T) {
		got := ExtractUTR("paid!! ref:N123456789012345,done")
		if got != "N123456789012345" {
			t.Fatalf("expected N123456789012345, got %q", got)
		}
	})

	t.Run("first qualifying token wins", func(t *testing.T) {
		got := ExtractUTR("AAAA11112222 BBBB33334444")
		if got != "AAAA11112222" {
			t.Fatalf("expected AAAA11112222, got %q", got)
		}
	})
}

func TestStripMarkup(t *testing.T) {
	got := ExtractUTR(StripMarkup("<p>UTR is <b>123456789012</b></p>"))
	if got != "123456789012" {
		t.Fatalf("expected 123456789012, got %q", got)
	}
}
