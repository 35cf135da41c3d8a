package format

import "testing"

func TestMarkdown(t *testing.T) {
	if got := Markdown("Иван_Петров *VIP* [x]"); got != `Иван\_Петров \*VIP\* \[x]` {
		t.Fatalf("legacy = %q", got)
	}
	if got := MarkdownV2("ул. Абая 1-2!"); got != `ул\. Абая 1\-2\!` {
		t.Fatalf("v2 = %q", got)
	}
	if got := MarkdownV2(`a\b`); got != `a\\b` {
		t.Fatalf("v2 backslash = %q", got)
	}
}

func TestOptional(t *testing.T) {
	if Optional("") != nil || Optional("   ") != nil {
		t.Fatal("blank input must map to nil")
	}
	if got := OrDefault(Optional("Алматы"), "N/A"); got != "Алматы" {
		t.Fatalf("value = %q", got)
	}
	if got := OrDefault(nil, "N/A"); got != "N/A" {
		t.Fatalf("default = %q", got)
	}
}
