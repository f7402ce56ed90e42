package phone

import "testing"

func TestNormalizeCanonicalForms(t *testing.T) {
	const want = "9876543210"

	inputs := []string{
		"9876543210",
		"+91 98765 43210",
		"09876543210",
		"91-98765-43210",
		"(987) 654-3210",
		"+91 0 98765 43210",
	}

	for _, input := range inputs {
		got, ok := Normalize(input)
		if !ok {
			t.Fatalf("Normalize(%q) rejected, want %s", input, want)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNormalizeRejections(t *testing.T) {
	inputs := []string{
		"",
		"12345",
		"98765432101",    // 11 digits, no droppable prefix
		"987654321",      // 9 digits
		"abcdefghij",     // no digits at all
		"910000000000000", // too long even after prefix drop
	}

	for _, input := range inputs {
		if got, ok := Normalize(input); ok {
			t.Fatalf("Normalize(%q) accepted as %s, want rejection", input, got)
		}
	}
}

func TestNormalizeKeepsEmbeddedDigits(t *testing.T) {
	got, ok := Normalize("Name: 9876543210")
	if !ok || got != "9876543210" {
		t.Fatalf("Normalize with letters mixed in = %q ok=%v, want 9876543210", got, ok)
	}
}

func TestNormalizeMobileRange(t *testing.T) {
	if _, ok := NormalizeMobile("5876543210"); ok {
		t.Fatal("number outside 6-9 mobile range should be rejected")
	}
	got, ok := NormalizeMobile("+91 98765 43210")
	if !ok || got != "9876543210" {
		t.Fatalf("NormalizeMobile = %q ok=%v, want 9876543210", got, ok)
	}
}

func TestScanTextDerivesNames(t *testing.T) {
	text := "Name: Asha Mobile: +91 98765 43210\nRavi phone 8123456789\njust words, no number\n"

	matches := ScanText(text)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	if matches[0].Number != "9876543210" {
		t.Fatalf("first match number = %s", matches[0].Number)
	}
	if matches[0].Name != "Asha" {
		t.Fatalf("first match name = %q, want Asha", matches[0].Name)
	}
	if matches[1].Number != "8123456789" {
		t.Fatalf("second match number = %s", matches[1].Number)
	}
	if matches[1].Name != "Ravi" {
		t.Fatalf("second match name = %q, want Ravi", matches[1].Name)
	}
}

func TestScanTextSkipsNonMobileRuns(t *testing.T) {
	// An account number is ten digits but outside the mobile range.
	matches := ScanText("account 1234567890 balance due")
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}
