package otp

import "testing"

func TestGenerateCode_Range(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("code outside range: %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 100 {
		t.Fatalf("codes look far from uniform: %d unique of 200", len(seen))
	}
}
