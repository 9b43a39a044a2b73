package identifier

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"empty", "", ErrInvalidLength},
		{"too long", strings.Repeat("a", 129), ErrInvalidLength},
		{"exactly max", strings.Repeat("a", 128), nil},
		{"lowercase null", "null", ErrForbiddenName},
		{"uppercase null", "NULL", ErrForbiddenName},
		{"mixed case null", "NuLL", ErrForbiddenName},
		{"non-ascii", "héllo", ErrInvalidCharacter},
		{"space", "a b", ErrInvalidCharacter},
		{"valid mixed", "a_1-B", nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Parse(c.in)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", c.in, err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", c.in, err)
			}
			if got.String() != c.in {
				t.Fatalf("Parse(%q) = %q, want %q", c.in, got, c.in)
			}
		})
	}
}
