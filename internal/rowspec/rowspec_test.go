package rowspec

import (
	"errors"
	"math"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		raw          string
		lastRowCount int
		expected     int
	}{
		{"first", 5, 0},
		{"last", 5, 4},
		{"last-1", 5, 3},
		{"first+2", 5, 2},
		{"7", 5, 7},
		{"0", 5, 0},
		{"%first%", 5, 0},
		{"%last%", 5, 4},
		{"%last% - 1", 5, 3},
		{"%first% + 1", 5, 1},
		{"LAST", 3, 2},
		{"last-row", 5, 4},
		{"first-row+1", 5, 1},
		{"last_row-2", 5, 2},
		{"3+1", 5, 4},
		{"10-2", 5, 8},
		{"last", 0, -1},
		{"last+1", 3, 3},
	}

	for _, test := range tests {
		got, err := Resolve(test.raw, test.lastRowCount)
		if err != nil {
			t.Errorf("Resolve(%q, %d) returned error: %v", test.raw, test.lastRowCount, err)
			continue
		}
		if got != test.expected {
			t.Errorf("Resolve(%q, %d) = %d, expected %d", test.raw, test.lastRowCount, got, test.expected)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"middle",
		"last-",
		"+1",
		"-1",
		"last-1+2",
		"first+1-1",
		"last+-1",
		"last+first",
		"last 2",
		"%last",
		"%middle%",
		"last*2",
		"last-rows",
		"1.5",
		"99999999999999999999999",
		"9223372036854775807+1",
		"last+9223372036854775807",
		"first - 2147483648",
	}

	for _, raw := range tests {
		_, err := Parse(raw)
		if err == nil {
			t.Errorf("Parse(%q) expected error, got nil", raw)
			continue
		}
		if !errors.Is(err, ErrMalformedRowSpecifier) {
			t.Errorf("Parse(%q) expected ErrMalformedRowSpecifier, got %v", raw, err)
		}
	}
}

func TestParseFields(t *testing.T) {
	spec, err := Parse(" %last% - 2 ")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if spec.Anchor != Last {
		t.Errorf("Expected anchor last, got %s", spec.Anchor)
	}
	if spec.Offset != -2 {
		t.Errorf("Expected offset -2, got %d", spec.Offset)
	}
	if spec.String() != "%last% - 2" {
		t.Errorf("Expected trimmed raw text, got %q", spec.String())
	}

	literal := MustParse("12")
	if literal.Anchor != NoAnchor || literal.Literal != 12 || literal.Offset != 0 {
		t.Errorf("Unexpected literal spec: %+v", literal)
	}
}

func TestOffsetBounds(t *testing.T) {
	spec, err := Parse("last + 2147483647")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := spec.Resolve(10); got != 9+MaxOffset {
		t.Errorf("Resolve(10) = %d, expected %d", got, 9+MaxOffset)
	}

	spec, err = Parse("9223372036854775807 - 1")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := spec.Resolve(0); got != math.MaxInt-1 {
		t.Errorf("Resolve(0) = %d, expected %d", got, math.MaxInt-1)
	}
}

func TestLiteralIgnoresRowCount(t *testing.T) {
	spec := MustParse("7")
	for _, count := range []int{0, 1, 5, 100} {
		if got := spec.Resolve(count); got != 7 {
			t.Errorf("Resolve(%d) = %d, expected 7", count, got)
		}
	}
}

func TestMixedOperatorsMessage(t *testing.T) {
	_, err := Parse("last+1-1")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	expected := `malformed row specifier "last+1-1": mixes + and -`
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}
