package polyline

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDecode_Precision5(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		expected orb.LineString
	}{
		{
			name:     "single point",
			encoded:  "_p~iF~ps|U",
			expected: orb.LineString{{-120.2, 38.5}},
		},
		{
			name:     "two points",
			encoded:  "_p~iF~ps|U_ulLnnqC",
			expected: orb.LineString{{-120.2, 38.5}, {-120.95, 40.7}},
		},
		{
			name:     "three points - Google example",
			encoded:  "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
			expected: orb.LineString{{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Decode(tt.encoded, Precision5)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertLine(t, tt.expected, result, 1e-5)
		})
	}
}

func TestDecode_Precision6ValhallaShape(t *testing.T) {
	expected := orb.LineString{
		{4.900272, 52.378901},
		{4.899431, 52.379189},
		{4.894836, 52.372758},
		{-74.006015, 40.712728},
	}

	result, err := Decode("ip}{bB_zajH_Qps@|pKd~GzntfUdfvnuC", Precision6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLine(t, expected, result, 1e-6)
}

func TestDecode_PrecisionScalesValues(t *testing.T) {
	// The same bytes decoded at precision 6 are a tenth of their precision 5 value.
	result, err := Decode("_p~iF~ps|U", Precision6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLine(t, orb.LineString{{-12.02, 3.85}}, result, 1e-6)
}

func TestDecode_EmptyString(t *testing.T) {
	result, err := Decode("", Precision5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"missing longitude", "_p~iF"},
		{"unterminated value", "_p~iF~ps|"},
		{"character below range", "_p~iF~ps|U "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.encoded, Precision5); err == nil {
				t.Fatalf("expected error for %q", tt.encoded)
			}
		})
	}

	_, err := Decode("_p~iF", Precision5)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestInvalidPrecision(t *testing.T) {
	if _, err := Decode("_p~iF~ps|U", 0); !errors.Is(err, ErrInvalidPrecision) {
		t.Errorf("decode: expected ErrInvalidPrecision, got %v", err)
	}
	if _, err := Encode(orb.LineString{{1, 1}}, 11); !errors.Is(err, ErrInvalidPrecision) {
		t.Errorf("encode: expected ErrInvalidPrecision, got %v", err)
	}
}

func TestEncode_GoogleExample(t *testing.T) {
	encoded, err := Encode(orb.LineString{{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252}}, Precision5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encoded != "_p~iF~ps|U_ulLnnqC_mqNvxq`@" {
		t.Errorf("unexpected encoding %q", encoded)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	line := orb.LineString{
		{4.889691, 52.374031},
		{4.892312, 52.372344},
		{4.895347, 52.370018},
		{5.121421, 52.090737},
	}

	for _, precision := range []int{Precision5, Precision6} {
		encoded, err := Encode(line, precision)
		if err != nil {
			t.Fatalf("precision %d: unexpected error: %v", precision, err)
		}

		decoded, err := Decode(encoded, precision)
		if err != nil {
			t.Fatalf("precision %d: unexpected error: %v", precision, err)
		}
		assertLine(t, line, decoded, math.Pow10(-precision))
	}
}

func TestEncode_Empty(t *testing.T) {
	encoded, err := Encode(nil, Precision6)
	if err != nil || encoded != "" {
		t.Errorf("expected empty string for nil line, got %q (%v)", encoded, err)
	}
}

func assertLine(t *testing.T, expected, actual orb.LineString, tolerance float64) {
	t.Helper()
	if len(actual) != len(expected) {
		t.Fatalf("expected %d points, got %d", len(expected), len(actual))
	}
	for i := range expected {
		if math.Abs(expected[i].Lon()-actual[i].Lon()) > tolerance ||
			math.Abs(expected[i].Lat()-actual[i].Lat()) > tolerance {
			t.Errorf("point %d: expected %v, got %v", i, expected[i], actual[i])
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	encoded := "_p~iF~ps|U_ulLnnqC_mqNvxq`@"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decode(encoded, Precision5)
	}
}

func BenchmarkEncode(b *testing.B) {
	line := orb.LineString{{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Encode(line, Precision6)
	}
}
