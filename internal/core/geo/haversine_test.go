package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

func TestDistanceMeters_KnownPair(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := DistanceMeters(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100_000 || d > 140_000 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceMeters_ZeroAndSymmetric(t *testing.T) {
	if d := DistanceMeters(59.33, 18.06, 59.33, 18.06); d != 0 {
		t.Fatalf("same point distance=%v want 0", d)
	}
	a := DistanceMeters(59.33, 18.06, 59.34, 18.07)
	b := DistanceMeters(59.34, 18.07, 59.33, 18.06)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("asymmetric distance: %v vs %v", a, b)
	}
}

func TestDistanceMeters_OneDegreeLatitude(t *testing.T) {
	// one degree of latitude on a 6371km sphere is ~111.195km
	d := DistanceMeters(0, 0, 1, 0)
	if math.Abs(d-111195) > 5 {
		t.Fatalf("got=%v want ~111195", d)
	}
}

func TestValidateLatLng(t *testing.T) {
	bad := [][2]float64{
		{91, 0}, {-91, 0}, {0, 181}, {0, -181},
		{math.NaN(), 0}, {0, math.NaN()}, {math.Inf(1), 0}, {0, math.Inf(-1)},
	}
	for _, c := range bad {
		if err := ValidateLatLng(c[0], c[1]); !errors.Is(err, model.ErrInvalidCoordinate) {
			t.Fatalf("ValidateLatLng(%v,%v)=%v want ErrInvalidCoordinate", c[0], c[1], err)
		}
	}
	good := [][2]float64{{90, 180}, {-90, -180}, {0, 0}, {59.3293, 18.0686}}
	for _, c := range good {
		if err := ValidateLatLng(c[0], c[1]); err != nil {
			t.Fatalf("ValidateLatLng(%v,%v)=%v want nil", c[0], c[1], err)
		}
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	b := BoundingBox(59.33, 18.06, 500)
	if !(b.MinLat < 59.33 && b.MaxLat > 59.33 && b.MinLng < 18.06 && b.MaxLng > 18.06) {
		t.Fatalf("bbox %+v does not contain center", b)
	}
	// the north-south extent should be about 1km
	if d := DistanceMeters(b.MinLat, 18.06, b.MaxLat, 18.06); math.Abs(d-1000) > 10 {
		t.Fatalf("extent=%v want ~1000m", d)
	}
}
