package agency

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Immo Lome SARL", "immo-lome-sarl"},
		{"  Agence  du  Golfe  ", "agence-du-golfe"},
		{"Kara+Homes!", "kara-homes"},
		{"---", ""},
		{"Maison123", "maison123"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.name); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
