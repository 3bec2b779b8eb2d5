package wa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"leading zero", "081234567890", "6281234567890", false},
		{"already international", "6281234567890", "6281234567890", false},
		{"plus prefix", "+6281234567890", "6281234567890", false},
		{"bare number", "81234567890", "6281234567890", false},
		{"separators stripped", "0812-3456 78.90", "6281234567890", false},
		{"parentheses", "(0812) 3456-7890", "6281234567890", false},
		{"empty", "", "", true},
		{"letters", "0812abc", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBuildLink(t *testing.T) {
	link := BuildLink("", "6281234567890", "Halo Budi, ada promo!")
	require.Equal(t, "https://wa.me/6281234567890?text=Halo+Budi%2C+ada+promo%21", link)
}

func TestBuildLinkTrimsBaseURL(t *testing.T) {
	link := BuildLink("https://wa.example/", "628123", "hi")
	require.Equal(t, "https://wa.example/628123?text=hi", link)
}
