package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		key     string
		want    string
	}{
		{"joins base and key", "https://assets.pawsit.dev", "profiles/maya.jpg", "https://assets.pawsit.dev/profiles/maya.jpg"},
		{"trims duplicate slashes", "https://assets.pawsit.dev/", "/profiles/maya.jpg", "https://assets.pawsit.dev/profiles/maya.jpg"},
		{"empty key passes through", "https://assets.pawsit.dev", "", ""},
		{"empty base passes key through", "", "profiles/maya.jpg", "profiles/maya.jpg"},
		{"absolute http url untouched", "https://assets.pawsit.dev", "http://cdn.example.com/x.jpg", "http://cdn.example.com/x.jpg"},
		{"absolute https url untouched", "https://assets.pawsit.dev", "https://cdn.example.com/x.jpg", "https://cdn.example.com/x.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageURL(tt.baseURL, tt.key))
		})
	}
}
