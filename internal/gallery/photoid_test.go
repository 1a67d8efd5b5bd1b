package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhotoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "storage url keeps encoded folder separator",
			input: "https://host/v0/b/bucket/o/folder%2Fphoto.jpg?alt=media",
			want:  "folder%2Fphoto.jpg",
		},
		{
			name:  "query string is stripped",
			input: "https://host/photos/p.jpg?alt=media&token=abc",
			want:  "p.jpg",
		},
		{
			name:  "plain string returned verbatim",
			input: "not-a-url",
			want:  "not-a-url",
		},
		{
			name:  "empty string returned verbatim",
			input: "",
			want:  "",
		},
		{
			name:  "trailing slash yields empty id",
			input: "https://host/a/b/photo.jpg/",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhotoID(tt.input))
		})
	}
}
