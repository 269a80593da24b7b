package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-chat/internal/llm"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeDescriber struct {
	text     string
	err      error
	calls    int
	mimeType string
}

func (f *fakeDescriber) Describe(_ context.Context, _ []byte, mimeType, _ string) (string, error) {
	f.calls++
	f.mimeType = mimeType
	return f.text, f.err
}

func TestDecode(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)
	unpadded := base64.RawStdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "data uri", input: "data:image/png;base64," + encoded},
		{name: "bare base64", input: encoded},
		{name: "unpadded", input: unpadded},
		{name: "empty", input: "", wantErr: true},
		{name: "prefix only", input: "data:image/png;base64,", wantErr: true},
		{name: "not base64", input: "data:image/png;base64,%%%not-base64%%%", wantErr: true},
		{name: "not an image", input: base64.StdEncoding.EncodeToString([]byte("hello world, plain text")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			image, mimeType, err := Decode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "image/png", mimeType)
			assert.Equal(t, pngHeader, image)
		})
	}
}

func TestAnalyze(t *testing.T) {
	valid := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name      string
		input     string
		describer *fakeDescriber
		want      string
		wantCalls int
	}{
		{
			name:      "description returned",
			input:     valid,
			describer: &fakeDescriber{text: "  Outlook shows error 0x800CCC0E  "},
			want:      "Outlook shows error 0x800CCC0E",
			wantCalls: 1,
		},
		{
			name:      "blank description",
			input:     valid,
			describer: &fakeDescriber{text: "   "},
			want:      NoTextFound,
			wantCalls: 1,
		},
		{
			name:      "model returned nothing",
			input:     valid,
			describer: &fakeDescriber{err: llm.ErrEmptyResponse},
			want:      NoTextFound,
			wantCalls: 1,
		},
		{
			name:      "model failure",
			input:     valid,
			describer: &fakeDescriber{err: errors.New("quota exceeded")},
			want:      ProcessingError,
			wantCalls: 1,
		},
		{
			name:      "malformed payload never reaches the model",
			input:     "definitely not an image",
			describer: &fakeDescriber{text: "unused"},
			want:      ProcessingError,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := NewAnalyzer(tt.describer, nil)
			got := analyzer.Analyze(context.Background(), tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, tt.describer.calls)
			if tt.wantCalls > 0 {
				assert.Equal(t, "image/png", tt.describer.mimeType)
			}
		})
	}
}
