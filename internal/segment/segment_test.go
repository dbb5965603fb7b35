package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragments(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		want     []string
		wantErr  error
	}{
		{
			name:    "no messages",
			wantErr: ErrEmptyRequest,
		},
		{
			name:     "single empty message",
			messages: []Message{{Role: "user", Content: "   "}},
			wantErr:  ErrEmptyRequest,
		},
		{
			name:     "single message taken whole",
			messages: []Message{{Role: "user", Content: "no games on Mondays, and keep travel short"}},
			want:     []string{"no games on Mondays, and keep travel short"},
		},
		{
			name: "multi message splits last on commas",
			messages: []Message{
				{Role: "user", Content: "setting up the spring league"},
				{Role: "assistant", Content: "Sure, tell me your constraints."},
				{Role: "user", Content: "no Mondays, home games only, two rest days"},
			},
			want: []string{"no Mondays", "home games only", "two rest days"},
		},
		{
			name: "earlier messages are context only",
			messages: []Message{
				{Role: "user", Content: "alpha, beta"},
				{Role: "user", Content: "gamma"},
			},
			want: []string{"gamma"},
		},
		{
			name: "blank pieces dropped",
			messages: []Message{
				{Role: "user", Content: "context"},
				{Role: "user", Content: "no Fridays, , avoid back to backs,"},
			},
			want: []string{"no Fridays", "avoid back to backs"},
		},
		{
			name: "multi message with empty final message",
			messages: []Message{
				{Role: "user", Content: "context"},
				{Role: "user", Content: ""},
			},
			wantErr: ErrEmptyRequest,
		},
		{
			name: "multi message with only commas",
			messages: []Message{
				{Role: "user", Content: "context"},
				{Role: "user", Content: ",,,"},
			},
			wantErr: ErrEmptyRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fragments(tt.messages)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
