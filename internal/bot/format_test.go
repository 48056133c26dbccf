package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "no markup", in: "plain text", want: "plain text"},
		{name: "bold", in: "You got **two** tasks", want: "You got <b>two</b> tasks"},
		{name: "multiple bold", in: "**a** and **b**", want: "<b>a</b> and <b>b</b>"},
		{name: "unclosed markers kept", in: "broken **bold", want: "broken **bold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatText(tt.in))
		})
	}
}

func TestRandomGreetingNonEmpty(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.NotEmpty(t, RandomGreeting())
	}
}
