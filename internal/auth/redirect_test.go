package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/admin"},
		{next: "/admin/reports?month=3", want: "/admin/reports?month=3"},
		{next: "/", want: "/"},
		{next: "admin", want: "/admin"},
		{next: "https://evil.example.com", want: "/admin"},
		{next: "//evil.example.com/x", want: "/admin"},
		{next: "/\\evil.example.com", want: "/admin"},
		{next: "/admin\r\nSet-Cookie: x", want: "/admin"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeNext(tt.next, "/admin"))
		})
	}
}
