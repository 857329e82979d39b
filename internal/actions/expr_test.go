package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/dfsm/internal/primitives"
)

func TestEvaluate(t *testing.T) {
	c := primitives.NewContext(map[string]any{
		"temp":     35.5,
		"count":    3,
		"decoded":  float64(5),
		"loggedIn": true,
		"name":     "alice",
		"empty":    "",
		"nothing":  nil,
		"入力キー":     "hello world",
		"profile":  map[string]any{"age": float64(42)},
	})

	tests := []struct {
		expr string
		want bool
	}{
		{"temp > 30", true},
		{"temp < 30", false},
		{"count >= 3", true},
		{"count <= 2", false},
		{"count == 3", true},
		{"count != 3", false},
		{"decoded == 5", true},
		{"loggedIn == true", true},
		{"loggedIn == false", false},
		{`name == "alice"`, true},
		{`name != "bob"`, true},
		{`入力キー == "hello world"`, true},
		{`ctx["入力キー"] == "hello world"`, true},
		{`入力キー != "hello"`, true},
		{"nothing == undefined", true},
		{"ctx.missing == 1", false},
		{"is_undefined(ctx.missing)", true},
		{"profile.age == 42", true},
		{"count > 1 && loggedIn", true},
		{"loggedIn", true},
		{"empty", false},
		{"!empty", true},
		{"!ctx.missing", true},
		{"count", true},
	}
	for _, tt := range tests {
		got, err := Evaluate(context.Background(), c, tt.expr)
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, got, tt.expr)
	}

	for _, bad := range []string{"", "a b", "count ~ 3", "count >", "missing == 1", `name > 1`} {
		_, err := Evaluate(context.Background(), c, bad)
		assert.Error(t, err, bad)
	}
}
