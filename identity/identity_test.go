package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":   RoleAdmin,
		" Author": RoleAuthor,
		"reader":  RoleReader,
		"":        RoleReader,
		"owner":   RoleReader,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseRole(in), "input %q", in)
	}
}

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleAuthor))
	assert.True(t, RoleAuthor.AtLeast(RoleAuthor))
	assert.False(t, RoleReader.AtLeast(RoleAuthor))
	assert.False(t, RoleAuthor.AtLeast(RoleAdmin))
	assert.True(t, Role("unknown").AtLeast(RoleReader))
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := NewContext(context.Background(), Identity{ID: "u1", Role: RoleAdmin})
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", got.ID)
}
