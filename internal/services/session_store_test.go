package services

import (
	"testing"

	"library-catalog/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSessionStore(t *testing.T) {
	s := NewSessionStore()
	s.Put(models.Session{Token: "t1", User: models.PublicUser{Username: "amy", Role: "user"}})
	s.Put(models.Session{Token: "t2", User: models.PublicUser{Username: "amy", Role: "user"}})
	s.Put(models.Session{Token: "t3", User: models.PublicUser{Username: "bob", Role: "user"}})

	got, ok := s.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, "amy", got.User.Username)

	assert.Equal(t, 2, s.UpdateUser(models.PublicUser{Username: "amy", DisplayName: "Amy", Role: "admin"}))
	got, _ = s.Get("t2")
	assert.Equal(t, "admin", got.User.Role)
	got, _ = s.Get("t3")
	assert.Equal(t, "user", got.User.Role)

	assert.Equal(t, 2, s.RevokeUser("amy"))
	_, ok = s.Get("t1")
	assert.False(t, ok)

	assert.True(t, s.Delete("t3"))
	assert.False(t, s.Delete("t3"))

	s.Put(models.Session{Token: "t4"})
	assert.Equal(t, 1, s.Clear())
	assert.Zero(t, s.Len())
}
