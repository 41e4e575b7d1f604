package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookPayload_AcceptsStringsAndNumbers(t *testing.T) {
	var p BookPayload
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Go","price":9.5,"stock":"3","publishYear":-1,"category":null}`), &p))

	assert.Equal(t, Loose("Go"), p.Title)
	assert.Equal(t, Loose("9.5"), p.Price)
	assert.Equal(t, Loose("3"), p.Stock)
	assert.Equal(t, Loose("-1"), p.PublishYear)
	assert.False(t, p.Category.Set)
	assert.False(t, p.Author.Set)
}

func TestBookPayload_RejectsOtherJSONTypes(t *testing.T) {
	for _, body := range []string{
		`{"title":{"a":1}}`,
		`{"title":true}`,
		`{"author":false}`,
		`{"price":[1,2]}`,
	} {
		var p BookPayload
		err := json.Unmarshal([]byte(body), &p)
		assert.ErrorIs(t, err, ErrValidation, body)
	}
}
