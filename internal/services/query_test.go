package services

import (
	"testing"

	"library-catalog/internal/models"
	"library-catalog/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	svc, _ := newCatalog(t,
		models.Book{ID: "B1", Title: "Learning Go", Author: "Jon", Category: "Tech", PublishYear: "2020"},
		models.Book{ID: "B2", Title: "Go", Author: "Alan", Category: "tech", PublishYear: "2015"},
		models.Book{ID: "B3", Title: "Dune", Author: "Frank", Category: "Fiction", PublishYear: "1965"},
	)

	cases := []struct {
		expr string
		want []string
	}{
		{"", []string{"B1", "B2", "B3"}},
		{`//book[category="TECH"]`, []string{"B1", "B2"}},
		{`//book[title = "go"]`, []string{"B2"}},
		{`//book[contains(title,"go")]`, []string{"B1", "B2"}},
		{` //book[ contains( author , "an" ) ] `, []string{"B2", "B3"}},
		{`//book[id="B3"]`, []string{"B3"}},
		{`//book[title="nothing"]`, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			data, err := svc.Query(tc.expr)
			require.NoError(t, err)

			books, err := store.DecodeBooks(data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(books))
		})
	}
}

func TestQuery_RejectsUnsupportedExpressions(t *testing.T) {
	svc, _ := newCatalog(t, goBook())

	for _, expr := range []string{
		`//book`,
		`//book[price>10]`,
		`//book[title="Go"] | //book`,
		`//book[starts-with(title,"G")]`,
		`//book[password="x"]`,
	} {
		_, err := svc.Query(expr)
		assert.ErrorIs(t, err, models.ErrValidation, expr)
	}
}
