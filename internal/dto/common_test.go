package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationMeta(t *testing.T) {
	cases := []struct {
		name        string
		page, limit int
		total       int64
		want        PaginationMeta
	}{
		{
			name: "middle page", page: 2, limit: 10, total: 25,
			want: PaginationMeta{Page: 2, Limit: 10, Total: 25, Pages: 3, HasNextPage: true, HasPrevPage: true},
		},
		{
			name: "first page", page: 1, limit: 10, total: 25,
			want: PaginationMeta{Page: 1, Limit: 10, Total: 25, Pages: 3, HasNextPage: true, HasPrevPage: false},
		},
		{
			name: "last page", page: 3, limit: 10, total: 25,
			want: PaginationMeta{Page: 3, Limit: 10, Total: 25, Pages: 3, HasNextPage: false, HasPrevPage: true},
		},
		{
			name: "exact fit", page: 2, limit: 10, total: 20,
			want: PaginationMeta{Page: 2, Limit: 10, Total: 20, Pages: 2, HasNextPage: false, HasPrevPage: true},
		},
		{
			name: "empty", page: 1, limit: 10, total: 0,
			want: PaginationMeta{Page: 1, Limit: 10, Total: 0, Pages: 0, HasNextPage: false, HasPrevPage: false},
		},
		{
			name: "defaults applied", page: 0, limit: 0, total: 25,
			want: PaginationMeta{Page: 1, Limit: 10, Total: 25, Pages: 3, HasNextPage: true, HasPrevPage: false},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NewPaginationMeta(tc.page, tc.limit, tc.total))
		})
	}
}
