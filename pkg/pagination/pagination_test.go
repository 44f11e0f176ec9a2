// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kkm-registry/pkg/pagination"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantAfter string
		wantLimit int
		wantErr   bool
	}{
		{"defaults", "", "", 25, false},
		{"cursor_and_limit", "?last_email=b%40x.io&limit=10", "b@x.io", 10, false},
		{"clamped", "?limit=1000", "", 100, false},
		{"zero", "?limit=0", "", 0, true},
		{"garbage", "?limit=ten", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := pagination.FromRequest(httptest.NewRequest("GET", "/api/v1/users"+tt.query, nil), "last_email")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAfter, params.After)
			assert.Equal(t, tt.wantLimit, params.Limit)
			assert.Equal(t, tt.wantLimit+1, params.FetchLimit())
		})
	}
}

func TestTrim(t *testing.T) {
	page, more := pagination.Trim([]int{1, 2, 3}, 2)
	assert.Equal(t, []int{1, 2}, page)
	assert.True(t, more)

	page, more = pagination.Trim([]int{1, 2}, 2)
	assert.Equal(t, []int{1, 2}, page)
	assert.False(t, more)
}
