// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgx5URL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/registry":   "pgx5://u:p@db:5432/registry",
		"postgresql://u:p@db:5432/registry": "pgx5://u:p@db:5432/registry",
		"pgx5://u:p@db:5432/registry":       "pgx5://u:p@db:5432/registry",
		"host=db user=u dbname=registry":    "host=db user=u dbname=registry",
	}

	for in, want := range tests {
		assert.Equal(t, want, pgx5URL(in), in)
	}
}

func TestSourceURL(t *testing.T) {
	url, err := sourceURL("./data/migrations")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "/data/migrations"))
	assert.True(t, filepath.IsAbs(strings.TrimPrefix(url, "file://")))
}
