package dump

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/logger"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "two statements",
			script: "CREATE TABLE a (id INTEGER);\nCREATE TABLE b (id INTEGER);\n",
			want:   []string{"CREATE TABLE a (id INTEGER)", "CREATE TABLE b (id INTEGER)"},
		},
		{
			name:   "semicolon inside string literal",
			script: "INSERT INTO t (v) VALUES ('a;b');\n",
			want:   []string{"INSERT INTO t (v) VALUES ('a;b')"},
		},
		{
			name:   "doubled quote escape",
			script: "INSERT INTO t (v) VALUES ('it''s; fine');\n",
			want:   []string{"INSERT INTO t (v) VALUES ('it''s; fine')"},
		},
		{
			name:   "comments stripped",
			script: "-- sqlew dump\n-- source dialect: sqlite\nSELECT 1;\n",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "multiline statement",
			script: "CREATE TABLE a (\n  id INTEGER\n);\n",
			want:   []string{"CREATE TABLE a (\n  id INTEGER\n)"},
		},
		{
			name:   "trailing statement without semicolon",
			script: "SELECT 1",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "empty script",
			script: "\n\n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}

// execRecorder records executed statements and fails on request.
type execRecorder struct {
	fakeDB
	stmts   []string
	failAt  int
	failErr error
}

func (e *execRecorder) Exec(ctx context.Context, q string, args ...any) error {
	if e.failErr != nil && len(e.stmts) == e.failAt {
		return e.failErr
	}
	e.stmts = append(e.stmts, q)
	return nil
}

func TestReplay(t *testing.T) {
	db := &execRecorder{}
	script := "CREATE TABLE a (id INTEGER);\nCREATE TABLE b (id INTEGER);\nINSERT INTO a (id) VALUES\n  (1),\n  (2);\n"

	n, err := Replay(context.Background(), db, script, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, db.stmts, 3)
	assert.Equal(t, "CREATE TABLE a (id INTEGER)", db.stmts[0])
}

func TestReplay_StopsAtFirstFailure(t *testing.T) {
	db := &execRecorder{failAt: 1, failErr: errors.New("boom")}
	script := "SELECT 1;\nSELECT 2;\nSELECT 3;\n"

	n, err := Replay(context.Background(), db, script, logger.Nop())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, db.stmts, 1)
	assert.True(t, database.IsQueryFailed(err))
}
