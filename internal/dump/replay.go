package dump

import (
	"context"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/logger"
)

// Replay executes a generated script's statements sequentially against a
// live target connection. Execution stops at the first failing statement;
// each statement is atomic at the engine level, so a partial replay can be
// resumed by re-running the script once the failure is fixed (CREATE
// statements carry IF NOT EXISTS guards where the dialect supports them).
func Replay(ctx context.Context, db database.DB, script string, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Nop()
	}

	stmts := SplitStatements(script)
	for i, stmt := range stmts {
		if err := db.Exec(ctx, stmt); err != nil {
			return i, database.WrapError(database.ErrKindQueryFailed,
				"replay statement "+summarize(stmt), err)
		}
	}

	log.With().Int("statements", len(stmts)).Logger().Info("replay complete")
	return len(stmts), nil
}

// SplitStatements splits a SQL script on top-level semicolons. Semicolons
// inside single-quoted literals (with doubled-quote escaping) are preserved;
// line comments are stripped. Good enough for scripts this package emits,
// not a general SQL parser.
func SplitStatements(script string) []string {
	var stmts []string
	var sb strings.Builder
	inString := false

	lines := strings.Split(script, "\n")
	for _, line := range lines {
		if !inString && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch {
			case ch == '\'':
				inString = !inString
				sb.WriteByte(ch)
			case ch == ';' && !inString:
				if s := strings.TrimSpace(sb.String()); s != "" {
					stmts = append(stmts, s)
				}
				sb.Reset()
			default:
				sb.WriteByte(ch)
			}
		}
		sb.WriteByte('\n')
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

func summarize(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if idx := strings.IndexByte(stmt, '\n'); idx > 0 {
		stmt = stmt[:idx]
	}
	if len(stmt) > 60 {
		stmt = stmt[:60] + "…"
	}
	return stmt
}
