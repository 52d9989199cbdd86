package postgres

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a database query returns no rows.
var ErrNotFound = errors.New("record not found")

// notFound wraps ErrNotFound with the name of the entity that was not found.
func notFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// isNoRows checks whether the error is pgx.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// replyPrefixRe matches one or more repeated reply/forward markers; stripping is
// case-insensitive and handles repeated prefixes like "Re: Fwd: Re:".
var replyPrefixRe = regexp.MustCompile(`(?i)^\s*((re|fwd?|r|aw|wg)\s*:\s*)+`)

// normalizeSubjectSQLPattern is the same pattern in Postgres regexp_replace syntax,
// used by the ListByNormalizedSubject queries so the SQL-side and Go-side
// normalization never drift apart.
const normalizeSubjectSQLPattern = `^\s*((re|fwd?|r|aw|wg)\s*:\s*)+`

// normalizeSubject strips leading reply/forward markers and lowercases the result,
// for use as a thread-resolution fallback when Message-ID tokens don't match.
func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(replyPrefixRe.ReplaceAllString(subject, "")))
}
