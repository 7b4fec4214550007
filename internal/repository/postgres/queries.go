package postgres

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed queries.sql
var queriesSQL string

// Query names in queries.sql.
const (
	qListUsers        = "list-users"
	qGetUser          = "get-user"
	qListUserProfiles = "list-user-profiles"
	qFeedingLogs      = "feeding-logs"
	qLatestMoisture   = "latest-moisture"
	qLatestForecast   = "latest-forecast"
)

// parseNamedQueries splits a SQL file into blocks introduced by
// "-- name: <name>" lines. Text before the first marker is ignored.
func parseNamedQueries(text string) (map[string]string, error) {
	queries := make(map[string]string)
	blocks := strings.Split(text, "-- name:")
	for _, block := range blocks[1:] {
		nameLine, body, _ := strings.Cut(block, "\n")
		name := strings.TrimSpace(nameLine)
		if name == "" {
			return nil, fmt.Errorf("postgres: unnamed query block")
		}
		if _, dup := queries[name]; dup {
			return nil, fmt.Errorf("postgres: duplicate query %q", name)
		}
		body = strings.TrimSpace(body)
		if body == "" {
			return nil, fmt.Errorf("postgres: query %q is empty", name)
		}
		queries[name] = body
	}
	return queries, nil
}

// loadQueries parses the embedded file and checks every expected name exists.
func loadQueries() (map[string]string, error) {
	queries, err := parseNamedQueries(queriesSQL)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{qListUsers, qGetUser, qListUserProfiles, qFeedingLogs, qLatestMoisture, qLatestForecast} {
		if _, ok := queries[name]; !ok {
			return nil, fmt.Errorf("postgres: query %q missing from queries.sql", name)
		}
	}
	return queries, nil
}
