package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so s matches literally under ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
