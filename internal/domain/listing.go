package domain

import (
	"sort"
	"strings"
)

const Wildcard = "*"

type ListCursor struct {
	Page  int
	Limit int
	Name  string
}

type ListPage struct {
	Users []UserSummary `json:"users"`
	More  bool          `json:"more"`
}

// PageUsers filters users by cursor.Name and returns the requested page in id
// order. A page past the end is empty rather than an error.
func PageUsers(cursor ListCursor, users []UserSummary) (ListPage, error) {
	if cursor.Page < 0 || cursor.Limit <= 0 {
		return ListPage{}, ErrInvalidInput
	}

	matched := make([]UserSummary, 0, len(users))
	for _, u := range users {
		if MatchName(cursor.Name, u.Name) {
			matched = append(matched, u)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start := cursor.Page * cursor.Limit
	if start >= len(matched) || start/cursor.Limit != cursor.Page {
		return ListPage{Users: []UserSummary{}}, nil
	}
	end := min(start+cursor.Limit, len(matched))
	return ListPage{Users: matched[start:end], More: end < len(matched)}, nil
}

// MatchName matches name against pattern where each * stands for any
// substring. Without a * the match is exact and case-sensitive. An empty
// pattern matches everything.
func MatchName(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	if !strings.Contains(pattern, Wildcard) {
		return pattern == name
	}
	parts := strings.Split(pattern, Wildcard)
	if !strings.HasPrefix(name, parts[0]) {
		return false
	}
	rest := name[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return len(rest) >= len(last) && strings.HasSuffix(rest, last)
}
