// internal/workers/route-planning/parse-route-intent/resolve.go
package parserouteintent

import (
	"regexp"
	"sort"
	"strings"

	"rouvia/internal/models"
)

// resolution is the outcome of matching names against a user's saved locations.
type resolution struct {
	locations []models.ResolvedLocation
	unmatched []string
}

// resolvePersonal matches collaborator-reported names, then saved names
// mentioned verbatim in text. Matching is case-insensitive; each saved
// location resolves at most once.
func resolvePersonal(reported []string, text string, saved []models.SavedLocation) resolution {
	var res resolution
	taken := make(map[string]bool, len(saved))

	for _, name := range reported {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		loc, ok := findSaved(saved, name)
		if !ok {
			res.unmatched = appendUnique(res.unmatched, name)
			continue
		}
		if !taken[loc.ID] {
			taken[loc.ID] = true
			res.locations = append(res.locations, toResolved(loc))
		}
	}

	type mention struct {
		at  int
		loc models.SavedLocation
	}
	var mentions []mention
	for _, loc := range saved {
		if taken[loc.ID] || strings.TrimSpace(loc.Name) == "" {
			continue
		}
		if at := wordIndex(text, loc.Name); at >= 0 {
			mentions = append(mentions, mention{at: at, loc: loc})
		}
	}
	sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].at < mentions[j].at })
	for _, m := range mentions {
		taken[m.loc.ID] = true
		res.locations = append(res.locations, toResolved(m.loc))
	}
	return res
}

func findSaved(saved []models.SavedLocation, name string) (models.SavedLocation, bool) {
	for _, l := range saved {
		if strings.EqualFold(strings.TrimSpace(l.Name), name) {
			return l, true
		}
	}
	return models.SavedLocation{}, false
}

// wordIndex finds name in text as a whole word, case-insensitively.
func wordIndex(text, name string) int {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(name)) + `\b`)
	if err != nil {
		return -1
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

func toResolved(l models.SavedLocation) models.ResolvedLocation {
	return models.ResolvedLocation{ID: l.ID, Name: l.Name, Address: l.Address}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return list
		}
	}
	return append(list, v)
}

// withoutPersonal drops categories naming a resolved personal location and
// blank or repeated entries.
func withoutPersonal(categories []string, personal []models.ResolvedLocation) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		skip := false
		for _, p := range personal {
			if strings.EqualFold(c, p.Name) {
				skip = true
				break
			}
		}
		if !skip {
			out = appendUnique(out, c)
		}
	}
	return out
}

// alignLastDestination keeps last when it is one of categories and otherwise
// picks the final category.
func alignLastDestination(last string, categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	last = strings.TrimSpace(last)
	for _, c := range categories {
		if strings.EqualFold(c, last) {
			return c
		}
	}
	return categories[len(categories)-1]
}
