// Package genres maps free-form genre names to the canonical slugs stored on
// films and series, with the French labels shown in the catalog.
package genres

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Genre is a canonical genre
type Genre struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

var canonical = []Genre{
	{"action", "Action"},
	{"action-adventure", "Action & Aventure"},
	{"adventure", "Aventure"},
	{"animation", "Animation"},
	{"comedy", "Comédie"},
	{"crime", "Crime"},
	{"documentary", "Documentaire"},
	{"drama", "Drame"},
	{"family", "Famille"},
	{"fantasy", "Fantastique"},
	{"history", "Histoire"},
	{"horror", "Horreur"},
	{"kids", "Enfants"},
	{"music", "Musique"},
	{"mystery", "Mystère"},
	{"news", "Actualités"},
	{"reality", "Téléréalité"},
	{"romance", "Romance"},
	{"sci-fi", "Science-Fiction"},
	{"sci-fi-fantasy", "Science-Fiction & Fantastique"},
	{"soap", "Feuilleton"},
	{"talk", "Talk-show"},
	{"thriller", "Thriller"},
	{"tv-movie", "Téléfilm"},
	{"war", "Guerre"},
	{"war-politics", "Guerre & Politique"},
	{"western", "Western"},
}

// Spellings that do not reduce to a slug or a label. Keys go through key().
var variants = map[string]string{
	"science fiction":                "sci-fi",
	"sci fi":                         "sci-fi",
	"scifi":                          "sci-fi",
	"sf":                             "sci-fi",
	"series science fiction":         "sci-fi",
	"sci fi and fantasy":             "sci-fi-fantasy",
	"scifi fantasy":                  "sci-fi-fantasy",
	"sci fi fantasy":                 "sci-fi-fantasy",
	"science fiction and fantasy":    "sci-fi-fantasy",
	"science fiction and fantastique": "sci-fi-fantasy",
	"science fiction et fantastique": "sci-fi-fantasy",
	"sf and fantastique":             "sci-fi-fantasy",
	"action and adventure":           "action-adventure",
	"action et aventure":             "action-adventure",
	"tv movie":                       "tv-movie",
	"telefilm":                       "tv-movie",
	"war and politics":               "war-politics",
	"guerre et politique":            "war-politics",
	"comedie":                        "comedy",
	"drame":                          "drama",
	"documentaire":                   "documentary",
	"famille":                        "family",
	"fantastique":                    "fantasy",
	"histoire":                       "history",
	"horreur":                        "horror",
	"musique":                        "music",
	"mystere":                        "mystery",
	"aventure":                       "adventure",
	"guerre":                         "war",
	"reality tv":                     "reality",
	"telerealite":                    "reality",
	"enfants":                        "kids",
	"actualites":                     "news",
	"feuilleton":                     "soap",
	"talk show":                      "talk",
}

// TMDB genre ids for movies and TV
var tmdbIDs = map[int]string{
	28:    "action",
	12:    "adventure",
	16:    "animation",
	35:    "comedy",
	80:    "crime",
	99:    "documentary",
	18:    "drama",
	10751: "family",
	14:    "fantasy",
	36:    "history",
	27:    "horror",
	10402: "music",
	9648:  "mystery",
	10749: "romance",
	878:   "sci-fi",
	10770: "tv-movie",
	53:    "thriller",
	10752: "war",
	37:    "western",
	10759: "action-adventure",
	10762: "kids",
	10763: "news",
	10764: "reality",
	10765: "sci-fi-fantasy",
	10766: "soap",
	10767: "talk",
	10768: "war-politics",
}

var (
	bySlug = make(map[string]Genre, len(canonical))
	byKey  = make(map[string]string)
)

func init() {
	for _, g := range canonical {
		bySlug[g.Slug] = g
		byKey[key(g.Slug)] = g.Slug
		byKey[key(g.Label)] = g.Slug
	}
	for k, slug := range variants {
		byKey[key(k)] = slug
	}
}

// key folds case and accents, spells "&" as "and" and collapses everything
// that is not a letter or digit into single spaces.
func key(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(strings.ToLower(folded), "&", " and ")

	var b strings.Builder
	space := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}

// Slugify turns a genre name into a lowercase dash-separated slug
func Slugify(s string) string {
	return strings.ReplaceAll(key(s), " ", "-")
}

// Normalize resolves s to a canonical genre. Unknown names are returned as a
// custom genre with ok=false; an empty slug means s held no usable text.
func Normalize(s string) (g Genre, ok bool) {
	k := key(s)
	if k == "" {
		return Genre{}, false
	}
	if slug, found := byKey[k]; found {
		return bySlug[slug], true
	}
	return Genre{Slug: strings.ReplaceAll(k, " ", "-"), Label: strings.TrimSpace(s)}, false
}

// NormalizeList normalizes genre names, each of which may be a
// comma-separated list. Duplicates are dropped and first-seen order is kept.
func NormalizeList(values ...string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			g, _ := Normalize(part)
			if g.Slug == "" || seen[g.Slug] {
				continue
			}
			seen[g.Slug] = true
			out = append(out, g.Slug)
		}
	}
	return out
}

// FromTMDB maps TMDB genre ids to slugs, skipping unknown ids
func FromTMDB(ids ...int) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, id := range ids {
		if slug, ok := tmdbIDs[id]; ok && !seen[slug] {
			seen[slug] = true
			out = append(out, slug)
		}
	}
	return out
}

// Label returns the display label of slug, or slug itself for custom genres
func Label(slug string) string {
	if g, ok := bySlug[slug]; ok {
		return g.Label
	}
	return slug
}

// Lookup returns the canonical genre for slug
func Lookup(slug string) (Genre, bool) {
	g, ok := bySlug[slug]
	return g, ok
}

// Join renders slugs as a comma-separated string
func Join(slugs []string) string {
	return strings.Join(slugs, ",")
}

// Split parses a comma-separated list of slugs
func Split(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// All returns every canonical genre sorted by label
func All() []Genre {
	out := append([]Genre(nil), canonical...)
	sort.Slice(out, func(i, j int) bool { return key(out[i].Label) < key(out[j].Label) })
	return out
}
