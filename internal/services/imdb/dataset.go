package imdb

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Dataset file names as published on datasets.imdbws.com.
const (
	NamesFile      = "name.basics.tsv.gz"
	TitlesFile     = "title.basics.tsv.gz"
	PrincipalsFile = "title.principals.tsv.gz"
)

// Name is a row of name.basics.
type Name struct {
	NConst      int      `json:"nconst"`
	PrimaryName string   `json:"primary_name"`
	BirthYear   int      `json:"birth_year,omitempty"`
	DeathYear   int      `json:"death_year,omitempty"`
	Professions []string `json:"professions,omitempty"`
}

// Title is a row of title.basics.
type Title struct {
	TConst         int      `json:"tconst"`
	TitleType      string   `json:"title_type"`
	PrimaryTitle   string   `json:"primary_title"`
	OriginalTitle  string   `json:"original_title"`
	StartYear      int      `json:"start_year,omitempty"`
	RuntimeMinutes int      `json:"runtime_minutes,omitempty"`
	Genres         []string `json:"genres,omitempty"`
}

// Principal is a row of title.principals.
type Principal struct {
	TConst   int    `json:"tconst"`
	Ordering int    `json:"ordering"`
	NConst   int    `json:"nconst"`
	Category string `json:"category"`
}

// Person is a cast or crew member enriched from name.basics.
type Person struct {
	NConst    string `json:"nconst"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Gender    string `json:"gender"`
	Character string `json:"character,omitempty"`
	Ordering  int    `json:"ordering,omitempty"`
	BirthYear int    `json:"birth_year,omitempty"`
}

// Dataset holds the subset of the IMDb dumps needed for one or more titles.
type Dataset struct {
	Names      map[int]Name
	Titles     map[int]Title
	Principals map[int][]Principal
}

// LoadDataset reads the three dumps from dir. When titles is non-empty only
// rows for those title ids, and the people credited on them, are kept.
func LoadDataset(dir string, titles ...int) (*Dataset, error) {
	keep := make(map[int]bool, len(titles))
	for _, id := range titles {
		keep[id] = true
	}
	ds := &Dataset{}

	err := withGzip(filepath.Join(dir, PrincipalsFile), func(r io.Reader) error {
		p, err := ReadPrincipals(r, keep)
		ds.Principals = p
		return err
	})
	if err != nil {
		return nil, err
	}
	err = withGzip(filepath.Join(dir, TitlesFile), func(r io.Reader) error {
		t, err := ReadTitles(r, keep)
		ds.Titles = t
		return err
	})
	if err != nil {
		return nil, err
	}
	var people map[int]bool
	if len(keep) > 0 {
		people = make(map[int]bool)
		for _, rows := range ds.Principals {
			for _, p := range rows {
				people[p.NConst] = true
			}
		}
	}
	err = withGzip(filepath.Join(dir, NamesFile), func(r io.Reader) error {
		n, err := ReadNames(r, people)
		ds.Names = n
		return err
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func withGzip(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("gunzip %s: %w", filepath.Base(path), err)
	}
	defer gz.Close()
	if err := fn(gz); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}

// eachRow calls fn with the tab separated fields of every data row.
func eachRow(r io.Reader, fn func(fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := fn(strings.Split(line, "\t")); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func nullable(field string) string {
	if field == `\N` {
		return ""
	}
	return field
}

func atoiNullable(field string) int {
	n, _ := strconv.Atoi(nullable(field))
	return n
}

func listNullable(field string) []string {
	field = nullable(field)
	if field == "" {
		return nil
	}
	return strings.Split(field, ",")
}

// ParseID strips a two letter prefix ("tt", "nm") and returns the integer id.
func ParseID(id string) (int, bool) {
	if len(id) > 2 && (strings.HasPrefix(id, "tt") || strings.HasPrefix(id, "nm")) {
		id = id[2:]
	}
	n, err := strconv.Atoi(id)
	return n, err == nil
}

// ReadNames parses name.basics. A nil keep map retains every row.
func ReadNames(r io.Reader, keep map[int]bool) (map[int]Name, error) {
	out := make(map[int]Name)
	err := eachRow(r, func(f []string) error {
		if len(f) < 5 {
			return nil
		}
		id, ok := ParseID(f[0])
		if !ok || (keep != nil && !keep[id]) {
			return nil
		}
		out[id] = Name{
			NConst:      id,
			PrimaryName: nullable(f[1]),
			BirthYear:   atoiNullable(f[2]),
			DeathYear:   atoiNullable(f[3]),
			Professions: listNullable(f[4]),
		}
		return nil
	})
	return out, err
}

// ReadTitles parses title.basics. An empty keep map retains every row.
func ReadTitles(r io.Reader, keep map[int]bool) (map[int]Title, error) {
	out := make(map[int]Title)
	err := eachRow(r, func(f []string) error {
		if len(f) < 9 {
			return nil
		}
		id, ok := ParseID(f[0])
		if !ok || (len(keep) > 0 && !keep[id]) {
			return nil
		}
		out[id] = Title{
			TConst:         id,
			TitleType:      nullable(f[1]),
			PrimaryTitle:   nullable(f[2]),
			OriginalTitle:  nullable(f[3]),
			StartYear:      atoiNullable(f[5]),
			RuntimeMinutes: atoiNullable(f[7]),
			Genres:         listNullable(f[8]),
		}
		return nil
	})
	return out, err
}

// ReadPrincipals parses title.principals grouped by title. An empty keep map
// retains every row.
func ReadPrincipals(r io.Reader, keep map[int]bool) (map[int][]Principal, error) {
	out := make(map[int][]Principal)
	err := eachRow(r, func(f []string) error {
		if len(f) < 4 {
			return nil
		}
		tconst, ok := ParseID(f[0])
		if !ok || (len(keep) > 0 && !keep[tconst]) {
			return nil
		}
		nconst, ok := ParseID(f[2])
		if !ok {
			return nil
		}
		out[tconst] = append(out[tconst], Principal{
			TConst:   tconst,
			Ordering: atoiNullable(f[1]),
			NConst:   nconst,
			Category: f[3],
		})
		return nil
	})
	return out, err
}

// GenderFromProfessions maps primaryProfession to F, M or "?".
func GenderFromProfessions(professions []string) string {
	joined := strings.Join(professions, ",")
	switch {
	case strings.Contains(joined, "actress"):
		return "F"
	case strings.Contains(joined, "actor"):
		return "M"
	default:
		return "?"
	}
}

func (ds *Dataset) person(nconst int) Person {
	p := Person{NConst: NameID(nconst), URL: NameURL(nconst), Gender: "?"}
	if name, ok := ds.Names[nconst]; ok {
		p.Name = name.PrimaryName
		p.BirthYear = name.BirthYear
		p.Gender = GenderFromProfessions(name.Professions)
	}
	return p
}

// EnrichCast attaches names, URLs and genders to scraped cast entries, in
// credit order.
func (ds *Dataset) EnrichCast(cast []CastEntry) []Person {
	out := make([]Person, 0, len(cast))
	for i, entry := range cast {
		p := ds.person(entry.NConst)
		if p.Name == "" {
			p.Name = entry.Name
		}
		p.Character = entry.Character
		p.Ordering = i + 1
		out = append(out, p)
	}
	return out
}

// Principal returns the first person credited on tconst under category
// ("director", "producer", ...).
func (ds *Dataset) Principal(tconst int, category string) (*Person, bool) {
	for _, p := range ds.Principals[tconst] {
		if p.Category == category {
			person := ds.person(p.NConst)
			person.Ordering = p.Ordering
			return &person, true
		}
	}
	return nil, false
}
