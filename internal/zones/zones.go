package zones

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/superdango/digital-carbon-tracker/internal/must"
)

//go:embed data/zones.csv
var zonesCSV []byte

// Zone is an electricity grid area known by the carbon intensity provider
type Zone struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Catalog holds known zones in file order
type Catalog struct {
	zones     []Zone
	fullNames []string
}

// Default is the catalog of embedded zones
var Default = mustParse(zonesCSV)

func mustParse(data []byte) *Catalog {
	c, err := Parse(bytes.NewReader(data))
	must.NoError(err)
	return c
}

// Parse reads a zones csv with a header line and three columns: zone, name and country.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	if _, err := reader.Read(); err != nil { // skip header line
		return nil, err
	}

	c := new(Catalog)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		z := Zone{Code: record[0], Name: record[1], Country: record[2]}
		c.zones = append(c.zones, z)
		c.fullNames = append(c.fullNames, z.Code+" "+z.Name+" "+z.Country)
	}

	return c, nil
}

// All returns every zone of the catalog
func (c *Catalog) All() []Zone {
	return append([]Zone(nil), c.zones...)
}

// Get returns the zone with the code, case insensitive
func (c *Catalog) Get(code string) (Zone, bool) {
	for _, z := range c.zones {
		if strings.EqualFold(z.Code, code) {
			return z, true
		}
	}
	return Zone{}, false
}

// Lookup fuzzy finds the zones matching the query, best matches first. An exact
// zone code is always the first result.
func (c *Catalog) Lookup(query string) []Zone {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	results := make([]Zone, 0)
	seen := make(map[int]bool)

	for i, z := range c.zones {
		if strings.EqualFold(z.Code, query) {
			results = append(results, z)
			seen[i] = true
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(query, c.fullNames)
	sort.Stable(ranks)
	for _, rank := range ranks {
		if seen[rank.OriginalIndex] {
			continue
		}
		seen[rank.OriginalIndex] = true
		results = append(results, c.zones[rank.OriginalIndex])
	}

	slog.Debug("fuzzy found zones", "query", query, "matches", len(results))

	return results
}
