// Package location normalizes free-text country and city values to
// standard codes: ISO 3166-1 alpha-2 for countries and the 3-letter
// UN/LOCODE city portion for cities. Unmapped values pass through
// unchanged and are reported once per distinct value.
package location

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/silversky/crm-enrich/internal/model"
)

// countrySynonyms folds the spellings seen in source exports onto the
// canonical country name before the ISO lookup.
var countrySynonyms = map[string]string{
	"usa":            "United States",
	"us":             "United States",
	"u.s.":           "United States",
	"u.s.a.":         "United States",
	"united states of america": "United States",
	"uk":             "United Kingdom",
	"u.k.":           "United Kingdom",
	"great britain":  "United Kingdom",
	"uae":            "United Arab Emirates",
	"belguim":        "Belgium", // recurring typo in source data
	"holland":        "Netherlands",
}

var countryToISO = map[string]string{
	"Andorra": "AD", "Australia": "AU", "Austria": "AT", "Bahrain": "BH",
	"Belgium": "BE", "Brazil": "BR", "Canada": "CA", "China": "CN",
	"Cyprus": "CY", "Denmark": "DK", "Egypt": "EG", "Finland": "FI",
	"France": "FR", "Germany": "DE", "Hong Kong": "HK", "India": "IN",
	"Israel": "IL", "Italy": "IT", "Kuwait": "KW", "Lithuania": "LT",
	"Luxembourg": "LU", "Monaco": "MC", "Netherlands": "NL",
	"New York": "US", // state listed as country in source data
	"Norway": "NO", "Poland": "PL", "Portugal": "PT", "Romania": "RO",
	"Saudi Arabia": "SA", "Singapore": "SG", "Spain": "ES", "Sweden": "SE",
	"Switzerland": "CH", "United Arab Emirates": "AE",
	"United Kingdom": "UK", "United States": "US",
}

var cityToLocode = map[string]string{
	"Ahmedabad": "AMD", "Bengaluru": "BLR", "Mumbai": "BOM",
	"Amsterdam": "AMS", "Arnhem": "ARN", "Maastricht": "MST",
	"The Hague": "HAG", "Andorra la Vella": "ALV",
	"Atlanta": "ATL", "Austin": "AUS", "Baltimore": "BAL",
	"Bellevue": "BVU", "Bethesda": "BES", "Boise": "BOI",
	"Boston": "BOS", "Boulder": "BOU", "Charlotte": "CLT",
	"Chicago": "CHI", "Cincinnati": "CVG", "Cleveland": "CLE",
	"Dallas": "DFW", "Denver": "DEN", "Fort Worth": "FTW",
	"Grand Rapids": "GRR", "Greenwich": "GRW", "Houston": "HOU",
	"Huntsville": "HSV", "Knoxville": "TYS", "Los Angeles": "LAX",
	"Memphis": "MEM", "Menlo Park": "MPK", "Miami": "MIA",
	"Miami Beach": "MIB", "Minneapolis": "MSP", "New York": "NYC",
	"Oklahoma City": "OKC", "Philadelphia": "PHL", "Raleigh": "RDU",
	"Redwood City": "RWC", "Reno": "RNO", "Rockville": "RKV",
	"Saint Louis": "STL", "St. Louis": "STL", "San Francisco": "SFO",
	"Seattle": "SEA", "Tampa": "TPA", "Tysons": "TYS",
	"West Palm Beach": "PBI", "Winston-Salem": "INT",
	"Baden-Baden": "BAD", "Berlin": "BER", "Cologne": "CGN",
	"Dresden": "DRS", "Dusseldorf": "DUS", "Frankfurt": "FRA",
	"Hamburg": "HAM", "Munich": "MUC", "Wiesbaden": "WIE",
	"Barcelona": "BCN",
	"Basel": "BSL", "Geneva": "GVA", "Lausanne": "LSN",
	"Lugano": "LUG", "Zug": "ZUG", "Zurich": "ZRH",
	"Bucharest": "BUH",
	"Calgary": "YYC", "Montreal": "YMQ", "Saskatoon": "YXE", "Toronto": "YYZ",
	"Copenhagen": "CPH",
	"Dubai": "DXB", "Kuwait City": "KWI",
	"Edinburgh": "EDI", "London": "LON", "Oxford": "OXF",
	"Florence": "FLR", "Milan": "MIL",
	"Sydney": "SYD",
	"Helsinki": "HEL",
	"Hong Kong": "HKG",
	"Jeddah": "JED",
	"Manama": "BAH",
	"Monaco": "MCM",
	"Oslo": "OSL",
	"Paris": "PAR",
	"Ramat Gan": "RMG",
	"Shanghai": "SHA",
	"Singapore": "SIN",
	"Stockholm": "STO",
	"Vienna": "VIE",
	"Vilnius": "VNO",
	"Wrocław": "WRO",
	"Luxembourg": "LUX",
	"São Paulo": "SAO",
}

// Normalizer performs case-folded lookups into the code tables.
type Normalizer struct {
	folder    cases.Caser
	countries map[string]string
	cities    map[string]string
}

// NewNormalizer builds the folded lookup maps.
func NewNormalizer() *Normalizer {
	n := &Normalizer{
		folder:    cases.Fold(),
		countries: make(map[string]string, len(countryToISO)),
		cities:    make(map[string]string, len(cityToLocode)),
	}
	for name, code := range countryToISO {
		n.countries[n.fold(name)] = code
	}
	for name, code := range cityToLocode {
		n.cities[n.fold(name)] = code
	}
	return n
}

func (n *Normalizer) fold(s string) string {
	return n.folder.String(strings.TrimSpace(s))
}

// CountryCode maps a country value, folding synonyms first.
func (n *Normalizer) CountryCode(name string) (string, bool) {
	key := n.fold(name)
	if canonical, ok := countrySynonyms[key]; ok {
		key = n.fold(canonical)
	}
	code, ok := n.countries[key]
	return code, ok
}

// CityCode maps a city value.
func (n *Normalizer) CityCode(name string) (string, bool) {
	code, ok := n.cities[n.fold(name)]
	return code, ok
}

// CanonicalCountry folds a synonym to its canonical country name; values
// without a known synonym come back trimmed but otherwise unchanged.
func (n *Normalizer) CanonicalCountry(name string) string {
	if canonical, ok := countrySynonyms[n.fold(name)]; ok {
		return canonical
	}
	return strings.TrimSpace(name)
}

// Stats summarizes one Apply pass. Unmapped lists hold distinct values in
// first-seen order.
type Stats struct {
	Total             int
	CountriesMapped   int
	CitiesMapped      int
	UnmappedCountries []string
	UnmappedCities    []string
}

// Apply rewrites fund.country and fund.city in place. Unmapped values
// are left untouched and collected once per distinct value.
func (n *Normalizer) Apply(records []model.Record) *Stats {
	stats := &Stats{Total: len(records)}
	seenCountries := make(map[string]bool)
	seenCities := make(map[string]bool)

	for _, rec := range records {
		if country := rec.Get(model.FundCountry); strings.TrimSpace(country) != "" {
			if code, ok := n.CountryCode(country); ok {
				rec.Set(model.FundCountry, code)
				stats.CountriesMapped++
			} else if key := n.fold(country); !seenCountries[key] {
				seenCountries[key] = true
				stats.UnmappedCountries = append(stats.UnmappedCountries, strings.TrimSpace(country))
			}
		}
		if city := rec.Get(model.FundCity); strings.TrimSpace(city) != "" {
			if code, ok := n.CityCode(city); ok {
				rec.Set(model.FundCity, code)
				stats.CitiesMapped++
			} else if key := n.fold(city); !seenCities[key] {
				seenCities[key] = true
				stats.UnmappedCities = append(stats.UnmappedCities, strings.TrimSpace(city))
			}
		}
	}
	return stats
}
