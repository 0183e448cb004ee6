// Package normalize turns loosely typed tool arguments into filter clauses
// and query parameters for the query builder.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"trade-graphql-mcp/internal/querybuilder"
	"trade-graphql-mcp/internal/registry"
)

// Canonical trade-flow values stored by the gateway.
const (
	FlowExport = "出口"
	FlowImport = "進口"
)

// hsExactLength is the shortest HS code treated as a complete code.
const hsExactLength = 6

// Country and area columns used by the country rule.
const (
	FieldCountryID = "COUNTRY_ID"
	FieldISO3      = "ISO3"
	FieldAreaID    = "AREA_ID"
	FieldCountryEN = "COUNTRY_COMM_EN"
	FieldCountryZH = "COUNTRY_COMM_ZH"
	FieldAreaName  = "AREA_NM"
)

const (
	startOfDaySuffix = "T00:00:00Z"
	endOfDaySuffix   = "T23:59:59Z"
)

var (
	iso2Pattern        = regexp.MustCompile(`^[A-Za-z]{2}$`)
	iso3Pattern        = regexp.MustCompile(`^[A-Za-z]{3}$`)
	areaIDPattern      = regexp.MustCompile(`^[A-Za-z_]+$`)
	englishNamePattern = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// Fold maps full-width ASCII (as typed with CJK input methods) to its
// half-width form and trims surrounding space, so "ＵＳ" and "US" match.
func Fold(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// HSCode returns the operator for an HS code: codes of six or more characters
// match exactly, shorter ones are category prefixes.
func HSCode(code string) (querybuilder.Operator, bool) {
	code = Fold(code)
	if code == "" {
		return querybuilder.Operator{}, false
	}
	if utf8.RuneCountInString(code) >= hsExactLength {
		return querybuilder.Eq(code), true
	}
	return querybuilder.StartsWith(code), true
}

// TradeFlow canonicalizes export/import spellings, matching on the folded
// form. Unrecognized values are returned exactly as given.
func TradeFlow(raw string) string {
	switch strings.ToLower(Fold(raw)) {
	case FlowExport, "1", "export":
		return FlowExport
	case FlowImport, "2", "import":
		return FlowImport
	}
	return raw
}

// DateRange returns range operators for an inclusive day range. Either bound
// may be empty; both empty yields no operators.
func DateRange(startDate, endDate string) []querybuilder.Operator {
	var ops []querybuilder.Operator
	if s := Fold(startDate); s != "" {
		ops = append(ops, querybuilder.Gte(s+startOfDaySuffix))
	}
	if e := Fold(endDate); e != "" {
		ops = append(ops, querybuilder.Lte(e+endOfDaySuffix))
	}
	return ops
}

// ApplyCountry classifies a country or area token and adds the matching
// clause to f. Rules are tried in order and a rule whose column the resolver
// lacks is skipped:
//
//	two letters             COUNTRY_ID eq, upper-cased
//	three letters           ISO3 eq, upper-cased
//	letters and underscore  AREA_ID eq, upper-cased; a bare word only counts
//	                        as an area id when the resolver has no
//	                        COUNTRY_COMM_EN column to match names against
//	letters and spaces      COUNTRY_COMM_EN contains
//	anything else           COUNTRY_COMM_ZH contains, or'ed with AREA_NM
//	                        contains when the resolver has both
//
// It reports whether a clause was added.
func ApplyCountry(f *querybuilder.Filter, desc registry.Descriptor, token string) bool {
	token = Fold(token)
	if token == "" {
		return false
	}
	upper := strings.ToUpper(token)

	switch {
	case iso2Pattern.MatchString(token) && desc.HasField(FieldCountryID):
		f.Set(FieldCountryID, querybuilder.Eq(upper))
		return true
	case iso3Pattern.MatchString(token) && desc.HasField(FieldISO3):
		f.Set(FieldISO3, querybuilder.Eq(upper))
		return true
	case areaIDPattern.MatchString(token) && desc.HasField(FieldAreaID) &&
		(strings.Contains(token, "_") || !desc.HasField(FieldCountryEN)):
		f.Set(FieldAreaID, querybuilder.Eq(upper))
		return true
	case englishNamePattern.MatchString(token) && desc.HasField(FieldCountryEN):
		f.Set(FieldCountryEN, querybuilder.Contains(token))
		return true
	}

	hasZH := desc.HasField(FieldCountryZH)
	switch {
	case hasZH && desc.HasField(FieldAreaName):
		f.SetOr(
			querybuilder.NewFilter().Set(FieldCountryZH, querybuilder.Contains(token)),
			querybuilder.NewFilter().Set(FieldAreaName, querybuilder.Contains(token)),
		)
		return true
	case hasZH:
		f.Set(FieldCountryZH, querybuilder.Contains(token))
		return true
	}
	return false
}
