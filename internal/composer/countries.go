package composer

// Countries is the fixed list of European country names recognised in
// scraped biographies. Matching is exact and case-sensitive.
var Countries = []string{
	"Portugal", "Spain", "France", "Belgium", "Ireland", "England", "United Kingdom", "Scotland",
	"Netherlands", "Denmark", "Germany", "Switzerland", "Austria", "Italy", "Czechia", "Czech Republic",
	"Poland", "Slovakia", "Hungary", "Slovenia", "Croatia", "Russia", "Sweden", "Norway", "Finland",
	"Romania", "Belarus", "Greece", "Bulgaria", "Serbia", "Lithuania", "Latvia", "Bosnia and Herzegovina",
	"Estonia", "Albania",
}

var countrySet = func() map[string]bool {
	set := make(map[string]bool, len(Countries))
	for _, c := range Countries {
		set[c] = true
	}
	return set
}()

// IsCountry reports whether s exactly equals a known country name
func IsCountry(s string) bool {
	return countrySet[s]
}
