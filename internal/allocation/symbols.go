package allocation

// exchangeSuffixes maps exchange codes to the ticker suffixes the allocation
// service's data source expects.
var exchangeSuffixes = map[string]string{
	"KOSPI":  ".KS",
	"KOSDAQ": ".KQ",
}

// SuffixedSymbol converts a listing symbol to the form the allocation service
// expects. Symbols on exchanges without a registered suffix pass through
// unchanged.
func SuffixedSymbol(symbol, exchange string) string {
	if suffix, ok := exchangeSuffixes[exchange]; ok {
		return symbol + suffix
	}
	return symbol
}
