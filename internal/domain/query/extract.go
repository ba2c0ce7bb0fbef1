package query

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/propfinder/internal/domain/fold"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
)

// Stage names in execution order.
const (
	StagePrice    = "price"
	StageRooms    = "rooms"
	StageType     = "property_type"
	StageLocation = "location"
	StageFeatures = "features"
)

// Match records one recognized phrase.
type Match struct {
	Stage string
	Text  string
	Value string
}

// Extraction is the outcome of running the extractor over a query.
type Extraction struct {
	Query    Normalized
	Filters  property.Filters
	Residual string
	Matches  []Match
}

// Extractor pulls structured filters out of a normalized query. Stages run
// in a fixed order over the stream of tokens that are neither consumed nor
// stopwords. Every stage consumes each phrase it recognizes, even when its
// filter field is already set, and the stage list repeats until a full
// pass consumes nothing. Re-extracting a residual therefore yields no
// filters and the same residual.
//
// An Extractor is immutable after construction and safe for concurrent use.
type Extractor struct {
	stop         map[string]struct{}
	types        phraseTable
	features     phraseTable
	places       phraseTable
	placeList    []Place
	comparators  phraseTable
	roomPrefixes phraseTable
	rangeLeads   map[string]struct{}
	stages       []stage
}

type stage struct {
	name string
	// try inspects the live keys starting at the current position and
	// returns how many of them it consumed.
	try func(s *state, keys []string) (n int, value string)
}

// NewExtractor compiles dict into matching tables.
func NewExtractor(dict Dictionary) *Extractor {
	e := &Extractor{stop: make(map[string]struct{}, len(dict.Stopwords))}
	for _, w := range dict.Stopwords {
		e.stop[fold.String(w)] = struct{}{}
	}

	types := make(map[string][]string, len(dict.PropertyTypes))
	for t, syn := range dict.PropertyTypes {
		types[string(t)] = slices.Concat(syn, []string{string(t)})
	}
	e.types = e.compile(types)
	e.features = e.compile(dict.Features)

	e.placeList = slices.Clone(dict.Places)
	places := make(map[string][]string, len(e.placeList))
	for i, p := range e.placeList {
		places[strconv.Itoa(i)] = append([]string{p.Name}, p.Aliases...)
	}
	e.places = e.compile(places)

	e.comparators = e.compile(map[string][]string{
		upperBound: priceUpperPhrases,
		lowerBound: priceLowerPhrases,
	})
	e.roomPrefixes = e.compile(map[string][]string{
		minCount:  roomMinPhrases,
		strictMin: roomStrictPhrases,
		capCount:  roomCapPhrases,
	})
	e.rangeLeads = make(map[string]struct{}, len(rangeLeadPhrases))
	for _, w := range rangeLeadPhrases {
		e.rangeLeads[fold.String(w)] = struct{}{}
	}

	e.stages = []stage{
		{name: StagePrice, try: e.tryPrice},
		{name: StageRooms, try: e.tryRooms},
		{name: StageType, try: e.tryType},
		{name: StageLocation, try: e.tryLocation},
		{name: StageFeatures, try: e.tryFeatures},
	}
	return e
}

// Stages lists stage names in execution order.
func (e *Extractor) Stages() []string {
	names := make([]string, len(e.stages))
	for i, st := range e.stages {
		names[i] = st.name
	}
	return names
}

// Extract runs all stages to a fixed point and computes the residual.
func (e *Extractor) Extract(q Normalized) Extraction {
	s := &state{tokens: make([]token, len(q.Tokens))}
	for i, text := range q.Tokens {
		key := fold.String(text)
		_, stop := e.stop[key]
		s.tokens[i] = token{text: text, key: key, stop: stop}
	}

	// Each productive pass consumes at least one token.
	for pass := 0; pass <= len(s.tokens); pass++ {
		consumed := 0
		for _, st := range e.stages {
			consumed += s.run(st)
		}
		if consumed == 0 {
			break
		}
	}

	if s.filters.PriceMin != nil || s.filters.PriceMax != nil {
		s.filters.Currency = cmp.Or(s.currency, property.MXN)
	}

	residual := make([]string, 0, len(s.tokens))
	for _, t := range s.tokens {
		if !t.consumed && !t.stop {
			residual = append(residual, t.text)
		}
	}

	return Extraction{
		Query:    q,
		Filters:  s.filters,
		Residual: strings.Join(residual, " "),
		Matches:  s.matches,
	}
}

// ExtractText normalizes raw and extracts from it.
func (e *Extractor) ExtractText(raw string) Extraction {
	return e.Extract(Normalize(raw))
}

func (e *Extractor) tryPrice(s *state, keys []string) (int, string) {
	if _, lead := e.rangeLeads[keys[0]]; lead {
		if n, v := s.priceRange(keys[1:]); n > 0 {
			return n + 1, v
		}
		if _, lower := rangeLeadAsLower[keys[0]]; lower {
			if a, ok := parseAmount(keys[1:]); ok && (a.unit || a.marked || a.value >= minLeadPrice) {
				return a.span + 1, s.setPrice(lowerBound, a)
			}
		}
		return 0, ""
	}
	if lo, hi, ok := parseRangeToken(keys); ok && hi.isPrice() {
		return hi.span, s.setRange(lo, hi)
	}
	if p, ok := e.comparators.match(keys); ok {
		if a, ok := parseAmount(keys[len(p.keys):]); ok && a.isPrice() {
			return len(p.keys) + a.span, s.setPrice(p.value, a)
		}
		return 0, ""
	}
	if a, ok := parseAmount(keys); ok && (a.unit || a.marked) {
		return a.span, s.setPrice(upperBound, a)
	}
	return 0, ""
}

func (e *Extractor) tryRooms(s *state, keys []string) (int, string) {
	n, prefix := 0, minCount
	if p, ok := e.roomPrefixes.match(keys); ok {
		n, prefix = len(p.keys), p.value
	}
	if n >= len(keys) {
		return 0, ""
	}
	count, word, ok := parseCount(keys[n])
	if !ok {
		if count, word, ok = parseCountRange(keys[n]); !ok {
			return 0, ""
		}
	} else if word == "" {
		// "3 to 4 bedrooms", "desde 3 hasta 4 recámaras": the low end is
		// the minimum.
		j := n + 1
		if j < len(keys) {
			if _, conn := rangeConnectors[keys[j]]; conn {
				j++
			}
		}
		if j < len(keys) {
			if hi, hiWord, isCount := parseCount(keys[j]); isCount && hi >= count {
				n, word = j, hiWord
			}
		}
	}
	n++
	if word == "" {
		if n >= len(keys) || !isRoomWord(keys[n]) {
			return 0, ""
		}
		word = keys[n]
		n++
	}

	op := ">="
	switch prefix {
	case strictMin:
		count++
	case capCount:
		// Only minimums are filterable; a cap is consumed without narrowing.
		op = "<="
	}

	field, name := &s.filters.Bedrooms, "bedrooms"
	if _, bath := bathroomWords[word]; bath {
		field, name = &s.filters.Bathrooms, "bathrooms"
	}
	if prefix != capCount && *field == nil {
		*field = &count
	}
	return n, name + op + strconv.Itoa(count)
}

func (e *Extractor) tryType(s *state, keys []string) (int, string) {
	p, ok := e.types.match(keys)
	if !ok {
		return 0, ""
	}
	if s.filters.PropertyType == "" {
		s.filters.PropertyType = property.Type(p.value)
	}
	return len(p.keys), p.value
}

func (e *Extractor) tryLocation(s *state, keys []string) (int, string) {
	p, ok := e.places.match(keys)
	if !ok {
		return 0, ""
	}
	idx, _ := strconv.Atoi(p.value)
	place := e.placeList[idx]
	switch place.Kind {
	case KindCity:
		if s.filters.City == "" {
			s.filters.City = place.Name
		}
	case KindRegion:
		if s.filters.Region == "" {
			s.filters.Region = place.Name
		}
	}
	return len(p.keys), place.Name
}

func (e *Extractor) tryFeatures(s *state, keys []string) (int, string) {
	p, ok := e.features.match(keys)
	if !ok {
		return 0, ""
	}
	if len(s.filters.Features) < property.MaxFeatures {
		s.filters = s.filters.WithFeature(p.value)
	}
	return len(p.keys), p.value
}

// compile turns value -> phrases into a table keyed by first folded key.
// Stopwords are removed from phrases so they line up with the live stream.
func (e *Extractor) compile(entries map[string][]string) phraseTable {
	t := make(phraseTable)
	for value, list := range entries {
		for _, raw := range list {
			keys := e.phraseKeys(raw)
			if len(keys) == 0 {
				continue
			}
			t[keys[0]] = append(t[keys[0]], phrase{keys: keys, value: value})
		}
	}
	for first, list := range t {
		slices.SortFunc(list, func(a, b phrase) int {
			return cmp.Or(
				cmp.Compare(len(b.keys), len(a.keys)),
				cmp.Compare(a.value, b.value),
				slices.Compare(a.keys, b.keys),
			)
		})
		t[first] = slices.CompactFunc(list, func(a, b phrase) bool {
			return a.value == b.value && slices.Equal(a.keys, b.keys)
		})
	}
	return t
}

func (e *Extractor) phraseKeys(raw string) []string {
	var keys []string
	for _, tok := range Normalize(raw).Tokens {
		key := fold.String(tok)
		if _, stop := e.stop[key]; stop {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

type phrase struct {
	keys  []string
	value string
}

// phraseTable indexes phrases by their first key, longest first.
type phraseTable map[string][]phrase

// match returns the longest phrase that prefixes keys.
func (t phraseTable) match(keys []string) (phrase, bool) {
	if len(keys) == 0 {
		return phrase{}, false
	}
	for _, p := range t[keys[0]] {
		if len(p.keys) <= len(keys) && slices.Equal(p.keys, keys[:len(p.keys)]) {
			return p, true
		}
	}
	return phrase{}, false
}

type token struct {
	text     string
	key      string
	stop     bool
	consumed bool
}

type state struct {
	tokens   []token
	filters  property.Filters
	currency string
	matches  []Match
}

// run applies one stage left to right over the live stream.
func (s *state) run(st stage) int {
	idx, keys := s.live()
	total := 0
	for i := 0; i < len(idx); {
		n, value := st.try(s, keys[i:])
		if n == 0 {
			i++
			continue
		}
		s.consume(st.name, value, idx[i:i+n])
		total += n
		i += n
	}
	return total
}

func (s *state) live() ([]int, []string) {
	idx := make([]int, 0, len(s.tokens))
	keys := make([]string, 0, len(s.tokens))
	for i, t := range s.tokens {
		if !t.consumed && !t.stop {
			idx = append(idx, i)
			keys = append(keys, t.key)
		}
	}
	return idx, keys
}

func (s *state) consume(stageName, value string, idx []int) {
	texts := make([]string, len(idx))
	for i, j := range idx {
		s.tokens[j].consumed = true
		texts[i] = s.tokens[j].text
	}
	s.matches = append(s.matches, Match{Stage: stageName, Text: strings.Join(texts, " "), Value: value})
}

// priceRange reads "N [connector] M" after a range lead. A magnitude on
// the upper end applies to a bare lower end: "entre 2 y 3 millones".
func (s *state) priceRange(keys []string) (int, string) {
	if lo, hi, ok := parseRangeToken(keys); ok && hi.isPrice() {
		return hi.span, s.setRange(lo, hi)
	}
	lo, ok := parseAmount(keys)
	if !ok {
		return 0, ""
	}
	j := lo.span
	if j < len(keys) {
		if _, conn := rangeConnectors[keys[j]]; conn {
			j++
		}
	}
	hi, ok := parseAmount(keys[j:])
	if !ok || !hi.isPrice() {
		return 0, ""
	}
	if !lo.unit && hi.unit {
		lo.value *= hi.mult
	}
	lo.currency = cmp.Or(lo.currency, hi.currency)
	return j + hi.span, s.setRange(lo, hi)
}

func (s *state) setRange(lo, hi amount) string {
	if lo.value > hi.value {
		lo.value, hi.value = hi.value, lo.value
	}
	from := s.setPrice(lowerBound, lo)
	to := s.setPrice(upperBound, hi)
	return from + " " + to
}

// setPrice fills a price bound unless it is already set or would invert
// the range.
func (s *state) setPrice(bound string, a amount) string {
	v := a.value
	switch bound {
	case lowerBound:
		if s.filters.PriceMin == nil && (s.filters.PriceMax == nil || v <= *s.filters.PriceMax) {
			s.filters.PriceMin = &v
		}
	case upperBound:
		if s.filters.PriceMax == nil && (s.filters.PriceMin == nil || v >= *s.filters.PriceMin) {
			s.filters.PriceMax = &v
		}
	}
	if a.currency != "" && s.currency == "" {
		s.currency = a.currency
	}
	label := "max"
	if bound == lowerBound {
		label = "min"
	}
	return label + "=" + strconv.FormatFloat(v, 'f', -1, 64)
}
