package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
)

// Price and room vocabulary. Phrases are written as users type them;
// stopwords inside them are dropped at compile time.
var (
	priceUpperPhrases = []string{
		"under", "below", "less than", "up to", "max", "maximum", "at most", "no more than",
		"cheaper than", "budget", "bajo", "debajo de", "menos de", "hasta", "máximo", "no más de",
		"tope", "presupuesto", "menor a", "menor de",
	}
	priceLowerPhrases = []string{
		"over", "above", "more than", "at least", "min", "minimum", "starting at", "starting from",
		"más de", "arriba de", "mínimo", "al menos", "a partir de", "mayor a", "mayor de",
	}
	rangeLeadPhrases = []string{"between", "from", "entre", "desde"}

	// A lead that can stand alone as a lower bound ("from 2 million").
	rangeLeadAsLower = setOf("from", "desde")

	rangeConnectors = setOf("hasta", "through", "thru", "until", "till")

	roomMinPhrases    = []string{"at least", "min", "minimum", "mínimo", "al menos", "desde"}
	roomStrictPhrases = []string{"more than", "over", "más de", "mayor a", "mayor de"}
	roomCapPhrases    = []string{
		"max", "maximum", "at most", "up to", "no more than", "less than",
		"máximo", "máx", "hasta", "no más de", "menos de",
	}
)

const (
	lowerBound = "lower"
	upperBound = "upper"
	minCount   = "min"
	strictMin  = "strict"
	capCount   = "cap"
)

// minLeadPrice is the smallest unmarked amount a lone "from"/"desde" reads
// as a price floor; below it "from 2020" is a year.
const minLeadPrice = 10_000

var magnitudeWords = map[string]float64{
	"k": 1e3, "mil": 1e3, "thousand": 1e3, "grand": 1e3,
	"m": 1e6, "mm": 1e6, "mdp": 1e6, "mdd": 1e6,
	"million": 1e6, "millions": 1e6, "millon": 1e6, "millones": 1e6, "mill": 1e6,
}

// Magnitudes that imply a value of one on their own ("menos de un millón"
// once stopwords drop "un").
var loneMagnitudes = setOf("million", "millon")

// Currency words accepted right after an amount.
var currencyWords = map[string]string{
	"pesos": property.MXN, "peso": property.MXN, "mxn": property.MXN, "mxp": property.MXN, "mn": property.MXN,
	"usd": property.USD, "dolares": property.USD, "dolar": property.USD, "dollars": property.USD,
	"dollar": property.USD, "dlls": property.USD, "dls": property.USD,
}

var numberWords = map[string]float64{
	"one": 1, "uno": 1,
	"two": 2, "dos": 2,
	"three": 3, "tres": 3,
	"four": 4, "cuatro": 4,
	"five": 5, "cinco": 5,
	"six": 6, "seis": 6,
	"seven": 7, "siete": 7,
	"eight": 8, "ocho": 8,
	"nine": 9, "nueve": 9,
	"ten": 10, "diez": 10,
}

var bedroomWords = setOf(
	"bedroom", "bedrooms", "bed", "beds", "br", "bd", "bdr", "bdrm", "bdrms",
	"recamara", "recamaras", "rec", "recs", "habitacion", "habitaciones",
	"cuarto", "cuartos", "dormitorio", "dormitorios", "alcoba", "alcobas",
)

var bathroomWords = setOf(
	"bathroom", "bathrooms", "bath", "baths", "ba", "bano", "banos", "wc",
)

// maxRoomCount rejects nonsense like "2024 bedrooms".
const maxRoomCount = 50

var (
	thousandsComma = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	thousandsDot   = regexp.MustCompile(`^\d{1,3}(\.\d{3}){2,}$`)
	decimalComma   = regexp.MustCompile(`^\d+,\d{1,2}$`)
	numericRange   = regexp.MustCompile(`^\$?([\d.,]+)-\$?([\d.,]+)([a-z]*)$`)
	countRange     = regexp.MustCompile(`^(\d+)-(\d+)([a-z]*)$`)
)

// parseNumber reads "5", "3.5", "1,500,000", "5.000.000" and "3,5".
func parseNumber(s string) (float64, bool) {
	switch {
	case thousandsComma.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case thousandsDot.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	case decimalComma.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// splitNumeric separates a token into its leading numeric part and the
// alphabetic suffix: "3.5mdp" -> "3.5", "mdp".
func splitNumeric(key string) (num, suffix string) {
	j := 0
	for j < len(key) && (key[j] >= '0' && key[j] <= '9' || key[j] == '.' || key[j] == ',') {
		j++
	}
	return key[:j], key[j:]
}

// amount is a number read from the token stream together with whatever
// marks it as money.
type amount struct {
	value    float64
	mult     float64
	unit     bool   // magnitude word or suffix seen
	marked   bool   // "$" or currency word seen
	currency string // explicit currency, "" if none
	span     int    // live tokens consumed
}

func (a amount) isPrice() bool {
	return a.unit || a.marked || a.value >= 1000
}

// parseAmount reads an amount starting at keys[0].
func parseAmount(keys []string) (amount, bool) {
	if len(keys) == 0 {
		return amount{}, false
	}
	a := amount{mult: 1}
	tok := keys[0]
	if strings.HasPrefix(tok, "$") {
		a.marked = true
		tok = tok[1:]
	}

	num, suffix := splitNumeric(tok)
	switch {
	case num != "":
		v, ok := parseNumber(num)
		if !ok {
			return amount{}, false
		}
		a.value = v
		if suffix != "" {
			if !a.applyMagnitude(suffix) {
				return amount{}, false
			}
		}
	case a.marked:
		return amount{}, false
	default:
		if v, ok := numberWords[tok]; ok {
			a.value = v
		} else if _, ok := loneMagnitudes[tok]; ok {
			a.value, a.mult = 1e6, 1e6
			a.unit = true
			a.span = 1
			return a.withCurrency(keys), true
		} else {
			return amount{}, false
		}
	}
	a.span = 1

	if !a.unit && len(keys) > a.span && a.applyMagnitude(keys[a.span]) {
		a.span++
	}
	return a.withCurrency(keys), true
}

// applyMagnitude scales a by word if it is a magnitude. "mdd" also fixes
// the currency to USD.
func (a *amount) applyMagnitude(word string) bool {
	m, ok := magnitudeWords[word]
	if !ok {
		return false
	}
	a.value *= m
	a.mult = m
	a.unit = true
	if word == "mdd" {
		a.currency = property.USD
		a.marked = true
	}
	return true
}

func (a amount) withCurrency(keys []string) amount {
	if len(keys) > a.span {
		if c, ok := currencyWords[keys[a.span]]; ok {
			a.currency = c
			a.marked = true
			a.span++
		}
	}
	return a
}

// parseRangeToken reads a hyphenated range such as "2-3" or "2-3m" with an
// optional magnitude word after it.
func parseRangeToken(keys []string) (lo, hi amount, ok bool) {
	if len(keys) == 0 {
		return amount{}, amount{}, false
	}
	m := numericRange.FindStringSubmatch(keys[0])
	if m == nil {
		return amount{}, amount{}, false
	}
	lov, ok1 := parseNumber(m[1])
	hiv, ok2 := parseNumber(m[2])
	if !ok1 || !ok2 {
		return amount{}, amount{}, false
	}
	lo = amount{value: lov, marked: strings.HasPrefix(keys[0], "$")}
	hi = amount{value: hiv, marked: lo.marked, span: 1}

	mult, unit := 1.0, false
	if m[3] != "" {
		v, known := magnitudeWords[m[3]]
		if !known {
			return amount{}, amount{}, false
		}
		mult, unit = v, true
	} else if len(keys) > 1 {
		if v, known := magnitudeWords[keys[1]]; known {
			mult, unit = v, true
			hi.span++
		}
	}
	lo.value *= mult
	hi.value *= mult
	lo.mult, hi.mult = mult, mult
	lo.unit, hi.unit = unit, unit
	hi = hi.withCurrency(keys)
	lo.currency = hi.currency
	lo.marked = lo.marked || hi.marked
	return lo, hi, true
}

// parseCountRange reads "3-4" or "3-4br" and returns the low end.
func parseCountRange(key string) (n int, roomWord string, ok bool) {
	m := countRange.FindStringSubmatch(key)
	if m == nil {
		return 0, "", false
	}
	lo, _ := strconv.Atoi(m[1])
	hi, _ := strconv.Atoi(m[2])
	if hi > maxRoomCount || lo > hi {
		return 0, "", false
	}
	if m[3] != "" && !isRoomWord(m[3]) {
		return 0, "", false
	}
	return lo, m[3], true
}

func isRoomWord(w string) bool {
	_, bed := bedroomWords[w]
	_, bath := bathroomWords[w]
	return bed || bath
}

// parseCount reads a room count: a digit token (fractions floor), a number
// word, or a glued form like "3br". roomWord is the glued suffix, if any.
func parseCount(key string) (n int, roomWord string, ok bool) {
	if v, isWord := numberWords[key]; isWord {
		return int(v), "", true
	}
	num, suffix := splitNumeric(key)
	if num == "" {
		return 0, "", false
	}
	v, valid := parseNumber(num)
	if !valid || v > maxRoomCount {
		return 0, "", false
	}
	if suffix != "" && !isRoomWord(suffix) {
		return 0, "", false
	}
	return int(math.Floor(v)), suffix, true
}
