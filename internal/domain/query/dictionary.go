package query

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
)

// PlaceKind distinguishes cities from regions in the gazetteer.
type PlaceKind string

// Place kinds.
const (
	KindCity   PlaceKind = "city"
	KindRegion PlaceKind = "region"
)

// Place is a gazetteer entry. Name is the canonical spelling written into
// filters; Aliases are extra trigger phrases.
type Place struct {
	Name    string    `yaml:"name"`
	Kind    PlaceKind `yaml:"kind"`
	Region  string    `yaml:"region,omitempty"`
	Aliases []string  `yaml:"aliases,omitempty"`
}

// Dictionary holds the vocabulary the extractor recognizes. Every table is
// consulted regardless of detected language, so adding a synonym is a data
// change only.
type Dictionary struct {
	PropertyTypes map[property.Type][]string `yaml:"property_types"`
	Features      map[string][]string        `yaml:"features"`
	Places        []Place                    `yaml:"places"`
	Stopwords     []string                   `yaml:"stopwords"`
}

// ParseDictionary decodes a YAML dictionary extension.
func ParseDictionary(data []byte) (Dictionary, error) {
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Dictionary{}, fmt.Errorf("parse dictionary: %w", err)
	}
	for t := range d.PropertyTypes {
		if !t.IsValid() {
			return Dictionary{}, fmt.Errorf("parse dictionary: unknown property type %q", t)
		}
	}
	for i, p := range d.Places {
		if p.Name == "" {
			return Dictionary{}, fmt.Errorf("parse dictionary: place %d has no name", i)
		}
		if p.Kind != KindCity && p.Kind != KindRegion {
			return Dictionary{}, fmt.Errorf("parse dictionary: place %q has invalid kind %q", p.Name, p.Kind)
		}
	}
	return d, nil
}

// Merge returns d extended with other's entries.
func (d Dictionary) Merge(other Dictionary) Dictionary {
	out := Dictionary{
		PropertyTypes: make(map[property.Type][]string, len(d.PropertyTypes)),
		Features:      make(map[string][]string, len(d.Features)),
		Places:        slices.Concat(d.Places, other.Places),
		Stopwords:     slices.Concat(d.Stopwords, other.Stopwords),
	}
	for t, syn := range d.PropertyTypes {
		out.PropertyTypes[t] = slices.Clone(syn)
	}
	for t, syn := range other.PropertyTypes {
		out.PropertyTypes[t] = append(out.PropertyTypes[t], syn...)
	}
	maps.Copy(out.Features, d.Features)
	for tag, syn := range other.Features {
		out.Features[tag] = slices.Concat(out.Features[tag], syn)
	}
	return out
}

// DefaultDictionary returns the built-in Spanish and English vocabulary.
func DefaultDictionary() Dictionary {
	types := make(map[property.Type][]string, len(propertyTypeSynonyms))
	for t, syn := range propertyTypeSynonyms {
		types[t] = slices.Clone(syn)
	}
	features := make(map[string][]string, len(featureSynonyms))
	for tag, syn := range featureSynonyms {
		features[tag] = slices.Clone(syn)
	}
	return Dictionary{
		PropertyTypes: types,
		Features:      features,
		Places:        slices.Clone(gazetteer),
		Stopwords:     slices.Clone(stopwords),
	}
}

var propertyTypeSynonyms = map[property.Type][]string{
	property.House: {
		"casa", "casas", "casa sola", "residencia", "residencias", "chalet",
		"house", "houses", "home", "homes", "single family", "villa", "villas",
	},
	property.Apartment: {
		"departamento", "departamentos", "depa", "depas", "depto", "deptos", "apartamento", "apartamentos",
		"apartment", "apartments", "apt", "apts", "flat", "flats", "loft", "lofts", "penthouse", "studio", "estudio",
	},
	property.Condo: {
		"condominio", "condominios", "condo", "condos", "condominium", "condominiums",
	},
	property.Townhouse: {
		"casa adosada", "townhouse", "townhouses", "town house", "townhome", "townhomes",
		"casa en condominio", "duplex", "dúplex",
	},
	property.Land: {
		"terreno", "terrenos", "lote", "lotes", "predio", "predios", "parcela", "parcelas",
		"land", "lot", "lots", "plot", "plots", "acreage",
	},
	property.Commercial: {
		"local", "local comercial", "locales", "bodega", "bodegas", "nave industrial",
		"commercial", "retail", "storefront", "warehouse", "warehouses",
	},
	property.Office: {
		"oficina", "oficinas", "consultorio", "consultorios", "office", "offices", "coworking",
	},
}

var featureSynonyms = map[string][]string{
	"pool": {
		"alberca", "albercas", "piscina", "piscinas", "pileta",
		"pool", "pools", "swimming pool",
	},
	"garden": {
		"jardín", "jardines", "área verde", "áreas verdes",
		"garden", "gardens", "yard", "backyard", "back yard", "lawn",
	},
	"garage": {
		"garaje", "cochera", "cocheras", "estacionamiento", "estacionamientos", "cajón de estacionamiento",
		"garage", "parking", "parking spot", "carport",
	},
	"beachfront": {
		"frente al mar", "frente a la playa", "pie de playa", "playa",
		"beachfront", "beach front", "oceanfront", "ocean front", "on the beach", "beach",
	},
	"ocean_view": {
		"vista al mar", "vista mar", "vista al océano",
		"ocean view", "ocean views", "sea view", "sea views",
	},
	"furnished": {
		"amueblado", "amueblada", "amueblados", "amuebladas", "equipado", "equipada",
		"furnished", "fully furnished",
	},
	"gym": {
		"gimnasio", "gym", "fitness center", "fitness",
	},
	"security": {
		"seguridad", "vigilancia", "seguridad 24 horas", "privada", "coto", "caseta",
		"security", "gated", "gated community", "doorman", "guard",
	},
	"terrace": {
		"terraza", "terrazas", "roof garden", "roofgarden", "azotea",
		"terrace", "terraces", "rooftop", "roof top", "deck", "patio",
	},
	"pet_friendly": {
		"mascotas", "acepta mascotas", "se aceptan mascotas", "pet friendly", "petfriendly",
		"pets", "pets allowed", "dog friendly",
	},
	"air_conditioning": {
		"aire acondicionado", "clima", "climas", "climatizado", "climatizada", "minisplit", "minisplits",
		"a/c", "ac", "air conditioning", "air conditioned",
	},
	"elevator": {
		"elevador", "elevadores", "ascensor", "elevator", "elevators", "lift",
	},
	"balcony": {
		"balcón", "balcones", "balcony", "balconies",
	},
}

var gazetteer = []Place{
	{Name: "Cancún", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Playa del Carmen", Kind: KindCity, Region: "Quintana Roo", Aliases: []string{"playa del carmen", "pdc", "playacar"}},
	{Name: "Tulum", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Puerto Morelos", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Cozumel", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Isla Mujeres", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Bacalar", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Chetumal", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Akumal", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Holbox", Kind: KindCity, Region: "Quintana Roo"},
	{Name: "Mérida", Kind: KindCity, Region: "Yucatán"},
	{Name: "Valladolid", Kind: KindCity, Region: "Yucatán"},
	{Name: "Ciudad de México", Kind: KindCity, Region: "Ciudad de México", Aliases: []string{"cdmx", "mexico city", "df", "distrito federal"}},
	{Name: "Guadalajara", Kind: KindCity, Region: "Jalisco", Aliases: []string{"gdl"}},
	{Name: "Zapopan", Kind: KindCity, Region: "Jalisco"},
	{Name: "Puerto Vallarta", Kind: KindCity, Region: "Jalisco", Aliases: []string{"vallarta"}},
	{Name: "Monterrey", Kind: KindCity, Region: "Nuevo León", Aliases: []string{"mty"}},
	{Name: "San Pedro Garza García", Kind: KindCity, Region: "Nuevo León", Aliases: []string{"san pedro"}},
	{Name: "San Miguel de Allende", Kind: KindCity, Region: "Guanajuato", Aliases: []string{"sma"}},
	{Name: "Querétaro", Kind: KindCity, Region: "Querétaro", Aliases: []string{"queretaro"}},
	{Name: "Puebla", Kind: KindCity, Region: "Puebla"},
	{Name: "Oaxaca", Kind: KindCity, Region: "Oaxaca"},
	{Name: "Cabo San Lucas", Kind: KindCity, Region: "Baja California Sur", Aliases: []string{"los cabos", "cabo"}},
	{Name: "San José del Cabo", Kind: KindCity, Region: "Baja California Sur"},
	{Name: "La Paz", Kind: KindCity, Region: "Baja California Sur"},
	{Name: "Mazatlán", Kind: KindCity, Region: "Sinaloa"},
	{Name: "Acapulco", Kind: KindCity, Region: "Guerrero"},
	{Name: "Tijuana", Kind: KindCity, Region: "Baja California"},
	{Name: "Ensenada", Kind: KindCity, Region: "Baja California"},
	{Name: "Campeche", Kind: KindCity, Region: "Campeche"},
	{Name: "Quintana Roo", Kind: KindRegion, Aliases: []string{"q roo", "qroo"}},
	{Name: "Riviera Maya", Kind: KindRegion},
	{Name: "Yucatán", Kind: KindRegion},
	{Name: "Jalisco", Kind: KindRegion},
	{Name: "Nuevo León", Kind: KindRegion},
	{Name: "Guanajuato", Kind: KindRegion},
	{Name: "Baja California Sur", Kind: KindRegion, Aliases: []string{"bcs"}},
	{Name: "Baja California", Kind: KindRegion},
	{Name: "Sinaloa", Kind: KindRegion},
	{Name: "Guerrero", Kind: KindRegion},
	{Name: "Nayarit", Kind: KindRegion, Aliases: []string{"riviera nayarit"}},
	{Name: "Estado de México", Kind: KindRegion, Aliases: []string{"edomex"}},
	{Name: "Morelos", Kind: KindRegion},
}

// stopwords are dropped from the matching stream and the residual. Words
// that lead a pattern ("al menos", "from", "no more than", "than") must
// not appear here.
var stopwords = []string{
	// Spanish
	"a", "de", "del", "el", "la", "las", "los", "lo", "un", "una", "unos", "unas",
	"en", "con", "y", "e", "o", "u", "para", "por", "que", "se", "su", "sus", "mi", "mis", "me",
	"muy", "cerca", "busco", "buscando", "buscamos", "quiero", "queremos", "necesito", "necesitamos",
	"gustaría", "deseo", "algo", "alguna", "algún", "hay", "tenga", "tengan", "tiene", "esté",
	"ubicado", "ubicada", "ubicados", "ubicadas", "zona", "venta", "vender", "comprar", "compra",
	"propiedad", "propiedades", "inmueble", "inmuebles",
	// English
	"an", "the", "in", "on", "at", "with", "and", "or", "for", "of", "to", "near", "by",
	"i", "im", "we", "me", "my", "our", "is", "are", "that", "which", "it", "its", "some", "something",
	"looking", "look", "want", "wanted", "need", "find", "show", "please", "located", "area",
	"sale", "buy", "buying", "property", "properties", "listing", "listings", "has", "have", "having",
}

// spanishChars are characters that only occur in Spanish queries.
const spanishChars = "áéíóúñü¿¡"

var spanishMarkers = setOf(
	"de", "la", "el", "los", "las", "en", "con", "y", "para", "por", "del", "que",
	"cerca", "busco", "quiero", "casa", "casas", "departamento", "depa", "recamaras", "recámaras",
	"baños", "bajo", "menos", "millones", "entre", "venta", "renta", "alberca", "jardín", "terreno",
	"hasta", "desde", "mas", "más", "amueblado", "seguridad", "vista", "mar",
)

var englishMarkers = setOf(
	"the", "in", "with", "and", "for", "near", "of", "to", "looking", "want",
	"house", "houses", "home", "apartment", "bedroom", "bedrooms", "bathroom", "bathrooms",
	"under", "below", "million", "between", "sale", "rent", "pool", "garden", "beach",
	"up", "over", "more", "than", "least", "furnished", "view", "downtown", "modern",
)

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
