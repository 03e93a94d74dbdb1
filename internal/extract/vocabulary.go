package extract

import "strings"

// Vocabulary holds the closed word lists and class names the extraction
// passes recognise. Every list can be replaced through configuration.
type Vocabulary struct {
	// NavListClass marks the element holding the navigation links.
	NavListClass string
	// NavLabels maps a navigation label to its shared key.
	NavLabels map[string]string
	// CTALabels are call-to-action texts stored once in the shared scope.
	CTALabels []string
	// SemanticClasses mark badges, labels, scores and buttons in body text.
	SemanticClasses []string
	// DataLabelAttr is the data attribute carrying display text.
	DataLabelAttr string

	// BrandNames and BrandClasses mark logo fragments left untranslated.
	BrandNames   []string
	BrandClasses []string
	// FooterClasses maps a footer element class to a fixed shared key.
	FooterClasses map[string]string

	// PopupClass marks the region popup; PopupClasses maps element classes
	// inside it to shared keys.
	PopupClass   string
	PopupClasses map[string]string

	// TextualFields are the structured-data properties holding prose.
	TextualFields []string
	// NonEditorialTypes are structured-data types whose name-like fields
	// are proper nouns.
	NonEditorialTypes []string
	// NameFields are the name-like fields exempted under NonEditorialTypes.
	NameFields []string

	// AssetExtensions and ReservedDirs exclude links from locale prefixing.
	AssetExtensions []string
	ReservedDirs    []string
}

// DefaultVocabulary returns the built-in word lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		NavListClass: "nav-links",
		NavLabels: map[string]string{
			"Home":     "nav_home",
			"Reviews":  "nav_reviews",
			"Guides":   "nav_guides",
			"Compare":  "nav_compare",
			"Deals":    "nav_deals",
			"Best Of":  "nav_best_of",
			"Blog":     "nav_blog",
			"About":    "nav_about",
			"About Us": "nav_about",
			"Contact":  "nav_contact",
		},
		CTALabels: []string{
			"Buy", "Buy Now", "Check Price", "View Deal", "Shop Now", "See Price",
			"Read Review", "Read More", "Learn More", "Compare", "Get Deal",
		},
		SemanticClasses: []string{
			"badge", "label", "tag", "pill", "score-label", "rating-label",
			"price-label", "verdict", "btn", "button", "cta",
		},
		DataLabelAttr: "data-label",

		BrandClasses: []string{"logo", "footer-logo", "brand", "wordmark"},
		FooterClasses: map[string]string{
			"footer-tagline":    "footer_tagline",
			"footer-disclaimer": "footer_disclaimer",
			"disclaimer":        "footer_disclaimer",
		},

		PopupClass: "region-popup",
		PopupClasses: map[string]string{
			"popup-title":    "popup_title",
			"popup-subtitle": "popup_subtitle",
			"popup-discount": "popup_discount",
			"region-us":      "region_us",
			"region-uk":      "region_uk",
		},

		TextualFields: []string{
			"description", "headline", "alternativeHeadline", "name", "alternateName",
			"caption", "text", "reviewBody", "abstract", "slogan", "disambiguatingDescription",
		},
		NonEditorialTypes: []string{
			"Brand", "Organization", "Corporation", "Person", "LocalBusiness", "WebSite",
		},
		NameFields: []string{"name", "alternateName"},

		AssetExtensions: []string{
			".css", ".js", ".mjs", ".map", ".json", ".xml", ".txt", ".pdf",
			".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".avif", ".ico",
			".woff", ".woff2", ".ttf", ".otf", ".eot", ".mp4", ".webm", ".mp3", ".webmanifest",
		},
		ReservedDirs: []string{"/assets/", "/images/", "/img/", "/css/", "/js/", "/fonts/", "/static/", "/media/"},
	}
}

func (v Vocabulary) isCTA(text string) bool {
	return containsFold(v.CTALabels, text)
}

func (v Vocabulary) isBrand(text string) bool {
	return containsFold(v.BrandNames, text)
}

func (v Vocabulary) isTextualField(name string) bool {
	return contains(v.TextualFields, name)
}

func (v Vocabulary) isNameField(name string) bool {
	return contains(v.NameFields, name)
}

func (v Vocabulary) isNonEditorial(types []string) bool {
	for _, typ := range types {
		if contains(v.NonEditorialTypes, typ) {
			return true
		}
	}
	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func containsFold(list []string, value string) bool {
	value = strings.TrimSpace(value)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}
