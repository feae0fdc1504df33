package head

import (
	"encoding/json"
	"strings"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
)

const (
	schemaContext       = "https://schema.org"
	legacySchemaContext = "http://schema.org"
)

// Crumb is one breadcrumb entry
type Crumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type listItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

type breadcrumbList struct {
	Context     string     `json:"@context"`
	Type        string     `json:"@type"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Items       []listItem `json:"itemListElement"`
}

type imageObject struct {
	Type   string `json:"@type"`
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type publisher struct {
	Type string      `json:"@type"`
	Name string      `json:"name"`
	Logo imageObject `json:"logo"`
}

type webPage struct {
	Context     string    `json:"@context"`
	Type        string    `json:"@type"`
	InLanguage  string    `json:"inLanguage"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Publisher   publisher `json:"publisher"`
}

type contactPoint struct {
	Type              string `json:"@type"`
	Telephone         string `json:"telephone"`
	ContactType       string `json:"contactType"`
	AvailableLanguage string `json:"availableLanguage,omitempty"`
}

type organization struct {
	Context      string         `json:"@context"`
	Type         string         `json:"@type"`
	Name         string         `json:"name"`
	URL          string         `json:"url"`
	Logo         string         `json:"logo,omitempty"`
	Image        string         `json:"image,omitempty"`
	SameAs       []string       `json:"sameAs,omitempty"`
	ContactPoint []contactPoint `json:"contactPoint,omitempty"`
}

// namedURL is a resolved breadcrumb
type namedURL struct {
	name string
	url  string
}

func breadcrumbSchema(crumbs []namedURL, title, description string) breadcrumbList {
	list := breadcrumbList{
		Context:     schemaContext,
		Type:        "BreadcrumbList",
		Name:        title,
		Description: description,
		Items:       make([]listItem, 0, len(crumbs)),
	}
	for i, c := range crumbs {
		list.Items = append(list.Items, listItem{
			Type:     "ListItem",
			Position: i + 1,
			Name:     c.name,
			Item:     c.url,
		})
	}
	return list
}

// locale "en_US" becomes the language tag "en-US"
func languageTag(locale string) string {
	if locale == "" {
		return "en-US"
	}
	return strings.ReplaceAll(locale, "_", "-")
}

func webPageSchema(title, description, pageURL, locale, siteName string, org configtypes.OrganizationConfig) webPage {
	return webPage{
		Context:     schemaContext,
		Type:        "WebPage",
		InLanguage:  languageTag(locale),
		Name:        title,
		Description: description,
		URL:         pageURL,
		Publisher: publisher{
			Type: "Organization",
			Name: siteName,
			Logo: imageObject{
				Type:   "ImageObject",
				URL:    org.Logo,
				Width:  org.LogoWidth,
				Height: org.LogoHeight,
			},
		},
	}
}

func organizationSchema(org configtypes.OrganizationConfig, origin string) organization {
	o := organization{
		Context: legacySchemaContext,
		Type:    "Organization",
		Name:    org.Name,
		URL:     origin + "/",
		Logo:    org.Logo,
		Image:   org.Logo,
		SameAs:  org.SameAs,
	}
	if org.Telephone != "" {
		o.ContactPoint = []contactPoint{{
			Type:              "ContactPoint",
			Telephone:         org.Telephone,
			ContactType:       org.ContactType,
			AvailableLanguage: org.Language,
		}}
	}
	return o
}

// encodeJSONLD marshals a document for a <script> element. encoding/json
// escapes <, > and & so the payload cannot close the script early.
func encodeJSONLD(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}
