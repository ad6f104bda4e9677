package internal

// SectionMetadata describes how a section was cut out of its page.
type SectionMetadata struct {
	Index     int  `json:"index"`
	IsHeading bool `json:"is_heading"`
	IsList    bool `json:"is_list"`
	Length    int  `json:"length"`
}

// Section is a paragraph-sized slice of a page's extracted text.
type Section struct {
	Text     string          `json:"text"`
	Metadata SectionMetadata `json:"metadata"`
}

// Page is one page of extracted document text. Page numbers start at 1.
type Page struct {
	Page     int       `json:"page"`
	Text     string    `json:"text"`
	Sections []Section `json:"sections,omitempty"`
}

// OriginalBody is the untranslated side of a TranslatedPage.
type OriginalBody struct {
	Text     string    `json:"text"`
	Sections []Section `json:"sections"`
}

// TranslatedSection pairs a section with its independent translation.
type TranslatedSection struct {
	Original   string          `json:"original"`
	Translated string          `json:"translated"`
	Metadata   SectionMetadata `json:"metadata"`
}

// PageBody is what the page translator produces for a single page.
type PageBody struct {
	Text     string              `json:"text"`
	Sections []TranslatedSection `json:"sections"`
	Warnings []string            `json:"-"`
}

// TranslatedPage is the merged original/translated view of a page.
// Values are never modified after the orchestrator appends them to a job.
type TranslatedPage struct {
	Page       int          `json:"page"`
	Original   OriginalBody `json:"original"`
	Translated PageBody     `json:"translated"`
	Warnings   []string     `json:"warnings,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// NewTranslatedPage merges a source page with its translation.
func NewTranslatedPage(page Page, body PageBody) TranslatedPage {
	sections := page.Sections
	if sections == nil {
		sections = []Section{}
	}
	if body.Sections == nil {
		body.Sections = []TranslatedSection{}
	}
	return TranslatedPage{
		Page: page.Page,
		Original: OriginalBody{
			Text:     page.Text,
			Sections: sections,
		},
		Translated: body,
		Warnings:   body.Warnings,
	}
}
