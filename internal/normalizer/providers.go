package normalizer

import (
	"encoding/json"
	"strings"

	"github.com/iceymoss/go-newsfeed/internal/core"
)

const (
	unknownSource  = "Unknown"
	guardianSource = "The Guardian"
	nytSource      = "The New York Times"
	nytImageBase   = "https://www.nytimes.com/"
)

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
	Category    string `json:"category"`
}

func normalizeNewsAPI(raw json.RawMessage) (core.CanonicalArticle, error) {
	var in newsAPIArticle
	if err := json.Unmarshal(raw, &in); err != nil {
		return core.CanonicalArticle{}, err
	}
	source := strings.TrimSpace(in.Source.Name)
	if source == "" {
		source = unknownSource
	}
	return core.CanonicalArticle{
		ExternalID:  ExternalID(core.ProviderNewsAPI, in.URL),
		SourceName:  source,
		Title:       in.Title,
		Description: optional(in.Description),
		Content:     optional(in.Content),
		URL:         in.URL,
		ImageURL:    optional(in.URLToImage),
		PublishedAt: parseDate(in.PublishedAt),
		Authors:     splitAuthors(in.Author),
		Categories:  appendUnique([]string{}, in.Category),
	}, nil
}

type guardianArticle struct {
	ID                 string `json:"id"`
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	WebPublicationDate string `json:"webPublicationDate"`
	SectionName        string `json:"sectionName"`
	PillarName         string `json:"pillarName"`
	Fields             struct {
		BodyText  string `json:"bodyText"`
		Thumbnail string `json:"thumbnail"`
		Byline    string `json:"byline"`
	} `json:"fields"`
}

func normalizeGuardian(raw json.RawMessage) (core.CanonicalArticle, error) {
	var in guardianArticle
	if err := json.Unmarshal(raw, &in); err != nil {
		return core.CanonicalArticle{}, err
	}
	id := in.ID
	if id == "" {
		id = ExternalID(core.ProviderGuardian, in.WebURL)
	}
	// byline 是自由文本，整体视为一个作者
	return core.CanonicalArticle{
		ExternalID:  id,
		SourceName:  guardianSource,
		Title:       in.WebTitle,
		Description: optional(in.Fields.BodyText),
		Content:     optional(in.Fields.BodyText),
		URL:         in.WebURL,
		ImageURL:    optional(in.Fields.Thumbnail),
		PublishedAt: parseDate(in.WebPublicationDate),
		Authors:     appendUnique([]string{}, in.Fields.Byline),
		Categories:  appendUnique([]string{}, in.SectionName, in.PillarName),
	}, nil
}

type nytArticle struct {
	ID       string `json:"_id"`
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	Abstract      string          `json:"abstract"`
	LeadParagraph string          `json:"lead_paragraph"`
	Snippet       string          `json:"snippet"`
	WebURL        string          `json:"web_url"`
	Multimedia    json.RawMessage `json:"multimedia"`
	Byline        struct {
		Person []struct {
			FirstName string `json:"firstname"`
			LastName  string `json:"lastname"`
		} `json:"person"`
	} `json:"byline"`
	PubDate     string `json:"pub_date"`
	SectionName string `json:"section_name"`
	NewsDesk    string `json:"news_desk"`
}

func normalizeNYT(raw json.RawMessage) (core.CanonicalArticle, error) {
	var in nytArticle
	if err := json.Unmarshal(raw, &in); err != nil {
		return core.CanonicalArticle{}, err
	}
	id := in.ID
	if id == "" {
		id = ExternalID(core.ProviderNYT, in.WebURL)
	}
	content := in.LeadParagraph
	if content == "" {
		content = in.Snippet
	}
	authors := []string{}
	for _, p := range in.Byline.Person {
		authors = appendUnique(authors, strings.TrimSpace(p.FirstName+" "+p.LastName))
	}
	return core.CanonicalArticle{
		ExternalID:  id,
		SourceName:  nytSource,
		Title:       in.Headline.Main,
		Description: optional(in.Abstract),
		Content:     optional(content),
		URL:         in.WebURL,
		ImageURL:    nytImage(in.Multimedia),
		PublishedAt: parseDate(in.PubDate),
		Authors:     authors,
		Categories:  appendUnique([]string{}, in.SectionName, in.NewsDesk),
	}, nil
}

// nytImage resolves the first multimedia entry; its url is relative to nytimes.com.
func nytImage(raw json.RawMessage) *string {
	var media []struct {
		URL string `json:"url"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &media) != nil || len(media) == 0 {
		return nil
	}
	u := strings.TrimSpace(media[0].URL)
	if u == "" {
		return nil
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = nytImageBase + strings.TrimLeft(u, "/")
	}
	return &u
}
