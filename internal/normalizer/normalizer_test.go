package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestNormalizeNewsAPI(t *testing.T) {
	records := []json.RawMessage{raw(`{
		"source": {"id": null, "name": "BBC News"},
		"author": "Jane Doe, John Roe ,",
		"title": "Markets rally",
		"description": "Stocks up",
		"url": "https://bbc.co.uk/a",
		"urlToImage": "https://bbc.co.uk/a.jpg",
		"publishedAt": "2026-03-01T10:00:00Z",
		"content": "Full text",
		"category": "business"
	}`)}

	out, err := Normalize(records, core.ProviderNewsAPI)
	require.NoError(t, err)
	require.Len(t, out, 1)

	a := out[0]
	assert.Equal(t, ExternalID(core.ProviderNewsAPI, "https://bbc.co.uk/a"), a.ExternalID)
	assert.Equal(t, "BBC News", a.SourceName)
	assert.Equal(t, "Markets rally", a.Title)
	assert.Equal(t, "Stocks up", *a.Description)
	assert.Equal(t, "Full text", *a.Content)
	assert.Equal(t, "https://bbc.co.uk/a.jpg", *a.ImageURL)
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, a.Authors)
	assert.Equal(t, []string{"business"}, a.Categories)
	require.NotNil(t, a.PublishedAt)
	assert.True(t, a.PublishedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestNormalizeNewsAPIDefaults(t *testing.T) {
	out, err := Normalize([]json.RawMessage{raw(`{"title":"x","url":"https://e/x","author":null,"publishedAt":"yesterday"}`)}, core.ProviderNewsAPI)
	require.NoError(t, err)

	a := out[0]
	assert.Equal(t, "Unknown", a.SourceName)
	assert.Empty(t, a.Authors)
	assert.Empty(t, a.Categories)
	assert.Nil(t, a.Description)
	assert.Nil(t, a.ImageURL)
	assert.Nil(t, a.PublishedAt, "unparsable date is kept as nil, not dropped")
}

func TestExternalIDIsDeterministic(t *testing.T) {
	rec := raw(`{"title":"same","url":"https://example.com/story"}`)

	first, err := Normalize([]json.RawMessage{rec}, core.ProviderNewsAPI)
	require.NoError(t, err)
	second, err := Normalize([]json.RawMessage{rec}, core.ProviderNewsAPI)
	require.NoError(t, err)

	assert.Equal(t, first[0].ExternalID, second[0].ExternalID)
	assert.Equal(t, "newsapi_31be2814bf0f70644990339f0f90e621", first[0].ExternalID)
	assert.NotEqual(t, ExternalID(core.ProviderGuardian, "https://example.com/story"), first[0].ExternalID)
}

func TestNormalizeGuardian(t *testing.T) {
	out, err := Normalize([]json.RawMessage{raw(`{
		"id": "world/2026/mar/01/story",
		"webTitle": "Story",
		"webUrl": "https://www.theguardian.com/world/2026/mar/01/story",
		"webPublicationDate": "2026-03-01T08:30:00Z",
		"sectionName": "World news",
		"pillarName": "News",
		"fields": {"bodyText": "Body", "thumbnail": "https://media.guim.co.uk/t.jpg", "byline": "Alice Smith and Bob Jones, in Paris"}
	}`)}, core.ProviderGuardian)
	require.NoError(t, err)

	a := out[0]
	assert.Equal(t, "world/2026/mar/01/story", a.ExternalID)
	assert.Equal(t, "The Guardian", a.SourceName)
	assert.Equal(t, "Body", *a.Description)
	assert.Equal(t, "Body", *a.Content)
	assert.Equal(t, []string{"Alice Smith and Bob Jones, in Paris"}, a.Authors)
	assert.Equal(t, []string{"World news", "News"}, a.Categories)
	assert.Equal(t, "https://media.guim.co.uk/t.jpg", *a.ImageURL)
}

func TestNormalizeGuardianDedupesPillar(t *testing.T) {
	out, err := Normalize([]json.RawMessage{raw(`{"webUrl":"https://g/x","sectionName":"Sport","pillarName":"Sport"}`)}, core.ProviderGuardian)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sport"}, out[0].Categories)
	assert.Equal(t, ExternalID(core.ProviderGuardian, "https://g/x"), out[0].ExternalID)
	assert.Empty(t, out[0].Authors)
}

func TestNormalizeNYT(t *testing.T) {
	out, err := Normalize([]json.RawMessage{raw(`{
		"_id": "nyt://article/abc",
		"headline": {"main": "Headline"},
		"abstract": "Abstract",
		"lead_paragraph": "",
		"snippet": "Snippet",
		"web_url": "https://www.nytimes.com/2026/03/01/us/story.html",
		"multimedia": [{"url": "images/2026/03/01/photo.jpg"}],
		"byline": {"person": [{"firstname": "Ann", "lastname": "Lee"}, {"firstname": "", "lastname": "Moe"}]},
		"pub_date": "2026-03-01T05:00:00+0000",
		"section_name": "U.S.",
		"news_desk": "U.S."
	}`)}, core.ProviderNYT)
	require.NoError(t, err)

	a := out[0]
	assert.Equal(t, "nyt://article/abc", a.ExternalID)
	assert.Equal(t, "The New York Times", a.SourceName)
	assert.Equal(t, "Headline", a.Title)
	assert.Equal(t, "Snippet", *a.Content)
	assert.Equal(t, "https://www.nytimes.com/images/2026/03/01/photo.jpg", *a.ImageURL)
	assert.Equal(t, []string{"Ann Lee", "Moe"}, a.Authors)
	assert.Equal(t, []string{"U.S."}, a.Categories)
	require.NotNil(t, a.PublishedAt)
	assert.True(t, a.PublishedAt.Equal(time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)))
}

func TestNormalizeNYTWithoutMedia(t *testing.T) {
	out, err := Normalize([]json.RawMessage{raw(`{"web_url":"https://nyt/x","multimedia":[],"lead_paragraph":"Lead","snippet":"S"}`)}, core.ProviderNYT)
	require.NoError(t, err)

	assert.Nil(t, out[0].ImageURL)
	assert.Equal(t, "Lead", *out[0].Content)
	assert.Equal(t, ExternalID(core.ProviderNYT, "https://nyt/x"), out[0].ExternalID)
}

func TestMalformedRecordBecomesEmptyArticle(t *testing.T) {
	out, err := Normalize([]json.RawMessage{raw(`[1,2]`), raw(`{"title":"ok","url":"https://e/ok"}`)}, core.ProviderNewsAPI)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Empty(t, out[0].ExternalID)
	assert.Equal(t, "ok", out[1].Title)
}

func TestUnknownProvider(t *testing.T) {
	out, err := Normalize([]json.RawMessage{raw(`{}`)}, "bbc")
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.Nil(t, out)
	assert.False(t, Supports("bbc"))
	assert.True(t, Supports(core.ProviderNYT))
}

func TestParseDateLayouts(t *testing.T) {
	for _, s := range []string{
		"2026-03-01T10:00:00Z",
		"2026-03-01T10:00:00.123Z",
		"2026-03-01T10:00:00+0000",
		"2026-03-01T12:00:00+02:00",
		"2026-03-01 10:00:00",
	} {
		got := parseDate(s)
		require.NotNil(t, got, s)
		assert.Equal(t, 10, got.Hour(), s)
	}
	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("not a date"))
}
