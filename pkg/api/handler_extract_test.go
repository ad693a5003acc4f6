package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/extract"
	"github.com/bitmason/graphion/pkg/kg"
)

func TestExtractEndpoint(t *testing.T) {
	s := newTestServer(t, goodRetriever())
	var captured extract.Document
	s.extractor = &fakeExtractor{
		extractFn: func(_ context.Context, doc extract.Document) (*extract.Result, error) {
			captured = doc
			return &extract.Result{
				Entities: []kg.Entity{{Name: "Marie Curie", Type: kg.EntityTypePerson}},
				Language: "en",
			}, nil
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/extract",
		`{"text":"Marie Curie discovered polonium.","domain":"science","source_document":"doc-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Marie Curie discovered polonium.", captured.Text)
	assert.Equal(t, "science", captured.Domain)
	assert.Equal(t, "doc-1", captured.SourceDocument)

	var result extract.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Marie Curie", result.Entities[0].Name)
	assert.Equal(t, "en", result.Language)
}

func TestExtractEndpointRejectsBlankText(t *testing.T) {
	s := newTestServer(t, goodRetriever())
	s.extractor = &fakeExtractor{
		extractFn: func(context.Context, extract.Document) (*extract.Result, error) {
			t.Fatal("extraction must not run for invalid input")
			return nil, nil
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/extract", `{"text":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
