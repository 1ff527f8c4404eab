package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora/catalog-service/jobs"
)

func TestUserMessagePlainPrompt(t *testing.T) {
	msg := userMessage(jobs.GenerationRequest{Prompt: "describe this product"})

	require.NotNil(t, msg.OfUser)
	assert.Equal(t, "describe this product", msg.OfUser.Content.OfString.Value)
}

func TestUserMessageCarriesReferenceImages(t *testing.T) {
	msg := userMessage(jobs.GenerationRequest{
		Prompt: "restyle this",
		ReferenceImages: []string{
			"https://cdn.example.com/a.png",
			"https://cdn.example.com/b.png",
		},
	})

	require.NotNil(t, msg.OfUser)
	parts := msg.OfUser.Content.OfArrayOfContentParts
	require.Len(t, parts, 3)

	require.NotNil(t, parts[0].OfText)
	assert.Equal(t, "restyle this", parts[0].OfText.Text)
	require.NotNil(t, parts[1].OfImageURL)
	assert.Equal(t, "https://cdn.example.com/a.png", parts[1].OfImageURL.ImageURL.URL)
	require.NotNil(t, parts[2].OfImageURL)
	assert.Equal(t, "https://cdn.example.com/b.png", parts[2].OfImageURL.ImageURL.URL)
}
