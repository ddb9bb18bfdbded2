package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
)

func TestProvideKeywordResearchersSkipsMissingKeys(t *testing.T) {
	cfg := &config.Config{}
	assert.Empty(t, ProvideKeywordResearchers(cfg))

	cfg.Keyword.Serper.APIKey = "serper-key"
	researchers := ProvideKeywordResearchers(cfg)
	if assert.Len(t, researchers, 1) {
		assert.Equal(t, entity.KeywordProviderSerper, researchers[0].Provider())
	}

	cfg.Keyword.SerpAPI.APIKey = "serpapi-key"
	assert.Len(t, ProvideKeywordResearchers(cfg), 2)
}
