package lot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugTokens_LotURL(t *testing.T) {
	tokens := SlugTokens("https://www.copart.com/lot/81234567/clean-title-2019-dodge-charger-mi-detroit")
	assert.Equal(t, []string{"clean", "title", "2019", "dodge", "charger", "mi", "detroit"}, tokens)
}

func TestSlugTokens_TrailingSlash(t *testing.T) {
	tokens := SlugTokens("https://example.com/a-b-c/")
	assert.Equal(t, []string{"a", "b", "c"}, tokens)
}

func TestSlugTokens_Lowercases(t *testing.T) {
	tokens := SlugTokens("https://example.com/Clean-Title-2020-FORD-F150")
	assert.Equal(t, []string{"clean", "title", "2020", "ford", "f150"}, tokens)
}

func TestSlugTokens_QueryAndFragmentIgnored(t *testing.T) {
	tokens := SlugTokens("https://example.com/2019-dodge-charger?ref=feed#top")
	assert.Equal(t, []string{"2019", "dodge", "charger"}, tokens)
}

func TestSlugTokens_EmptyAndMalformed(t *testing.T) {
	assert.Nil(t, SlugTokens(""))
	assert.Nil(t, SlugTokens("http://exa mple.com/%zz"))
	assert.Nil(t, SlugTokens("https://example.com"))
}

func TestSlugTokens_CollapsesEmptyTokens(t *testing.T) {
	tokens := SlugTokens("https://example.com/a--b---c")
	assert.Equal(t, []string{"a", "b", "c"}, tokens)
}
