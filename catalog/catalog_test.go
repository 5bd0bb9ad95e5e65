package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureLines = []string{
	`{"product_id":"SKU-001","name":"Organic Cotton Jacket","brand":"Loomwell","category":"Jackets","materials":"organic cotton","description":"A breathable everyday jacket.","care":"Machine wash cold","price":129.5,"sizes":["S","M","L"],"color":"Sand","tags":["organic","outerwear"]}`,
	``,
	`{"product_id":"SKU-002","name":"Linen Summer Dress","brand":"Verdana","category":"Dresses","materials":"european linen","description":"Lightweight dress for warm days.","care":"Hand wash","price":89,"sizes":["XS","S"],"tags":["summer"]}`,
	`{"product_id":"SKU-003","name":"Recycled Wool Coat","brand":"Loomwell","category":"Coats","materials":"recycled wool","description":"Warm winter coat.","care":"Dry clean only","price":240,"sizes":[],"tags":[]}`,
}

func writeCatalog(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "products.jsonl")
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func loadFixture(t *testing.T) *Catalog {
	t.Helper()

	c, err := Load(writeCatalog(t, fixtureLines...))
	require.NoError(t, err)

	return c
}

func TestLoadSkipsBlankLines(t *testing.T) {
	c := loadFixture(t)

	assert.Equal(t, 3, c.Len())
	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "SKU-001", all[0].ProductId)
	assert.Equal(t, "SKU-003", all[2].ProductId)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Load("")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLoadMalformedLine(t *testing.T) {
	_, err := Load(writeCatalog(t, fixtureLines[0], `{"product_id":`))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "line 2")
}

func TestGetIsCaseInsensitive(t *testing.T) {
	c := loadFixture(t)

	product := c.Get("sku-001")
	require.NotNil(t, product)
	assert.Equal(t, "Organic Cotton Jacket", product.Name)

	assert.Nil(t, c.Get("SKU-404"))
}

func TestSearchEmptyFiltersReturnsAll(t *testing.T) {
	c := loadFixture(t)

	assert.Len(t, c.Search(Filters{}), 3)
}

func TestSearchFilters(t *testing.T) {
	c := loadFixture(t)

	byBrand := c.Search(Filters{Brand: "loomwell"})
	require.Len(t, byBrand, 2)
	assert.Equal(t, "SKU-001", byBrand[0].ProductId)
	assert.Equal(t, "SKU-003", byBrand[1].ProductId)

	byCategory := c.Search(Filters{Category: "dresses"})
	require.Len(t, byCategory, 1)
	assert.Equal(t, "SKU-002", byCategory[0].ProductId)

	byTag := c.Search(Filters{Tag: "ORGANIC"})
	require.Len(t, byTag, 1)
	assert.Equal(t, "SKU-001", byTag[0].ProductId)

	bySize := c.Search(Filters{Size: "s"})
	require.Len(t, bySize, 2)
	assert.Equal(t, "SKU-001", bySize[0].ProductId)
	assert.Equal(t, "SKU-002", bySize[1].ProductId)

	byQuery := c.Search(Filters{Query: "wash"})
	require.Len(t, byQuery, 2)
	assert.Equal(t, "SKU-001", byQuery[0].ProductId)
	assert.Equal(t, "SKU-002", byQuery[1].ProductId)

	combined := c.Search(Filters{Brand: "Loomwell", Category: "Coats"})
	require.Len(t, combined, 1)
	assert.Equal(t, "SKU-003", combined[0].ProductId)

	assert.Empty(t, c.Search(Filters{Brand: "Nobody"}))
}

func TestSummary(t *testing.T) {
	c := loadFixture(t)

	jacket := c.Get("SKU-001")
	require.NotNil(t, jacket)
	assert.Equal(t,
		"Brand: Loomwell; Category: Jackets; Materials: organic cotton; Care: Machine wash cold; Sizes: S, M, L; Tags: organic, outerwear",
		jacket.Summary(),
	)

	coat := c.Get("SKU-003")
	require.NotNil(t, coat)
	assert.Equal(t,
		"Brand: Loomwell; Category: Coats; Materials: recycled wool; Care: Dry clean only; Sizes: N/A; Tags: None",
		coat.Summary(),
	)
}

func TestLookupFromTextRanksByDistinctHits(t *testing.T) {
	c := loadFixture(t)

	matches := c.LookupFromText("recycled wool jacket")
	require.Len(t, matches, 2)
	assert.Equal(t, "SKU-003", matches[0].ProductId)
	assert.Equal(t, "SKU-001", matches[1].ProductId)
}

func TestLookupFromTextTieKeepsCatalogOrder(t *testing.T) {
	c := loadFixture(t)

	matches := c.LookupFromText("organic linen")
	require.Len(t, matches, 2)
	assert.Equal(t, "SKU-001", matches[0].ProductId)
	assert.Equal(t, "SKU-002", matches[1].ProductId)
}

func TestLookupFromTextIgnoresShortTokens(t *testing.T) {
	c := loadFixture(t)

	assert.Empty(t, c.LookupFromText("a an it"))
	assert.Empty(t, c.LookupFromText(""))
	assert.Empty(t, c.LookupFromText("zzzgarbage"))
}

func TestLookupFromTextSplitsTokensAtNonAscii(t *testing.T) {
	c, err := Load(writeCatalog(t,
		`{"product_id":"SKU-010","name":"Cafe Racer Jacket","brand":"Loomwell","category":"Jackets","materials":"waxed canvas","description":"Slim moto jacket.","care":"Spot clean","price":310,"sizes":["M"],"tags":[]}`,
		`{"product_id":"SKU-011","name":"Piqué Polo","brand":"Verdana","category":"Tops","materials":"cotton piqué","description":"Knit short-sleeve polo.","care":"Machine wash cold","price":59,"sizes":["M","L"],"tags":[]}`,
	))
	require.NoError(t, err)

	// "café" tokenizes to the run "caf", which matches the unaccented name.
	matches := c.LookupFromText("café")
	require.Len(t, matches, 1)
	assert.Equal(t, "SKU-010", matches[0].ProductId)

	// The accented field still matches through its ASCII prefix "piqu".
	matches = c.LookupFromText("piqué")
	require.Len(t, matches, 1)
	assert.Equal(t, "SKU-011", matches[0].ProductId)
}

func TestFiltersEmpty(t *testing.T) {
	assert.True(t, Filters{}.Empty())
	assert.False(t, Filters{Tag: "organic"}.Empty())
	assert.False(t, Filters{Query: "dress"}.Empty())
}
