package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/net/html"
)

func TestParseLinks(t *testing.T) {
	page := `<html><body>
		<a href="/">root</a>
		<a href="renewable_power_plants_FR_2019.csv">2019</a>
		<a href="renewable_power_plants_FR_2020.CSV">2020</a>
		<a href="notes.txt">notes</a>
		<div><a href="nested/archive_2018.csv">2018</a></div>
		<a name="anchor-without-href">x</a>
	</body></html>`

	root, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)

	links := ParseLinks(root, ".csv")
	assert.Equal(t, []string{
		"renewable_power_plants_FR_2019.csv",
		"renewable_power_plants_FR_2020.CSV",
		"nested/archive_2018.csv",
	}, links)
}

func TestParseLinksNoMatches(t *testing.T) {
	root, err := html.Parse(strings.NewReader(`<html><body><a href="a.zip">zip</a></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, ParseLinks(root, ".csv"))
}
