package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/tilefetch/pkg/errors"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x01\x00\x00\x00\x01\x00"

func TestCheckers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		image bool
		html  bool
		kml   bool
	}{
		{name: "png", input: pngHeader, image: true},
		{name: "jpeg", input: "\xff\xd8\xff\xe0\x00\x10JFIF\x00", image: true},
		{name: "gif", input: "GIF89a\x01\x00\x01\x00", image: true},
		{name: "empty", input: ""},
		{name: "html error page", input: "<!DOCTYPE html>\n<html><body>503</body></html>", html: true},
		{name: "html with leading whitespace", input: "\n\n  <HTML><head></head></HTML>", html: true},
		{name: "xml error", input: `<?xml version="1.0"?><ServiceExceptionReport/>`},
		{
			name:  "kml document",
			input: `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<kml xmlns="http://www.opengis.net/kml/2.2"><Document/></kml>`,
			kml:   true,
		},
		{name: "kml without prolog", input: `<kml><Placemark/></kml>`, kml: true},
		{name: "plain text", input: "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.image, Image(strings.NewReader(tt.input)), "image")
			assert.Equal(t, tt.html, HTML(strings.NewReader(tt.input)), "html")
			assert.Equal(t, tt.kml, KML(strings.NewReader(tt.input)), "kml")
		})
	}
}

func TestCheckerByName(t *testing.T) {
	for _, name := range []string{"", "none", " None "} {
		c, err := CheckerByName(name)
		require.NoError(t, err)
		assert.Nil(t, c)
	}

	for _, name := range []string{"image", "HTML", "kml"} {
		c, err := CheckerByName(name)
		require.NoError(t, err)
		assert.NotNil(t, c, name)
	}

	_, err := CheckerByName("pdf")
	assert.ErrorIs(t, err, errors.ErrUnknownStrategy)
	assert.Equal(t, []string{"html", "image", "kml"}, CheckerNames())
}

func TestPostProcessorByName(t *testing.T) {
	p, err := PostProcessorByName("none")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = PostProcessorByName("decompress")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = PostProcessorByName("gunzip")
	assert.ErrorIs(t, err, errors.ErrUnknownStrategy)
}
