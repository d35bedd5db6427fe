package content

import (
	"sort"
	"strings"

	"github.com/glorpus-work/tilefetch/pkg/download"
	"github.com/glorpus-work/tilefetch/pkg/errors"
)

var checkers = map[string]download.ContentChecker{
	"image": Image,
	"html":  HTML,
	"kml":   KML,
}

var postProcessors = map[string]download.PostProcessor{
	"decompress": Decompress,
}

// CheckerByName resolves a checker name. "" and "none" yield nil.
func CheckerByName(name string) (download.ContentChecker, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "none" {
		return nil, nil
	}
	c, ok := checkers[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownStrategy, "checker %q (known: %s)", name, strings.Join(CheckerNames(), ", "))
	}
	return c, nil
}

// PostProcessorByName resolves a post-processor name. "" and "none" yield nil.
func PostProcessorByName(name string) (download.PostProcessor, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "none" {
		return nil, nil
	}
	p, ok := postProcessors[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownStrategy, "post-processor %q", name)
	}
	return p, nil
}

// CheckerNames lists the built-in checkers.
func CheckerNames() []string {
	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
