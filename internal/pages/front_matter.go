package pages

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// Page is one parsed page template.
type Page struct {
	// Path relative to the pages directory, slash separated.
	RelPath     string
	FrontMatter map[string]interface{}
	Body        []byte
}

// splitFrontMatter separates a leading YAML block delimited by "---" lines
// from the template body.
func splitFrontMatter(src []byte) (map[string]interface{}, []byte, error) {
	s := strings.TrimPrefix(string(src), "\ufeff")

	firstLineEnd := strings.IndexByte(s, '\n')
	if firstLineEnd == -1 || strings.TrimRight(s[:firstLineEnd], "\r \t") != frontMatterDelim {
		return map[string]interface{}{}, []byte(s), nil
	}

	rest := s[firstLineEnd+1:]
	offset := 0
	for {
		end := strings.IndexByte(rest[offset:], '\n')
		line := rest[offset:]
		if end != -1 {
			line = rest[offset : offset+end]
		}

		if strings.TrimRight(line, "\r \t") == frontMatterDelim {
			body := ""
			if end != -1 {
				body = rest[offset+end+1:]
			}
			fm := map[string]interface{}{}
			if err := yaml.Unmarshal([]byte(rest[:offset]), &fm); err != nil {
				return nil, nil, fmt.Errorf("error parsing front matter: %v", err)
			}
			if fm == nil {
				fm = map[string]interface{}{}
			}
			return fm, []byte(body), nil
		}

		if end == -1 {
			return nil, nil, errors.New("front matter is never closed")
		}
		offset += end + 1
	}
}
