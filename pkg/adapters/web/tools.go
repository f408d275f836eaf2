package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/whitehatjr1001/cine-brain/pkg/registry"
)

// Tool names.
const (
	ToolWebSearch       = "web_search"
	ToolIMDbSearch      = "imdb_search"
	ToolBoxOfficeSearch = "box_office_search"
	ToolFetchPage       = "fetch_page"
)

const querySchema = `{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query": {"type": "string", "minLength": 1},
		"num": {"type": "integer", "minimum": 1, "maximum": 10}
	},
	"additionalProperties": false
}`

const fetchSchema = `{
	"type": "object",
	"required": ["url"],
	"properties": {
		"url": {"type": "string", "pattern": "^https?://"}
	},
	"additionalProperties": false
}`

type queryArgs struct {
	Query string `mapstructure:"query"`
	Num   int    `mapstructure:"num"`
}

type fetchArgs struct {
	URL string `mapstructure:"url"`
}

// Tools returns the search and fetch tools. A nil searcher or fetcher
// omits the tools that need it.
func Tools(s *Searcher, f *Fetcher) []registry.Tool {
	var tools []registry.Tool
	if s != nil {
		tools = append(tools,
			registry.Tool{
				Name:        ToolWebSearch,
				Description: "Search the web. Returns titles, links and snippets.",
				Schema:      querySchema,
				Fn:          searchFn(s, ""),
			},
			registry.Tool{
				Name:        ToolIMDbSearch,
				Description: "Search IMDb for films, cast, crew and ratings.",
				Schema:      querySchema,
				Fn:          searchFn(s, "site:imdb.com"),
			},
			registry.Tool{
				Name:        ToolBoxOfficeSearch,
				Description: "Search box office grosses and budgets on The Numbers.",
				Schema:      querySchema,
				Fn:          searchFn(s, "site:the-numbers.com"),
			},
		)
	}
	if f != nil {
		tools = append(tools, registry.Tool{
			Name:        ToolFetchPage,
			Description: "Fetch a web page and return its main content as markdown.",
			Schema:      fetchSchema,
			Fn:          fetchFn(f),
		})
	}
	return tools
}

func searchFn(s *Searcher, site string) registry.ToolFunction {
	return func(ctx context.Context, raw map[string]any) (string, error) {
		var args queryArgs
		if err := decode(raw, &args); err != nil {
			return "", err
		}
		query := strings.TrimSpace(args.Query)
		if site != "" {
			query = site + " " + query
		}
		results, err := s.Search(ctx, query, args.Num)
		if err != nil {
			return "", err
		}
		return Format(results), nil
	}
}

func fetchFn(f *Fetcher) registry.ToolFunction {
	return func(ctx context.Context, raw map[string]any) (string, error) {
		var args fetchArgs
		if err := decode(raw, &args); err != nil {
			return "", err
		}
		page, err := f.Fetch(ctx, args.URL)
		if err != nil {
			return "", err
		}
		if page.Title != "" {
			return "# " + page.Title + "\n\n" + page.Markdown, nil
		}
		return page.Markdown, nil
	}
}

func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
