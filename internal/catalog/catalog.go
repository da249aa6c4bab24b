// Package catalog queries the dados.gov.br open-data API for a dataset's
// downloadable resources.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Giomelox/Be-Analytic-ETL/internal/fetcher"
)

// Sentinel errors for catalog failures. Both are run-fatal: without a
// resource list there is nothing to load.
var (
	// ErrUnavailable indicates a transport or auth failure talking to the API.
	ErrUnavailable = errors.New("catalog: unavailable")
	// ErrMalformed indicates the API responded with an unexpected structure.
	ErrMalformed = errors.New("catalog: malformed response")
)

// Resource identifies one downloadable file within the catalog entry.
type Resource struct {
	ID      string
	URL     string
	Title   string
	Format  string // normalized lowercase: "csv", "ods", "xlsx", ...
	Service string // SCM, SMP, STFC or OUTROS
	Year    int    // extracted from the title, 0 if absent
}

// Client fetches dataset metadata from the open-data API.
type Client struct {
	f       fetcher.Fetcher
	baseURL string
}

// NewClient creates a catalog client. The fetcher carries the API key header.
func NewClient(f fetcher.Fetcher, baseURL string) *Client {
	return &Client{f: f, baseURL: strings.TrimRight(baseURL, "/")}
}

// FindDatasetID looks up the dataset by its catalog name and returns its ID.
// The ID is not stable across catalog republications, so it is resolved on
// every run.
func (c *Client) FindDatasetID(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("nomeConjuntoDados", name)
	q.Set("dadosAbertos", "true")
	q.Set("isPrivado", "false")
	q.Set("pagina", "1")

	body, err := c.f.Download(ctx, fmt.Sprintf("%s/conjuntos-dados?%s", c.baseURL, q.Encode()))
	if err != nil {
		return "", eris.Wrapf(ErrUnavailable, "find dataset %q: %v", name, err)
	}
	defer body.Close() //nolint:errcheck

	var datasets []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(body).Decode(&datasets); err != nil {
		return "", eris.Wrapf(ErrMalformed, "decode dataset search: %v", err)
	}

	if len(datasets) == 0 || datasets[0].ID == "" {
		return "", eris.Wrapf(ErrMalformed, "dataset %q not found in catalog", name)
	}
	return datasets[0].ID, nil
}

// Resources returns the dataset's downloadable resources, filtered to the
// SCM/SMP/STFC service-quality files in a tabular format. The catalog may
// add or remove resources between runs; no fixed count is assumed.
func (c *Client) Resources(ctx context.Context, datasetID string) ([]Resource, error) {
	body, err := c.f.Download(ctx, fmt.Sprintf("%s/conjuntos-dados/%s", c.baseURL, url.PathEscape(datasetID)))
	if err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "fetch dataset %s: %v", datasetID, err)
	}
	defer body.Close() //nolint:errcheck

	var resp struct {
		Recursos []struct {
			ID      string `json:"id"`
			Link    string `json:"link"`
			Titulo  string `json:"titulo"`
			Formato string `json:"formato"`
		} `json:"recursos"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "decode dataset %s: %v", datasetID, err)
	}

	var resources []Resource
	for _, r := range resp.Recursos {
		if r.Link == "" {
			continue
		}

		// Some catalog entries carry backslashes in URLs.
		link := strings.ReplaceAll(r.Link, `\`, "/")

		service := identifyService(r.Titulo)
		if service == "OUTROS" {
			continue
		}

		format := normalizeFormat(r.Formato, link)
		if format == "" {
			continue
		}

		id := r.ID
		if id == "" {
			id = deriveID(r.Titulo, link)
		}

		resources = append(resources, Resource{
			ID:      id,
			URL:     link,
			Title:   r.Titulo,
			Format:  format,
			Service: service,
			Year:    extractYear(r.Titulo),
		})
	}

	return resources, nil
}

// identifyService classifies a resource title by telecom service type.
func identifyService(title string) string {
	upper := strings.ToUpper(title)
	switch {
	case strings.Contains(upper, "STFC"):
		return "STFC"
	case strings.Contains(upper, "SCM"):
		return "SCM"
	case strings.Contains(upper, "SMP"):
		return "SMP"
	default:
		return "OUTROS"
	}
}

// normalizeFormat maps the declared format (or the URL extension when the
// declaration is blank) to a lowercase extension. Returns "" for resources
// that are not tabular files at all (e.g. HTML landing pages).
func normalizeFormat(declared, link string) string {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(declared), "."))
	switch f {
	case "csv", "ods", "xlsx":
		return f
	}
	lower := strings.ToLower(link)
	for _, ext := range []string{"csv", "ods", "xlsx"} {
		if strings.HasSuffix(lower, "."+ext) {
			return ext
		}
	}
	return ""
}

var yearRe = regexp.MustCompile(`(\d{4})`)

// extractYear pulls a four-digit year out of a resource title.
func extractYear(title string) int {
	m := yearRe.FindString(title)
	if m == "" {
		return 0
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return y
}

// deriveID builds a stable identifier for catalog entries that omit one.
func deriveID(title, link string) string {
	if title != "" {
		s := strings.ToLower(strings.TrimSpace(title))
		s = strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				return r
			default:
				return '-'
			}
		}, s)
		return strings.Trim(s, "-")
	}
	return link
}
