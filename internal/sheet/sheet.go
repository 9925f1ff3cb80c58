// Package sheet fetches video rosters published as Google Sheets. A sheet is
// pulled through the public CSV export endpoint, so it must be link-readable;
// no Google API credentials are involved.
package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ExtractSheetID pulls the spreadsheet id out of a full Google Sheets URL.
func ExtractSheetID(rawURL string) (string, bool) {
	m := sheetIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Video is one roster row: a display name and a Drive file id.
type Video struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://docs.google.com",
	}
}

// NewClientWithBase is used by tests to point the client at a stub server.
func NewClientWithBase(httpClient *http.Client, baseURL string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// FetchVideos downloads the sheet as CSV and returns its rows. The first row
// is assumed to be a header and skipped. Column 0 is the video name, column 1
// the Drive file id; rows missing either are dropped.
func (c *Client) FetchVideos(ctx context.Context, sheetID string) ([]Video, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv", c.baseURL, sheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: status %d (is the sheet link-readable?)", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	videos := make([]Video, 0)
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse sheet csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) < 2 {
			continue
		}
		name := strings.TrimSpace(record[0])
		id := strings.TrimSpace(record[1])
		if name == "" || id == "" {
			continue
		}
		videos = append(videos, Video{Name: name, ID: id})
	}
	return videos, nil
}
