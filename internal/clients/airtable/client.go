package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"golang.org/x/time/rate"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ndavydov/applicant-sync/internal/tablestore"
)

const apiURL = "https://api.airtable.com/v0"

type record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the Airtable binding of the table gateway. Writes go out with
// typecast enabled so string values land in numeric and select columns.
type Client struct {
	httpClient  HTTPClient
	token       string
	baseID      string
	rateLimiter *rate.Limiter
}

func NewClient(token string, baseID string) *Client {
	return &Client{
		httpClient: &http.Client{},
		token:      token,
		baseID:     baseID,
		// Airtable rejects more than 5 requests per second per base
		rateLimiter: rate.NewLimiter(rate.Limit(5), 1),
	}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) List(ctx context.Context, table string, filter *tablestore.Filter) ([]tablestore.Record, error) {

	params := url.Values{}
	// reads come back keyed by field id, matching the ids the schema uses for
	// writes and formulas; renaming a column in the base breaks nothing
	params.Add("returnFieldsByFieldId", "true")
	if filter != nil {
		params.Add("filterByFormula", equalityFormula(filter.Field, filter.Value))
	}

	var records []tablestore.Record
	for {
		body, err := c.sendRequest(ctx, "GET", c.tableURL(table)+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var page listResponse
		if err := json.NewDecoder(bytes.NewReader(body)).Decode(&page); err != nil {
			return nil, fmt.Errorf("error decoding JSON response: %v", err)
		}

		for _, rec := range page.Records {
			records = append(records, tablestore.Record{ID: rec.ID, Fields: rec.Fields})
		}

		if page.Offset == "" {
			return records, nil
		}
		params.Set("offset", page.Offset)
	}
}

func (c *Client) Get(ctx context.Context, table string, recordID string) (*tablestore.Record, error) {

	body, err := c.sendRequest(ctx, "GET", c.tableURL(table)+"/"+recordID+"?returnFieldsByFieldId=true", nil)
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}

	return &tablestore.Record{ID: rec.ID, Fields: rec.Fields}, nil
}

func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (*tablestore.Record, error) {

	payload, err := writePayload(fields)
	if err != nil {
		return nil, err
	}

	body, err := c.sendRequest(ctx, "POST", c.tableURL(table), payload)
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}

	return &tablestore.Record{ID: rec.ID, Fields: rec.Fields}, nil
}

func (c *Client) Update(ctx context.Context, table string, recordID string, fields map[string]any) error {

	payload, err := writePayload(fields)
	if err != nil {
		return err
	}

	_, err = c.sendRequest(ctx, "PATCH", c.tableURL(table)+"/"+recordID, payload)
	return err
}

func (c *Client) Delete(ctx context.Context, table string, recordID string) error {
	_, err := c.sendRequest(ctx, "DELETE", c.tableURL(table)+"/"+recordID, nil)
	return err
}

func (c *Client) tableURL(table string) string {
	return apiURL + "/" + c.baseID + "/" + url.PathEscape(table)
}

func equalityFormula(field string, value string) string {
	escaped := strings.ReplaceAll(value, "'", "\\'")
	return "{" + field + "}='" + escaped + "'"
}

func writePayload(fields map[string]any) (io.Reader, error) {
	body, err := json.Marshal(map[string]any{
		"fields":   fields,
		"typecast": true,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding fields: %v", err)
	}
	return bytes.NewReader(body), nil
}

func (c *Client) sendRequest(ctx context.Context, method string, url string, body io.Reader) ([]byte, error) {

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %v, body: %v", resp.StatusCode, string(body))
	}

	return body, nil
}
