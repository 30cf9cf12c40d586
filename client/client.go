// Package client provides a typed HTTP client for the books store api.
//
// Every non-2xx answer is returned as an *APIError carrying the status code
// and the `message` field sent by the server, untouched.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Book is a book record as served by the api.
type Book struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Years int    `json:"years"`
	Pages int    `json:"pages"`
}

// BookResponse is the body of single book operations.
type BookResponse struct {
	Message string `json:"message"`
	Book    *Book  `json:"book,omitempty"`
}

// APIError reports a non-2xx answer of the api.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("books api: status %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("books api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to a books store api.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the api served at baseURL. It uses
// http.DefaultClient when httpClient is nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// ListBooks fetches all the books.
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	var resp struct {
		Books []Book `json:"books"`
	}
	if err := c.do(ctx, http.MethodGet, "/book", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Books, nil
}

// GetBook fetches a single book.
func (c *Client) GetBook(ctx context.Context, id string) (*BookResponse, error) {
	resp := &BookResponse{}
	if err := c.do(ctx, http.MethodGet, "/book/"+url.PathEscape(id), nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AddBook creates a new book.
func (c *Client) AddBook(ctx context.Context, title string, years, pages int) (*BookResponse, error) {
	resp := &BookResponse{}
	if err := c.do(ctx, http.MethodPost, "/book", bookForm(title, years, pages), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateBook replaces the fields of an existing book.
func (c *Client) UpdateBook(ctx context.Context, id, title string, years, pages int) (*BookResponse, error) {
	resp := &BookResponse{}
	if err := c.do(ctx, http.MethodPut, "/book/"+url.PathEscape(id), bookForm(title, years, pages), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteBook removes a book.
func (c *Client) DeleteBook(ctx context.Context, id string) (*BookResponse, error) {
	resp := &BookResponse{}
	if err := c.do(ctx, http.MethodDelete, "/book/"+url.PathEscape(id), nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func bookForm(title string, years, pages int) url.Values {
	return url.Values{
		"title": {title},
		"years": {strconv.Itoa(years)},
		"pages": {strconv.Itoa(pages)},
	}
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Details string `json:"details"`
		}
		if jerr := json.Unmarshal(data, &payload); jerr == nil {
			apiErr.Message = payload.Message
			apiErr.Details = payload.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err = json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("books api: invalid response body: %w", err)
	}
	return nil
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
