package main

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type ContextKey string

const (
	BookIDPrefix            string     = ""
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
	LoggerContextKey        ContextKey = "request.logger"
)

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

// bookRequestBody is the json flavor of a book creation or update request.
type bookRequestBody struct {
	Title *string `json:"title"`
	Years *int    `json:"years"`
	Pages *int    `json:"pages"`
}

// DecodeBookRequestBody reads the content of a book creation or update request.
// Form encoded bodies are the default, json is used when announced by the Content-Type.
func DecodeBookRequestBody(r *http.Request) (BookInput, error) {
	var input BookInput
	if r.Body == nil {
		return input, errors.New("invalid book request body")
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body bookRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return input, &ValidationError{Field: "body", Reason: "is not valid json"}
		}
		if body.Title == nil {
			return input, missingFieldError("title")
		}
		if body.Years == nil {
			return input, missingFieldError("years")
		}
		if body.Pages == nil {
			return input, missingFieldError("pages")
		}
		input = BookInput{Title: *body.Title, Years: *body.Years, Pages: *body.Pages}
		return input, ValidateBookInput(&input)
	}

	if err := r.ParseForm(); err != nil {
		return input, &ValidationError{Field: "body", Reason: "is not a valid form"}
	}
	input.Title = r.PostForm.Get("title")
	var err error
	if input.Years, err = parseIntField(r.PostForm, "years"); err != nil {
		return input, err
	}
	if input.Pages, err = parseIntField(r.PostForm, "pages"); err != nil {
		return input, err
	}
	return input, ValidateBookInput(&input)
}

func parseIntField(values map[string][]string, field string) (int, error) {
	raw, ok := values[field]
	if !ok || len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return 0, missingFieldError(field)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be an integer"}
	}
	return n, nil
}

// ValidateBookInput checks if the content of a book creation or update request
// is valid. The title is kept as sent, surrounding spaces included.
func ValidateBookInput(input *BookInput) error {
	if len(strings.TrimSpace(input.Title)) == 0 {
		return missingFieldError("title")
	}

	if input.Pages < 0 {
		return &ValidationError{Field: "pages", Reason: "must not be negative"}
	}

	return nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	if net.ParseIP(ip) != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	for _, ip := range strings.Split(r.Header.Get("X-FORWARDED-FOR"), ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	if net.ParseIP(ip) != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
}
