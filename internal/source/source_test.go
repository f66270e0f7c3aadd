package source

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestFileOpen(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "gallery.json"), []byte(`{"categories":[]}`), 0644))

	src := NewFile(root)
	rc, err := src.Open(context.Background(), "images/gallery.json", FetchOptions{CrossOrigin: true, CacheBust: true})
	require.NoError(t, err)
	assert.Equal(t, `{"categories":[]}`, readAll(t, rc))

	_, err = src.Open(context.Background(), "images/missing.jpg", FetchOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(context.Background(), "../outside.json", FetchOptions{})
	assert.Error(t, err)
	_, err = src.Open(context.Background(), "/etc/passwd", FetchOptions{})
	assert.Error(t, err)
}

func newMockHTTP(t *testing.T, origin string) (*HTTP, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	src, err := NewHTTP("https://cdn.example.com/site", HTTPOptions{
		Origin: origin,
		Client: &http.Client{Transport: mt},
		Now:    func() time.Time { return time.UnixMilli(1700000000123) },
	})
	require.NoError(t, err)
	return src, mt
}

func TestHTTPURL(t *testing.T) {
	src, _ := newMockHTTP(t, "")

	u, err := src.URL("images/a.jpg", FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/site/images/a.jpg", u)

	u, err = src.URL("images/a.jpg", FetchOptions{CacheBust: true})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/site/images/a.jpg?t=1700000000123", u)

	u, err = src.URL("images/a.jpg?v=2", FetchOptions{CacheBust: true})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/site/images/a.jpg?v=2&t=1700000000123", u)
}

func TestHTTPCrossOrigin(t *testing.T) {
	src, mt := newMockHTTP(t, "https://photos.example.org")

	var gotOrigin, gotMode string
	mt.RegisterResponder(http.MethodGet, "https://cdn.example.com/site/images/open.jpg",
		func(req *http.Request) (*http.Response, error) {
			gotOrigin = req.Header.Get("Origin")
			gotMode = req.Header.Get("Sec-Fetch-Mode")
			resp := httpmock.NewStringResponse(http.StatusOK, "open")
			resp.Header.Set("Access-Control-Allow-Origin", "*")
			return resp, nil
		})
	mt.RegisterResponder(http.MethodGet, "https://cdn.example.com/site/images/closed.jpg",
		httpmock.NewStringResponder(http.StatusOK, "closed"))

	rc, err := src.Open(context.Background(), "images/open.jpg", FetchOptions{CrossOrigin: true})
	require.NoError(t, err)
	assert.Equal(t, "open", readAll(t, rc))
	assert.Equal(t, "https://photos.example.org", gotOrigin)
	assert.Equal(t, "cors", gotMode)

	_, err = src.Open(context.Background(), "images/closed.jpg", FetchOptions{CrossOrigin: true})
	assert.ErrorIs(t, err, ErrCrossOrigin)

	rc, err = src.Open(context.Background(), "images/closed.jpg", FetchOptions{CacheBust: true})
	require.NoError(t, err)
	assert.Equal(t, "closed", readAll(t, rc))
}

func TestHTTPSameOriginNeedsNoGrant(t *testing.T) {
	src, mt := newMockHTTP(t, "")
	mt.RegisterResponder(http.MethodGet, "https://cdn.example.com/site/images/plain.jpg",
		httpmock.NewStringResponder(http.StatusOK, "plain"))

	rc, err := src.Open(context.Background(), "images/plain.jpg", FetchOptions{CrossOrigin: true})
	require.NoError(t, err)
	assert.Equal(t, "plain", readAll(t, rc))
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestHTTPStatusErrors(t *testing.T) {
	src, mt := newMockHTTP(t, "")
	mt.RegisterResponder(http.MethodGet, "https://cdn.example.com/site/images/gone.jpg",
		httpmock.NewStringResponder(http.StatusNotFound, ""))
	mt.RegisterResponder(http.MethodGet, "https://cdn.example.com/site/images/broken.jpg",
		httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	_, err := src.Open(context.Background(), "images/gone.jpg", FetchOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(context.Background(), "images/broken.jpg", FetchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestNewHTTPRejectsBadBase(t *testing.T) {
	_, err := NewHTTP("ftp://example.com", HTTPOptions{})
	assert.Error(t, err)
}

func TestS3Open(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodGet, "https://s3.mock.local/photos/site/images/gallery.json",
		httpmock.NewStringResponder(http.StatusOK, `{"categories":[]}`))
	mt.RegisterResponder(http.MethodGet, "https://s3.mock.local/photos/site/images/missing.jpg",
		httpmock.NewStringResponder(http.StatusNotFound,
			`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))

	src, err := NewS3(context.Background(), S3Config{
		Bucket:          "photos",
		Prefix:          "site/",
		Region:          "us-east-1",
		Endpoint:        "https://s3.mock.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: mt},
	})
	require.NoError(t, err)
	assert.Equal(t, "site/images/a.jpg", src.Key("images/a.jpg"))

	rc, err := src.Open(context.Background(), "images/gallery.json", FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, `{"categories":[]}`, readAll(t, rc))

	_, err = src.Open(context.Background(), "images/missing.jpg", FetchOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := New(context.Background(), Config{Root: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	s, err = New(context.Background(), Config{Driver: DriverHTTP, BaseURL: "https://example.com/"})
	require.NoError(t, err)
	assert.IsType(t, &HTTP{}, s)

	_, err = New(context.Background(), Config{Driver: DriverS3})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)
}
