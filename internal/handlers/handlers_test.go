package handlers

import (
	"bytes"
	"image"
	"image/png"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/powerm17/automated-home-decor/internal/flow"
	"github.com/powerm17/automated-home-decor/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"suggestions": {"Sofa": ["Item A"], "Lamp": []}, "prominent_colors": ["#ff0000"]}`

var previewRe = regexp.MustCompile(`<img src="(/preview/[0-9a-f-]+)"`)

type backend struct {
	*httptest.Server
	hits atomic.Int32
}

func newBackend(t *testing.T, status int, body string) *backend {
	t.Helper()
	b := &backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(b.Close)
	return b
}

func newApp(t *testing.T, backendURL string, variant flow.Variant) (*httptest.Server, *http.Client) {
	t.Helper()
	h, err := New(Options{
		Uploader: upload.NewClient(upload.ClientOpts{URL: backendURL}),
		Variant:  variant,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return srv, newBrowser(t)
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	return buf.Bytes()
}

func get(t *testing.T, client *http.Client, url string) (int, string) {
	t.Helper()
	res, err := client.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func selectImage(t *testing.T, client *http.Client, baseURL string, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "room.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	res, err := client.Post(baseURL+"/upload/select", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	return string(body)
}

func submit(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	res, err := client.Post(baseURL+"/upload/submit", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	return string(body)
}

func TestLanding(t *testing.T) {
	srv, client := newApp(t, "http://127.0.0.1:0/upload", flow.Standard)

	status, body := get(t, client, srv.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Welcome to Room Decor AI")
	assert.Contains(t, body, `href="/upload"`)
	assert.Contains(t, body, "Get Started")

	status, _ = get(t, client, srv.URL+"/nowhere")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSubmitWithoutImage(t *testing.T) {
	b := newBackend(t, http.StatusOK, okBody)
	srv, client := newApp(t, b.URL+"/upload", flow.Standard)

	body := submit(t, client, srv.URL)

	assert.Contains(t, body, flow.MsgNoImageSelected)
	assert.Equal(t, int32(0), b.hits.Load())
}

func TestSelectAndPreview(t *testing.T) {
	srv, client := newApp(t, "http://127.0.0.1:0/upload", flow.Standard)
	data := pngBytes(t)

	body := selectImage(t, client, srv.URL, data)
	m := previewRe.FindStringSubmatch(body)
	require.Len(t, m, 2)
	first := m[1]
	assert.Contains(t, body, "8&times;6")

	status, img := get(t, client, srv.URL+first)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(data), img)

	// another browser cannot read this page's preview
	status, _ = get(t, newBrowser(t), srv.URL+first)
	assert.Equal(t, http.StatusNotFound, status)

	body = selectImage(t, client, srv.URL, data)
	m = previewRe.FindStringSubmatch(body)
	require.Len(t, m, 2)
	assert.NotEqual(t, first, m[1])

	status, _ = get(t, client, srv.URL+first)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUploadSuccessRendersResult(t *testing.T) {
	b := newBackend(t, http.StatusOK, okBody)
	srv, client := newApp(t, b.URL+"/upload", flow.Standard)

	selectImage(t, client, srv.URL, pngBytes(t))
	body := submit(t, client, srv.URL)

	assert.Equal(t, int32(1), b.hits.Load())
	assert.Contains(t, body, "<h3>Sofa</h3>")
	assert.Contains(t, body, `<p class="suggestion">Item A</p>`)
	assert.Contains(t, body, "<h3>Lamp</h3>")
	assert.Contains(t, body, `<p class="suggestion">No suggestions available</p>`)
	assert.Equal(t, 1, strings.Count(body, `class="swatch"`))
	assert.Contains(t, body, "background-color: #ff0000")
	assert.Less(t, strings.Index(body, "Sofa"), strings.Index(body, "Lamp"))
	assert.Contains(t, body, flow.MsgUploaded)
	assert.Contains(t, body, "animation-duration: 3000ms")
	assert.NotContains(t, body, `class="error"`)

	// the notification is one-shot, the result is not
	_, again := get(t, client, srv.URL+"/upload")
	assert.NotContains(t, again, flow.MsgUploaded)
	assert.Contains(t, again, "<h3>Sofa</h3>")
}

func TestSwatchesAcceptCSSColorForms(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"suggestions": {"Sofa": ["Item A"]}, "prominent_colors": ["#ff0000", "rebeccapurple", "rgb(255, 0, 0)", "hsl(120, 100%, 50%)", "red;x:url(a)"]}`)
	srv, client := newApp(t, b.URL+"/upload", flow.Standard)

	selectImage(t, client, srv.URL, pngBytes(t))
	body := submit(t, client, srv.URL)

	assert.Equal(t, 5, strings.Count(body, `class="swatch"`))
	assert.Contains(t, body, "background-color: #ff0000;")
	assert.Contains(t, body, "background-color: rebeccapurple;")
	assert.Contains(t, body, "background-color: rgb(255, 0, 0);")
	assert.Contains(t, body, "background-color: hsl(120, 100%, 50%);")
	assert.NotContains(t, body, "ZgotmplZ")
	assert.NotContains(t, body, "background-color: red;x")
}

func TestCompactVariantSkipsNotification(t *testing.T) {
	b := newBackend(t, http.StatusOK, okBody)
	srv, client := newApp(t, b.URL+"/upload", flow.Compact)

	selectImage(t, client, srv.URL, pngBytes(t))
	body := submit(t, client, srv.URL)

	assert.Contains(t, body, "<h3>Sofa</h3>")
	assert.NotContains(t, body, flow.MsgUploaded)
	assert.NotContains(t, body, "groups--grid")
}

func TestUploadFailureShowsGenericMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "Traceback: secret detail"},
		{name: "malformed body", status: http.StatusOK, body: `[{"class": "secret detail"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t, tt.status, tt.body)
			srv, client := newApp(t, b.URL+"/upload", flow.Standard)

			selectImage(t, client, srv.URL, pngBytes(t))
			body := submit(t, client, srv.URL)

			assert.Contains(t, body, flow.MsgUploadFailed)
			assert.NotContains(t, body, "secret detail")
			assert.NotContains(t, body, `class="spinner"`)
			assert.NotContains(t, body, " disabled")
		})
	}
}

func TestSelectRejectsLargeFiles(t *testing.T) {
	h, err := New(Options{
		Uploader:       upload.NewClient(upload.ClientOpts{}),
		MaxUploadBytes: 16,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "big.png")
	require.NoError(t, err)
	part.Write(bytes.Repeat([]byte("x"), 64))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/select", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, h.previews.Len())
}

func TestMethodNotAllowed(t *testing.T) {
	h, err := New(Options{Uploader: upload.NewClient(upload.ClientOpts{})})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload/submit", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimitReturns429(t *testing.T) {
	h, err := New(Options{
		Uploader:             upload.NewClient(upload.ClientOpts{}),
		UploadRateLimitRPS:   0.001,
		UploadRateLimitBurst: 1,
	})
	require.NoError(t, err)
	routes := h.Routes()

	res1 := httptest.NewRecorder()
	routes.ServeHTTP(res1, httptest.NewRequest(http.MethodPost, "/upload/submit", nil))
	assert.Equal(t, http.StatusSeeOther, res1.Code)

	res2 := httptest.NewRecorder()
	routes.ServeHTTP(res2, httptest.NewRequest(http.MethodPost, "/upload/submit", nil))
	assert.Equal(t, http.StatusTooManyRequests, res2.Code)
	assert.NotEmpty(t, res2.Header().Get("Retry-After"))

	// page loads are never throttled
	res3 := httptest.NewRecorder()
	routes.ServeHTTP(res3, httptest.NewRequest(http.MethodGet, "/upload", nil))
	assert.Equal(t, http.StatusOK, res3.Code)
}

func TestRequestIDAndHealthcheck(t *testing.T) {
	h, err := New(Options{Uploader: upload.NewClient(upload.ClientOpts{})})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestStaticStylesheet(t *testing.T) {
	h, err := New(Options{Uploader: upload.NewClient(upload.ClientOpts{})})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/../common.go", nil))
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestPreviewLogsWriteErrors(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h, err := New(Options{Variant: flow.Standard})
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "room.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/select", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	f, ok := h.sessions.Get(cookies[0].Value)
	require.True(t, ok)
	img, ok := f.Selected()
	require.True(t, ok)

	req = httptest.NewRequest(http.MethodGet, img.PreviewURL, nil)
	req.AddCookie(cookies[0])
	h.HandlePreview(brokenWriter{httptest.NewRecorder()}, req)

	assert.Contains(t, logs.String(), "Unable to write preview")
	assert.Contains(t, logs.String(), "connection reset")
}
