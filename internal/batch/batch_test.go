package batch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/powerm17/automated-home-decor/internal/suggestions"
	"github.com/powerm17/automated-home-decor/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
}

func sampleResults() []Result {
	return []Result{
		{
			Image:  "a.jpg",
			Status: StatusOK,
			Response: &suggestions.Response{
				Items: []suggestions.Item{
					{Name: "Sofa", Suggestions: []string{"Item A"}},
					{Name: "Lamp", Suggestions: []string{}},
				},
				ProminentColors: []string{"#ff0000"},
			},
		},
		{Image: "b.png", Status: StatusFailed, Error: "Error uploading image. Please try again."},
	}
}

func TestFindImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.PNG", "a.jpg", "notes.txt", "c.webp")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0755))

	paths, err := FindImages(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "c.webp"),
	}, paths)

	_, err = FindImages(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("image")
		if err != nil || strings.HasPrefix(header.Filename, "broken") {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error": "Image not processed correctly"}`)
			return
		}
		io.WriteString(w, `{"suggestions": {"Chair": ["Elegant Chair"]}, "prominent_colors": ["#112233"]}`)
	}))
	defer ts.Close()

	dir := t.TempDir()
	writeFiles(t, dir, "a.jpg", "broken.png", "c.jpeg")
	paths, err := FindImages(dir)
	require.NoError(t, err)

	client := upload.NewClient(upload.ClientOpts{URL: ts.URL})
	results, err := Run(context.Background(), client, nil, paths, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.jpg", results[0].Image)
	assert.Equal(t, StatusOK, results[0].Status)
	assert.Equal(t, "Chair", results[0].Response.Items[0].Name)

	assert.Equal(t, "broken.png", results[1].Image)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, "Error uploading image. Please try again.", results[1].Error)
	assert.Nil(t, results[1].Response)

	assert.Equal(t, StatusOK, results[2].Status)
}

func TestRows(t *testing.T) {
	rows := Rows(sampleResults())

	require.Len(t, rows, 3)
	assert.Equal(t, Row{Image: "a.jpg", Status: StatusOK, Position: 0, Item: "Sofa", Suggestions: []string{"Item A"}, ProminentColors: []string{"#ff0000"}}, rows[0])
	assert.Equal(t, "Lamp", rows[1].Item)
	assert.Equal(t, int32(1), rows[1].Position)
	assert.Empty(t, rows[1].Suggestions)
	assert.Equal(t, "b.png", rows[2].Image)
	assert.Empty(t, rows[2].Item)
	assert.Equal(t, StatusFailed, rows[2].Status)
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.parquet")

	require.NoError(t, WriteParquet(path, sampleResults()))

	rows, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sofa", rows[0].Item)
	assert.Equal(t, []string{"Item A"}, rows[0].Suggestions)
	assert.Equal(t, []string{"#ff0000"}, rows[1].ProminentColors)
	assert.Equal(t, "Error uploading image. Please try again.", rows[2].Error)
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	report := NewReport("http://localhost:5000/upload", "./rooms", sampleResults(), time.Date(2024, 10, 1, 12, 30, 0, 0, time.UTC))

	require.NoError(t, WriteYAML(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "timestamp: 2024-10-01_12-30-00")
	assert.Contains(t, out, "images: 2")
	assert.Less(t, strings.Index(out, "Sofa"), strings.Index(out, "Lamp"))
	assert.Contains(t, out, "status: failed")
}
