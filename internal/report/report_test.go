package report_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/report"
	"github.com/dataforgoodfr/bechdelai/internal/services"
)

func sampleTable() report.Table {
	return report.Table{
		Name:    "ratings",
		Headers: []string{"title", "year", "rating"},
		Rows: [][]string{
			{"Thelma & Louise", "1991", "3"},
			{"Alien; director's cut", "1979"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]report.Format{
		"csv": report.FormatCSV, ".yml": report.FormatYAML, "JSON": report.FormatJSON, "xlsx": report.FormatXLSX,
	} {
		got, err := report.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := report.ParseFormat("pdf")
	assert.True(t, errors.Is(err, services.ErrValidation))

	got, err := report.FormatForPath("/tmp/out.xlsx")
	require.NoError(t, err)
	assert.Equal(t, report.FormatXLSX, got)
}

func TestWriteCSVWithSeparator(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().Write(&buf, report.FormatCSV, report.Options{Separator: ';'}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "title;year;rating", lines[0])
	assert.Equal(t, "Thelma & Louise;1991;3", lines[1])
	assert.Equal(t, `"Alien; director's cut";1979`, lines[2])
}

func TestWriteJSONAndYAML(t *testing.T) {
	var js bytes.Buffer
	require.NoError(t, sampleTable().Write(&js, report.FormatJSON, report.Options{}))
	assert.Contains(t, js.String(), `"title": "Thelma & Louise"`)
	assert.Contains(t, js.String(), `"rating": ""`)

	var ym bytes.Buffer
	require.NoError(t, sampleTable().Write(&ym, report.FormatYAML, report.Options{}))
	var decoded []map[string]string
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "1991", decoded[0]["year"])
	assert.Equal(t, "Alien; director's cut", decoded[1]["title"])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().Write(&buf, report.FormatXLSX, report.Options{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("ratings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"title", "year", "rating"}, rows[0])
	assert.Equal(t, "Thelma & Louise", rows[1][0])
}

type fakePutter struct {
	mu    sync.Mutex
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestPublisherUpload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0o644))

	fake := &fakePutter{}
	pub := report.NewPublisherWithClient(fake, "bucket", "/reports/", nil)
	key, err := pub.Upload(context.Background(), "", path)
	require.NoError(t, err)
	assert.Equal(t, "reports/report.json", key)
	assert.Equal(t, "bucket", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "application/json", aws.ToString(fake.input.ContentType))
	assert.Equal(t, `{"ok":true}`, string(fake.body))
	assert.Len(t, fake.input.Metadata["sha256"], 64)

	fake.err = errors.New("boom")
	_, err = pub.Upload(context.Background(), "x.json", path)
	assert.True(t, errors.Is(err, services.ErrTransient))

	_, err = pub.Upload(context.Background(), "x.json", filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestNewPublisherAgainstEndpoint(t *testing.T) {
	var mu sync.Mutex
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path = r.Method, r.URL.Path
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n1,2\n"), 0o644))

	pub, err := report.NewPublisher(context.Background(), config.Storage{
		Enabled: true, Endpoint: srv.URL, Region: "us-east-1", Bucket: "bechdel",
		AccessKey: "key", SecretKey: "secret", Prefix: "runs",
	}, nil)
	require.NoError(t, err)
	key, err := pub.Upload(context.Background(), "table.csv", file)
	require.NoError(t, err)
	assert.Equal(t, "runs/table.csv", key)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/bechdel/runs/table.csv", path)
}

func TestNewPublisherRequiresBucket(t *testing.T) {
	_, err := report.NewPublisher(context.Background(), config.Storage{Enabled: true}, nil)
	assert.True(t, errors.Is(err, services.ErrConfiguration))
}
