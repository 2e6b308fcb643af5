package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcall/adapters/excel"
	"bcall/app"
	"bcall/domain/bcall"
	"bcall/internal"
)

const wideCSV = `legislator,v1,v2,v3,v4
Alice (PAN),si,si,si,si
Bianca (PRI),no,no,no,no
Carlos (PAN),si,si,abstencion,si
`

func testServer(t *testing.T) *Server {
	return testServerWithDefaults(t, bcall.DefaultConfig())
}

func testServerWithDefaults(t *testing.T, defaults bcall.AnalysisConfig) *Server {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	service := app.NewAnalysisService(excel.NewMatrixLoader(), nil, nil, logger)
	return NewServer(service, defaults, t.TempDir(), logger)
}

func multipartRequest(t *testing.T, fields map[string]string, filename, content string) *http.Request {
	return multipartRequestFiles(t, fields, map[string][2]string{"file": {filename, content}})
}

// multipartRequestFiles builds a POST /api/runs request from named uploads,
// each a (filename, content) pair.
func multipartRequestFiles(t *testing.T, fields map[string]string, files map[string][2]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, file := range files {
		part, err := w.CreateFormFile(field, file[0])
		require.NoError(t, err)
		_, err = io.WriteString(part, file[1])
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/runs", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestCreateRun_WideCSV(t *testing.T) {
	server := testServer(t)

	req := multipartRequest(t, map[string]string{
		"layout":  "wide",
		"metric":  "manhattan",
		"persist": "false",
	}, "votes.csv", wideCSV)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Retained []string          `json:"retained"`
		Blocs    map[string]string `json:"blocs"`
		Parties  map[string]string `json:"parties"`
		Meta     struct {
			Pivot     string `json:"pivot"`
			AutoPivot bool   `json:"auto_pivot"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Len(t, body.Retained, 3)
	assert.True(t, body.Meta.AutoPivot)
	assert.Equal(t, body.Blocs["Alice"], body.Blocs["Carlos"], "aligned voters share a bloc")
	assert.NotEqual(t, body.Blocs["Alice"], body.Blocs["Bianca"])
	assert.Equal(t, "PAN", body.Parties["Alice"])
}

func TestCreateRun_ExplicitPivotOrientation(t *testing.T) {
	server := testServer(t)

	req := multipartRequest(t, map[string]string{
		"pivot":   "Bianca",
		"persist": "false",
	}, "votes.csv", wideCSV)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Scores map[string]struct {
			D1 float64 `json:"d1"`
		} `json:"scores"`
		Meta struct {
			Pivot string `json:"pivot"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bianca", body.Meta.Pivot)
	assert.GreaterOrEqual(t, body.Scores["Bianca"].D1, 0.0)
}

func TestCreateRun_SingleVoteLegislatorEncodes(t *testing.T) {
	server := testServer(t)

	// "Lone" casts one of three votes: retained at the default threshold but
	// with undefined dispersion, which must reach the client as null.
	csv := "legislator,v1,v2,v3\nP,si,si,no\nQ,no,no,si\nLone,si,,\n"
	req := multipartRequest(t, map[string]string{"persist": "false"}, "votes.csv", csv)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotZero(t, rec.Body.Len(), "response body must not be empty")

	var body struct {
		Scores map[string]struct {
			D1 float64  `json:"d1"`
			D2 *float64 `json:"d2"`
		} `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	lone, ok := body.Scores["Lone"]
	require.True(t, ok, "single-vote legislator must be scored")
	assert.Nil(t, lone.D2, "undefined dispersion must encode as null")
	require.NotNil(t, body.Scores["P"].D2)
}

func TestCreateRun_DefaultsComeFromServerConfig(t *testing.T) {
	defaults := bcall.DefaultConfig()
	defaults.Metric = bcall.MetricEuclidean
	defaults.Threshold = 0.25
	server := testServerWithDefaults(t, defaults)

	req := multipartRequest(t, map[string]string{"persist": "false"}, "votes.csv", wideCSV)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Meta struct {
			Metric    string  `json:"metric"`
			Threshold float64 `json:"threshold"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "euclidean", body.Meta.Metric)
	assert.Equal(t, 0.25, body.Meta.Threshold)
}

func TestCreateRun_PartyFileUpload(t *testing.T) {
	server := testServer(t)

	req := multipartRequestFiles(t, map[string]string{"persist": "false"}, map[string][2]string{
		"file":    {"votes.csv", "legislator,v1,v2\nAda,si,si\nBo,no,no\n"},
		"parties": {"parties.csv", "legislator,party\nAda,Union\n"},
	})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Parties map[string]string `json:"parties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Union", body.Parties["Ada"])
}

func TestCreateRun_RejectsBadInput(t *testing.T) {
	server := testServer(t)

	cases := []struct {
		name     string
		fields   map[string]string
		filename string
		content  string
	}{
		{"bad metric", map[string]string{"metric": "cosine"}, "votes.csv", wideCSV},
		{"bad threshold", map[string]string{"threshold": "1.5"}, "votes.csv", wideCSV},
		{"bad extension", map[string]string{}, "votes.pdf", wideCSV},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := multipartRequest(t, tc.fields, tc.filename, tc.content)
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateRun_UnscorableMatrixIsUnprocessable(t *testing.T) {
	server := testServer(t)

	// One legislator cannot be partitioned.
	req := multipartRequest(t, map[string]string{"persist": "false"},
		"votes.csv", "legislator,v1\nSolo,si\n")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestGetRun_WithoutRepository(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/some-id", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
