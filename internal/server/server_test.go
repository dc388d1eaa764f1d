package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pipspec/pkg/pipfile"
)

const validPipfile = `[[source]]
name = "pypi"
url = "https://pypi.org/simple"
verify_ssl = true

[packages]
requests = ">=2"
numpy = "~=1.16"
`

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, New(Options{}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	New(Options{}).Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestValidate_Valid(t *testing.T) {
	w := do(t, New(Options{}), http.MethodPost, "/v1/validate", validPipfile)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Issues)
	assert.NotNil(t, resp.Issues)
}

func TestValidate_ErrorsStill200(t *testing.T) {
	w := do(t, New(Options{}), http.MethodPost, "/v1/validate", "[packages]\nnumpy = \"1.16\"\n")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)

	codes := make([]string, len(resp.Issues))
	for i, issue := range resp.Issues {
		codes[i] = issue.Code
	}
	assert.Contains(t, codes, pipfile.CodeInvalidConstraint)
	assert.Contains(t, codes, pipfile.CodeNoSource)
}

func TestValidate_Strict(t *testing.T) {
	s := New(Options{})
	body := "[packages]\nnumpy = \"*\"\n"

	var lax, strict ValidateResponse
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodPost, "/v1/validate", body).Body.Bytes(), &lax))
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodPost, "/v1/validate?strict=true", body).Body.Bytes(), &strict))
	assert.True(t, lax.Valid)
	assert.False(t, strict.Valid)

	w := do(t, s, http.MethodPost, "/v1/validate?strict=maybe", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidate_StrictDefault(t *testing.T) {
	s := New(Options{Strict: true})
	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodPost, "/v1/validate", "[packages]\nnumpy = \"*\"\n").Body.Bytes(), &resp))
	assert.False(t, resp.Valid)

	require.NoError(t, json.Unmarshal(do(t, s, http.MethodPost, "/v1/validate?strict=false", "[packages]\nnumpy = \"*\"\n").Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
}

func TestValidate_SyntaxError(t *testing.T) {
	w := do(t, New(Options{}), http.MethodPost, "/v1/validate", "[packages\n")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_MANIFEST", resp.Code)
	assert.Contains(t, resp.Error, "invalid TOML")
}

func TestBodyLimit(t *testing.T) {
	s := New(Options{MaxBodyBytes: 16})
	w := do(t, s, http.MethodPost, "/v1/validate", validPipfile)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNormalize(t *testing.T) {
	w := do(t, New(Options{}), http.MethodPost, "/v1/normalize", validPipfile)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/toml", w.Header().Get("Content-Type"))

	out := w.Body.String()
	assert.Contains(t, out, "[packages]\nrequests = \">=2\"\nnumpy = \"~=1.16\"\n")
	assert.Contains(t, out, "[dev-packages]")

	again := do(t, New(Options{}), http.MethodPost, "/v1/normalize", out)
	assert.Equal(t, out, again.Body.String())
}

func TestNormalize_RefusesInvalidValues(t *testing.T) {
	tests := map[string]struct {
		body string
		path string
	}{
		"verify_ssl string": {
			body: "[[source]]\nname = \"pypi\"\nurl = \"https://pypi.org/simple\"\nverify_ssl = \"false\"\n",
			path: "source[0].verify_ssl",
		},
		"numeric version": {
			body: validPipfile + "scipy = {version = 1.16}\n",
			path: "packages.scipy.version",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := do(t, New(Options{}), http.MethodPost, "/v1/normalize", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "INVALID_MANIFEST", resp.Code)
			assert.Contains(t, resp.Error, tt.path)
		})
	}
}

func TestNormalize_KeepsCustomSections(t *testing.T) {
	body := validPipfile + "\n[docs]\nsphinx = \"==7.2\"\n"
	w := do(t, New(Options{}), http.MethodPost, "/v1/normalize", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasSuffix(w.Body.String(), "[docs]\nsphinx = \"==7.2\"\n"), w.Body.String())
}

func TestCheck(t *testing.T) {
	body := `{"constraint": "~=1.16", "versions": ["1.16.0", "1.20", "2.0.0", "1.15.9", "1.17.0rc1"]}`
	w := do(t, New(Options{}), http.MethodPost, "/v1/check", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "~=1.16", resp.Constraint)
	assert.Equal(t, []Verdict{
		{Version: "1.16.0", Satisfies: true},
		{Version: "1.20", Satisfies: true},
		{Version: "2.0.0", Satisfies: false},
		{Version: "1.15.9", Satisfies: false},
		{Version: "1.17.0rc1", Satisfies: false},
	}, resp.Results)
	assert.Equal(t, "1.20", resp.Best)
}

func TestCheck_Prereleases(t *testing.T) {
	body := `{"constraint": ">=1", "versions": ["1.0", "2.0b1"], "prereleases": true}`
	w := do(t, New(Options{}), http.MethodPost, "/v1/check", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Results[1].Satisfies)
	assert.Equal(t, "2.0b1", resp.Best)
}

func TestCheck_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", "nope", "INVALID_INPUT"},
		{"bare version", `{"constraint": "1.16", "versions": []}`, "INVALID_CONSTRAINT"},
		{"bad version", `{"constraint": "*", "versions": ["one"]}`, "INVALID_VERSION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, New(Options{}), http.MethodPost, "/v1/check", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestCheck_BareVersionHint(t *testing.T) {
	w := do(t, New(Options{}), http.MethodPost, "/v1/check", `{"constraint": "1.16", "versions": []}`)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, `==1.16`)
}

func TestMethodNotAllowed(t *testing.T) {
	w := do(t, New(Options{}), http.MethodGet, "/v1/validate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Options{}).Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/v1/check"
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(`{"constraint": "*", "versions": ["1.0"]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
