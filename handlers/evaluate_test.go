package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"transcript-metrics/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func clearEvalEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"EVAL_LOWERCASE", "EVAL_NORMALIZE_WHITESPACE", "EVAL_STRIP_PUNCTUATION", "EVAL_SENTENCE_SPLIT", "EVAL_CER_INCLUDE_SPACES"} {
		t.Setenv(k, "")
	}
}

func evaluateRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/evaluate", HandleEvaluate(zap.NewNop()))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestEvaluate(t *testing.T) {
	clearEvalEnv(t)
	r := evaluateRouter()

	w := postJSON(r, "/evaluate", `{"reference":"Ala ma kota","hypothesis":"Ala ma kotka"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}

	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := uuid.Parse(resp.ID); err != nil {
		t.Errorf("id %q is not a uuid: %v", resp.ID, err)
	}
	if resp.Report.WER.Errors != 1 || resp.Report.WER.Total != 3 {
		t.Errorf("WER = %+v, want 1/3", resp.Report.WER)
	}
	if resp.Report.SER.Errors != 1 || resp.Report.SER.Total != 1 {
		t.Errorf("SER = %+v, want 1/1", resp.Report.SER)
	}
	if resp.Report.CER.Errors != 1 || resp.Report.CER.Total != 9 {
		t.Errorf("CER = %+v, want 1/9", resp.Report.CER)
	}
}

func TestEvaluateConfig(t *testing.T) {
	clearEvalEnv(t)
	r := evaluateRouter()

	w := postJSON(r, "/evaluate", `{"reference":"Ala ma kota","hypothesis":"Ala ma kotka","config":{"cerIncludeSpaces":true}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Report.CER.Total != 11 || !resp.Report.CERIncludesSpaces {
		t.Errorf("CER = %+v includes spaces = %v, want total 11 with spaces", resp.Report.CER, resp.Report.CERIncludesSpaces)
	}
}

func TestEvaluateEmptyTexts(t *testing.T) {
	clearEvalEnv(t)
	r := evaluateRouter()

	w := postJSON(r, "/evaluate", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for name, m := range map[string]float64{
		"wer": resp.Report.WER.Ratio,
		"ser": resp.Report.SER.Ratio,
		"cer": resp.Report.CER.Ratio,
	} {
		if m != 0 {
			t.Errorf("%s ratio = %v, want 0", name, m)
		}
	}
}

func TestEvaluateBadRequest(t *testing.T) {
	clearEvalEnv(t)
	r := evaluateRouter()

	for name, body := range map[string]string{
		"malformed json":     `{"reference":`,
		"unknown split mode": `{"reference":"a","hypothesis":"b","config":{"sentenceSplit":"paragraph"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			if w := postJSON(r, "/evaluate", body); w.Code != http.StatusBadRequest {
				t.Errorf("status: %d body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestEvaluateBadEnvDefaults(t *testing.T) {
	clearEvalEnv(t)
	t.Setenv("EVAL_SENTENCE_SPLIT", "paragraph")
	r := evaluateRouter()

	if w := postJSON(r, "/evaluate", `{"reference":"a","hypothesis":"a"}`); w.Code != http.StatusInternalServerError {
		t.Errorf("status: %d body: %s", w.Code, w.Body.String())
	}
}

func TestTriggerRejectsInvalidConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/transcript-analysis/trigger/:job", HandleTriggerTranscriptionAnalysis(zap.NewNop()))

	w := postJSON(r, "/transcript-analysis/trigger/job-1", `{"sentenceSplit":"paragraph"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: %d body: %s", w.Code, w.Body.String())
	}
}

func ensureDBReady(t *testing.T) {
	l := zap.NewNop()
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Setenv("POSTGRES_HOST", "localhost")
	}
	if os.Getenv("POSTGRES_USER") == "" {
		t.Setenv("POSTGRES_USER", "postgres")
	}
	if os.Getenv("POSTGRES_PASSWORD") == "" {
		t.Setenv("POSTGRES_PASSWORD", "postgres")
	}
	if os.Getenv("POSTGRES_DB") == "" {
		t.Setenv("POSTGRES_DB", "transcript_analysis")
	}
	if err := utils.InitDB(l); err != nil {
		t.Skip("db not available")
	}
	if err := utils.CreateSchema(l); err != nil {
		t.Fatalf("schema: %v", err)
	}
}

func TestListTranscriptionAnalysis(t *testing.T) {
	ensureDBReady(t)
	ctx := context.Background()

	_, err := utils.DB.ExecContext(ctx, `
		INSERT INTO analysis_results (
			file_name, wer, ser, cer,
			wer_edits, wer_words, ser_errors, ser_sentences, cer_edits, cer_chars,
			split_mode, cer_includes_spaces
		)
		VALUES ($1, 0.25, 0.5, 0.1, 1, 4, 1, 2, 1, 10, 'simple', false)
		ON CONFLICT (file_name) DO NOTHING
	`, "handlers-list-test")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	t.Cleanup(func() {
		_, _ = utils.DB.Exec(`DELETE FROM analysis_results WHERE file_name = $1`, "handlers-list-test")
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/transcript-analysis/list", HandleListTranscriptionAnalysis(zap.NewNop()))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/transcript-analysis/list", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}

	var rows []AnalysisRow
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.FileName == "handlers-list-test" {
			found = true
			if row.WERWords != 4 || row.SplitMode != "simple" {
				t.Errorf("row = %+v", row)
			}
		}
	}
	if !found {
		t.Error("inserted row missing from list")
	}
}

func TestDBStatus(t *testing.T) {
	ensureDBReady(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/db-status", HandleDBStatus())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/db-status", nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["connected"] != true {
		t.Errorf("body = %v, want connected", body)
	}
}
