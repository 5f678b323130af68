package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pricofy/doc-translation-worker/internal/config"
	"github.com/pricofy/doc-translation-worker/internal/domain"
	"github.com/pricofy/doc-translation-worker/internal/event"
	"github.com/pricofy/doc-translation-worker/internal/storage"
	"github.com/pricofy/doc-translation-worker/internal/translator"
)

type written struct {
	bucket, key, contentType string
	body                     []byte
}

type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	fetchErr error
	writeErr error
	fetches  int
	writes   []written
}

func (f *fakeStore) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, &storage.ObjectError{Op: "GetObject", Bucket: bucket, Key: key, Class: storage.ClassNotFound, Err: errors.New("NoSuchKey")}
	}
	return data, nil
}

func (f *fakeStore) Write(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, written{bucket: bucket, key: key, contentType: contentType, body: body})
	return nil
}

// prefixTranslator returns "<target>:<text>" and fails on texts in failOn.
type prefixTranslator struct {
	calls  atomic.Int32
	failOn map[string]bool
	delay  func(text string) time.Duration
}

func (p *prefixTranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	p.calls.Add(1)
	if p.delay != nil {
		select {
		case <-time.After(p.delay(text)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.failOn[text] {
		return "", errors.New("unsupported language pair")
	}
	return dst + ":" + text, nil
}

var _ translator.Translator = (*prefixTranslator)(nil)

func testConfig() *config.Config {
	return &config.Config{
		OutputBucket: "out-bucket",
		Translation: config.TranslationConfig{
			Provider:      config.ProviderAWS,
			Concurrency:   1,
			WaveTokens:    3000,
			FailurePolicy: config.FailFast,
		},
		MetricsNamespace: "DocTranslationTest",
	}
}

func notification(t *testing.T, bucket, key string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(event.NewS3Event(bucket, key))
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return raw
}

func newTestHandler(cfg *config.Config, store *fakeStore, tr translator.Translator) *Handler {
	return New(cfg, store, store, tr, WithMetricsOutput(io.Discard))
}

func bodyMessage(t *testing.T, resp domain.Response) string {
	t.Helper()
	var msg string
	if err := json.Unmarshal([]byte(resp.Body), &msg); err != nil {
		t.Fatalf("body %q is not a JSON string: %v", resp.Body, err)
	}
	return msg
}

func TestHandle_SingleItemArray(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"in-bucket/input/hello.json": []byte(`[{"Text":"Hello","SourceLanguageCode":"en","TargetLanguageCode":"fr"}]`),
	}}
	tr := &prefixTranslator{}
	h := newTestHandler(testConfig(), store, tr)

	resp := h.Handle(context.Background(), notification(t, "in-bucket", "input/hello.json"))

	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200 (body %s)", resp.StatusCode, resp.Body)
	}
	if msg := bodyMessage(t, resp); !strings.Contains(msg, "s3://out-bucket/input/hello-translated.json") {
		t.Errorf("message %q should name the output object", msg)
	}
	if len(store.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(store.writes))
	}

	w := store.writes[0]
	if w.bucket != "out-bucket" || w.key != "input/hello-translated.json" {
		t.Errorf("written to %s/%s", w.bucket, w.key)
	}
	if w.contentType != "application/json" {
		t.Errorf("contentType = %q", w.contentType)
	}

	want := `{
  "original_file": "input/hello.json",
  "translations": [
    {
      "original_text": "Hello",
      "translated_text": "fr:Hello",
      "source_language": "en",
      "target_language": "fr"
    }
  ]
}`
	if string(w.body) != want {
		t.Errorf("body =\n%s\nwant\n%s", w.body, want)
	}
}

func TestHandle_SingleObjectDefaults(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"in/doc": []byte(`{"Text":"Hola"}`),
	}}
	h := newTestHandler(testConfig(), store, &prefixTranslator{})

	resp := h.Handle(context.Background(), notification(t, "in", "doc"))
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, body %s", resp.StatusCode, resp.Body)
	}
	if len(store.writes) != 1 || store.writes[0].key != "doc-translated.json" {
		t.Fatalf("unexpected writes: %+v", store.writes)
	}

	var doc domain.ResponseDocument
	if err := json.Unmarshal(store.writes[0].body, &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(doc.Translations) != 1 {
		t.Fatalf("translations = %d, want 1", len(doc.Translations))
	}
	got := doc.Translations[0]
	if got.SourceLanguage != "auto" || got.TargetLanguage != "en" || got.TranslatedText != "en:Hola" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestHandle_SkipsItemsWithoutText(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"in/batch.json": []byte(`[{"Text":"one"},{"SourceLanguageCode":"en"},{"Text":""},{"Text":"two"}]`),
	}}
	tr := &prefixTranslator{}
	h := newTestHandler(testConfig(), store, tr)

	resp := h.Handle(context.Background(), notification(t, "in", "batch.json"))
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, body %s", resp.StatusCode, resp.Body)
	}
	if tr.calls.Load() != 2 {
		t.Errorf("translator called %d times, want 2", tr.calls.Load())
	}

	var doc domain.ResponseDocument
	if err := json.Unmarshal(store.writes[0].body, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Translations) != 2 || doc.Translations[0].OriginalText != "one" || doc.Translations[1].OriginalText != "two" {
		t.Errorf("translations = %+v", doc.Translations)
	}
	if msg := bodyMessage(t, resp); !strings.Contains(msg, "2 item(s)") {
		t.Errorf("message = %q", msg)
	}
}

func TestHandle_FailFastStopsBatch(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"in/abc.json": []byte(`[{"Text":"A"},{"Text":"B"},{"Text":"C"}]`),
	}}
	tr := &prefixTranslator{failOn: map[string]bool{"B": true}}
	h := newTestHandler(testConfig(), store, tr)

	resp := h.Handle(context.Background(), notification(t, "in", "abc.json"))

	if resp.StatusCode != 500 {
		t.Fatalf("StatusCode = %d, want 500", resp.StatusCode)
	}
	if len(store.writes) != 0 {
		t.Errorf("nothing should be written, got %d writes", len(store.writes))
	}
	if tr.calls.Load() != 2 {
		t.Errorf("translator called %d times, want 2", tr.calls.Load())
	}
	if msg := bodyMessage(t, resp); !strings.HasPrefix(msg, "Error processing file") || !strings.Contains(msg, "unsupported language pair") {
		t.Errorf("message = %q", msg)
	}
}

func TestHandle_MissingOutputBucket(t *testing.T) {
	cfg := testConfig()
	cfg.OutputBucket = ""
	store := &fakeStore{objects: map[string][]byte{"in/a.json": []byte(`[{"Text":"x"}]`)}}
	tr := &prefixTranslator{}
	h := newTestHandler(cfg, store, tr)

	resp := h.Handle(context.Background(), notification(t, "in", "a.json"))

	if resp.StatusCode != 500 {
		t.Fatalf("StatusCode = %d, want 500", resp.StatusCode)
	}
	if store.fetches != 0 || tr.calls.Load() != 0 {
		t.Errorf("fetches = %d, translations = %d; want none", store.fetches, tr.calls.Load())
	}
	if msg := bodyMessage(t, resp); !strings.Contains(msg, "OUTPUT_BUCKET") {
		t.Errorf("message = %q", msg)
	}
}

func TestHandle_InvalidEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no records", `{"Records":[]}`},
		{"not an envelope", `{"hello":"world"}`},
		{"not json", `not json`},
		{"missing key", `{"Records":[{"s3":{"bucket":{"name":"in"},"object":{}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			h := newTestHandler(testConfig(), store, &prefixTranslator{})

			resp := h.Handle(context.Background(), json.RawMessage(tt.raw))

			if resp.StatusCode != 400 {
				t.Fatalf("StatusCode = %d, want 400", resp.StatusCode)
			}
			if store.fetches != 0 {
				t.Errorf("fetches = %d, want 0", store.fetches)
			}
			if msg := bodyMessage(t, resp); !strings.HasPrefix(msg, "Invalid S3 event") {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestHandle_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		store     *fakeStore
		wantKind  string
		wantCalls int32
	}{
		{
			name:     "fetch not found",
			store:    &fakeStore{objects: map[string][]byte{}},
			wantKind: "FetchError",
		},
		{
			name:     "malformed json",
			store:    &fakeStore{objects: map[string][]byte{"in/a.json": []byte(`{"Text":`)}},
			wantKind: "ParseError",
		},
		{
			name:     "scalar document",
			store:    &fakeStore{objects: map[string][]byte{"in/a.json": []byte(`42`)}},
			wantKind: "ParseError",
		},
		{
			name: "write rejected",
			store: &fakeStore{
				objects:  map[string][]byte{"in/a.json": []byte(`[{"Text":"x"}]`)},
				writeErr: errors.New("AccessDenied"),
			},
			wantKind:  "WriteError",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &prefixTranslator{}
			h := newTestHandler(testConfig(), tt.store, tr)

			resp := h.Handle(context.Background(), notification(t, "in", "a.json"))

			if resp.StatusCode != 500 {
				t.Fatalf("StatusCode = %d, want 500", resp.StatusCode)
			}
			if msg := bodyMessage(t, resp); !strings.Contains(msg, tt.wantKind) {
				t.Errorf("message %q should name %s", msg, tt.wantKind)
			}
			if tr.calls.Load() != tt.wantCalls {
				t.Errorf("translator called %d times, want %d", tr.calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestHandle_EmptyDocument(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"in/empty.json": []byte(`[]`)}}
	h := newTestHandler(testConfig(), store, &prefixTranslator{})

	resp := h.Handle(context.Background(), notification(t, "in", "empty.json"))

	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, body %s", resp.StatusCode, resp.Body)
	}
	want := "{\n  \"original_file\": \"empty.json\",\n  \"translations\": []\n}"
	if len(store.writes) != 1 || string(store.writes[0].body) != want {
		t.Errorf("writes = %+v", store.writes)
	}
}

func TestHandle_URLEncodedKey(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"in/my docs/a+b.json": []byte(`[{"Text":"x"}]`),
	}}
	h := newTestHandler(testConfig(), store, &prefixTranslator{})

	resp := h.Handle(context.Background(), notification(t, "in", "my docs/a+b.json"))
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, body %s", resp.StatusCode, resp.Body)
	}
	if store.writes[0].key != "my docs/a+b-translated.json" {
		t.Errorf("key = %q", store.writes[0].key)
	}
}

func manyItems(n int) []byte {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"Text":"t%02d","TargetLanguageCode":"de"}`, i)
	}
	return []byte("[" + strings.Join(parts, ",") + "]")
}

func TestHandle_ConcurrentPreservesOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Translation.Concurrency = 4
	cfg.Translation.WaveTokens = 5

	store := &fakeStore{objects: map[string][]byte{"in/many.json": manyItems(12)}}
	tr := &prefixTranslator{delay: func(text string) time.Duration {
		// Later items finish first.
		var i int
		fmt.Sscanf(text, "t%d", &i)
		return time.Duration(12-i) * time.Millisecond
	}}
	h := newTestHandler(cfg, store, tr)

	resp := h.Handle(context.Background(), notification(t, "in", "many.json"))
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, body %s", resp.StatusCode, resp.Body)
	}

	var doc domain.ResponseDocument
	if err := json.Unmarshal(store.writes[0].body, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Translations) != 12 {
		t.Fatalf("translations = %d, want 12", len(doc.Translations))
	}
	for i, r := range doc.Translations {
		if want := fmt.Sprintf("de:t%02d", i); r.TranslatedText != want {
			t.Errorf("translations[%d] = %q, want %q", i, r.TranslatedText, want)
		}
	}
}

func TestHandle_ConcurrentFailFast(t *testing.T) {
	cfg := testConfig()
	cfg.Translation.Concurrency = 3

	store := &fakeStore{objects: map[string][]byte{"in/many.json": manyItems(9)}}
	tr := &prefixTranslator{failOn: map[string]bool{"t04": true}}
	h := newTestHandler(cfg, store, tr)

	resp := h.Handle(context.Background(), notification(t, "in", "many.json"))

	if resp.StatusCode != 500 {
		t.Fatalf("StatusCode = %d, want 500", resp.StatusCode)
	}
	if len(store.writes) != 0 {
		t.Errorf("nothing should be written, got %d writes", len(store.writes))
	}
	if msg := bodyMessage(t, resp); !strings.Contains(msg, "item 4") {
		t.Errorf("message %q should identify the failed item", msg)
	}
}

func TestHandle_PartialPolicy(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			cfg := testConfig()
			cfg.Translation.FailurePolicy = config.Partial
			cfg.Translation.Concurrency = concurrency

			store := &fakeStore{objects: map[string][]byte{
				"in/abc.json": []byte(`[{"Text":"A"},{"Text":"B"},{"Text":"C"}]`),
			}}
			tr := &prefixTranslator{failOn: map[string]bool{"B": true}}
			h := newTestHandler(cfg, store, tr)

			resp := h.Handle(context.Background(), notification(t, "in", "abc.json"))

			if resp.StatusCode != 200 {
				t.Fatalf("StatusCode = %d, body %s", resp.StatusCode, resp.Body)
			}
			if tr.calls.Load() != 3 {
				t.Errorf("translator called %d times, want 3", tr.calls.Load())
			}
			var doc domain.ResponseDocument
			if err := json.Unmarshal(store.writes[0].body, &doc); err != nil {
				t.Fatal(err)
			}
			if len(doc.Translations) != 2 || doc.Translations[0].OriginalText != "A" || doc.Translations[1].OriginalText != "C" {
				t.Errorf("translations = %+v", doc.Translations)
			}
			if msg := bodyMessage(t, resp); !strings.Contains(msg, "1 item(s) failed") {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestHandle_EmitsMetrics(t *testing.T) {
	var buf strings.Builder
	store := &fakeStore{objects: map[string][]byte{"in/a.json": []byte(`[{"Text":"x"},{}]`)}}
	h := New(testConfig(), store, store, &prefixTranslator{}, WithMetricsOutput(&buf))

	h.Handle(context.Background(), notification(t, "in", "a.json"))

	var line map[string]interface{}
	if err := json.Unmarshal([]byte(buf.String()), &line); err != nil {
		t.Fatalf("metrics output is not one JSON line: %v\n%s", err, buf.String())
	}
	if line["Outcome"] != "Success" {
		t.Errorf("Outcome = %v", line["Outcome"])
	}
	if line["ItemsTranslated"] != float64(1) || line["ItemsDropped"] != float64(1) {
		t.Errorf("counts: translated=%v dropped=%v", line["ItemsTranslated"], line["ItemsDropped"])
	}
}

func TestBuildResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantPrefix string
	}{
		{"success", nil, 200, "done"},
		{"invalid event", domain.NewError(domain.KindInvalidEvent, errors.New("no records")), 400, "Invalid S3 event: no records"},
		{"fetch", domain.NewError(domain.KindFetch, errors.New("boom")), 500, "Error processing file (FetchError): boom"},
		{"untyped", errors.New("panic-ish"), 500, "Error processing file (InternalError): panic-ish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := BuildResponse(tt.err, "done")
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if msg := bodyMessage(t, resp); msg != tt.wantPrefix {
				t.Errorf("message = %q, want %q", msg, tt.wantPrefix)
			}
		})
	}
}
