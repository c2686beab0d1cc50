package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/auth"
	"github.com/brieflyhq/briefly/internal/billing"
	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/handlers"
	"github.com/brieflyhq/briefly/internal/models"
	"github.com/brieflyhq/briefly/internal/paypal"
	"github.com/brieflyhq/briefly/internal/routes"
	"github.com/brieflyhq/briefly/internal/storage"
	"github.com/brieflyhq/briefly/internal/testutil"
)

const baseURL = "http://briefly.test"

// fakePayPal answers the REST calls the billing service makes.
type fakePayPal struct {
	mu        sync.Mutex
	cancelled []string
	requestID string
}

func (f *fakePayPal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/catalogs/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"PROD-1","name":"Briefly Pro Monthly","type":"SERVICE"}`)
	})
	mux.HandleFunc("/v1/billing/plans", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"P-1","product_id":"PROD-1","name":"Pro Monthly","status":"ACTIVE"}`)
	})
	mux.HandleFunc("/v1/billing/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requestID = r.Header.Get("PayPal-Request-Id")
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"I-SUB9","status":"APPROVAL_PENDING","links":[
			{"href":"https://paypal.test/approve?ba_token=BA-1","rel":"approve","method":"GET"}]}`)
	})
	mux.HandleFunc("/v1/billing/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/billing/subscriptions/"), "/cancel")
		f.mu.Lock()
		f.cancelled = append(f.cancelled, id)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

type stubSuggester struct{}

func (stubSuggester) SuggestQuestions(ctx context.Context, description string, count int) ([]models.Question, error) {
	return []models.Question{{ID: "q_1_1", Type: models.QuestionLong, Question: "What should the site achieve?"}}, nil
}

type testApp struct {
	router *gin.Engine
	db     *database.DB
	h      *handlers.Handlers
	tokens *auth.Tokens
	paypal *fakePayPal
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	users := database.NewUserStore(db)

	fake := &fakePayPal{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	catalog, err := billing.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	svc := billing.NewService(catalog, database.NewPlanStore(db), database.NewSubscriptionStore(db), users,
		paypal.New(paypal.Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"}),
		billing.Options{ReturnURL: baseURL + "/ok", CancelURL: baseURL + "/cancel"})

	tokens := auth.NewTokens("test-secret", time.Hour)
	h := &handlers.Handlers{
		Briefs:    database.NewBriefStore(db),
		Responses: database.NewResponseStore(db),
		Users:     users,
		Storage:   storage.NewLocal(t.TempDir(), baseURL),
		Tokens:    tokens,
		Billing:   svc,
		BaseURL:   baseURL,
	}
	return &testApp{
		router: routes.SetupRouter(h, tokens, "*"),
		db:     db,
		h:      h,
		tokens: tokens,
		paypal: fake,
	}
}

func (a *testApp) bearer(t *testing.T, userID string) map[string]string {
	t.Helper()
	tok, err := a.tokens.GenerateToken(userID)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func multipartFile(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(content)
	w.Close()
	return body, w.FormDataContentType()
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func TestPing(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(testutil.MakeRequest(http.MethodGet, "/v1/ping", nil, nil))
	expectStatus(t, rec, http.StatusOK)
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	body := map[string]string{"fullName": "Ada", "email": "Ada@Example.com", "password": "correct-horse"}

	rec := app.do(testutil.MakeRequest(http.MethodPost, "/v1/auth/register", body, nil))
	expectStatus(t, rec, http.StatusCreated)
	var reg struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	testutil.DecodeJSON(t, rec, &reg)
	if reg.Token == "" || reg.User.Email != "ada@example.com" {
		t.Fatalf("register = %+v", reg)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/auth/register", body, nil))
	expectStatus(t, rec, http.StatusConflict)

	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/auth/register",
		map[string]string{"fullName": "Bo", "email": "bo@example.com", "password": "short"}, nil))
	expectStatus(t, rec, http.StatusBadRequest)

	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/auth/login",
		map[string]string{"email": "ada@example.com", "password": "correct-horse"}, nil))
	expectStatus(t, rec, http.StatusOK)
	var login struct {
		Token string `json:"token"`
	}
	testutil.DecodeJSON(t, rec, &login)
	if id, err := app.tokens.ValidateToken(login.Token); err != nil || id != reg.User.ID {
		t.Fatalf("login token resolves to %q, %v", id, err)
	}

	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/auth/login",
		map[string]string{"email": "ada@example.com", "password": "wrong-horse"}, nil))
	expectStatus(t, rec, http.StatusUnauthorized)
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/auth/login",
		map[string]string{"email": "nobody@example.com", "password": "whatever"}, nil))
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestBriefsRequireAuth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs", nil, nil))
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestBriefLifecycle(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	other := testutil.CreateTestUser(t, app.db, "other@example.com")
	hdr := app.bearer(t, owner.ID)

	// 1. Create; the question gets an id and the style defaults
	rec := app.do(testutil.MakeRequest(http.MethodPost, "/v1/briefs", map[string]any{
		"title":     "Logo project",
		"questions": []map[string]any{{"type": "short", "question": "Company?", "required": true}},
	}, hdr))
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		Brief models.Brief `json:"brief"`
	}
	testutil.DecodeJSON(t, rec, &created)
	b := created.Brief
	if !strings.HasPrefix(b.Questions[0].ID, "q_") || b.Style.PrimaryColor != models.DefaultStyle().PrimaryColor {
		t.Fatalf("created = %+v", b)
	}

	// 2. Read it back; strangers get 404
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID, nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID, nil, app.bearer(t, other.ID)))
	expectStatus(t, rec, http.StatusNotFound)

	// 3. Saving an unknown question type is rejected with the problem list
	rec = app.do(testutil.MakeRequest(http.MethodPut, "/v1/briefs/"+b.ID, map[string]any{
		"title":     "Logo project",
		"questions": []map[string]any{{"id": "q1", "type": "dropdown", "question": "?"}},
	}, hdr))
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if !strings.Contains(rec.Body.String(), "problems") {
		t.Fatalf("body = %s", rec.Body.String())
	}

	// 4. A valid full replace
	rec = app.do(testutil.MakeRequest(http.MethodPut, "/v1/briefs/"+b.ID, map[string]any{
		"title":       "Logo refresh",
		"description": "Round two",
		"questions":   b.Questions,
		"style":       map[string]any{"primaryColor": "#112233", "secondaryColor": "#445566", "fontFamily": "Inter", "headerStyle": "minimal"},
	}, hdr))
	expectStatus(t, rec, http.StatusOK)

	// 5. Dashboard
	testutil.CreateTestBrief(t, app.db, owner.ID)
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs", nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Briefs []models.Brief          `json:"briefs"`
		Totals handlers.DashboardStats `json:"totals"`
	}
	testutil.DecodeJSON(t, rec, &list)
	if len(list.Briefs) != 2 || list.Totals.Briefs != 2 || list.Totals.Publishable != 2 {
		t.Fatalf("list = %+v", list)
	}

	// 6. Delete
	rec = app.do(testutil.MakeRequest(http.MethodDelete, "/v1/briefs/"+b.ID, nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID, nil, hdr))
	expectStatus(t, rec, http.StatusNotFound)
}

func TestShareRequiresPublishableBrief(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	hdr := app.bearer(t, owner.ID)

	rec := app.do(testutil.MakeRequest(http.MethodPost, "/v1/briefs", map[string]any{"title": "   "}, hdr))
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		Brief models.Brief `json:"brief"`
	}
	testutil.DecodeJSON(t, rec, &created)

	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+created.Brief.ID+"/share", nil, hdr))
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/public/briefs/"+created.Brief.ID, nil, nil))
	expectStatus(t, rec, http.StatusNotFound)

	b := testutil.CreateTestBrief(t, app.db, owner.ID)
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID+"/share", nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	var share struct {
		URL string `json:"url"`
	}
	testutil.DecodeJSON(t, rec, &share)
	if share.URL != baseURL+"/share/"+b.ID {
		t.Fatalf("url = %q", share.URL)
	}
}

func TestQuestionBuilderEndpoints(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	hdr := app.bearer(t, owner.ID)
	b := testutil.CreateTestBrief(t, app.db, owner.ID)
	base := "/v1/briefs/" + b.ID + "/questions"

	var out struct {
		Questions []models.Question `json:"questions"`
	}
	call := func(method, path string, body any, want int) {
		t.Helper()
		rec := app.do(testutil.MakeRequest(method, path, body, hdr))
		expectStatus(t, rec, want)
		if want == http.StatusOK {
			out.Questions = nil
			testutil.DecodeJSON(t, rec, &out)
		}
	}

	// Add a checkbox question: it starts with two options
	call(http.MethodPost, base, map[string]string{"type": "checkbox"}, http.StatusOK)
	if len(out.Questions) != 3 || len(out.Questions[2].Options) != 2 {
		t.Fatalf("after add = %+v", out.Questions)
	}
	qid := out.Questions[2].ID
	call(http.MethodPost, base, map[string]string{"type": "dropdown"}, http.StatusBadRequest)

	// Patch and move it to the front
	call(http.MethodPatch, base+"/"+qid, map[string]any{"question": "Services?", "required": true}, http.StatusOK)
	call(http.MethodPost, base+"/move", map[string]int{"from": 2, "to": 0}, http.StatusOK)
	if out.Questions[0].ID != qid || out.Questions[0].Question != "Services?" || out.Questions[1].ID != "q1" {
		t.Fatalf("after move = %+v", out.Questions)
	}
	call(http.MethodPost, base+"/move", map[string]int{"from": 0, "to": 7}, http.StatusBadRequest)

	// Options
	call(http.MethodPost, base+"/"+qid+"/options", map[string]string{"text": "SEO"}, http.StatusOK)
	if len(out.Questions[0].Options) != 3 {
		t.Fatalf("options = %v", out.Questions[0].Options)
	}
	call(http.MethodPut, base+"/"+qid+"/options/0", map[string]string{"text": "Branding"}, http.StatusOK)
	call(http.MethodDelete, base+"/"+qid+"/options/1", nil, http.StatusOK)
	call(http.MethodDelete, base+"/"+qid+"/options/1", nil, http.StatusOK)
	if got := out.Questions[0].Options; len(got) != 2 || got[0] != "Branding" || got[1] != "SEO" {
		t.Fatalf("options after removals = %v", got)
	}
	call(http.MethodPut, base+"/"+qid+"/options/9", map[string]string{"text": "x"}, http.StatusBadRequest)
	call(http.MethodDelete, base+"/"+qid+"/options/abc", nil, http.StatusBadRequest)
	call(http.MethodPost, base+"/q1/options", map[string]string{"text": "x"}, http.StatusBadRequest)

	// Remove, then the id is gone
	call(http.MethodDelete, base+"/"+qid, nil, http.StatusOK)
	call(http.MethodPatch, base+"/"+qid, map[string]any{"question": "?"}, http.StatusNotFound)

	stored, err := database.NewBriefStore(app.db).Get(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Questions) != 2 || stored.Questions[0].ID != "q1" {
		t.Fatalf("stored questions = %+v", stored.Questions)
	}
}

func TestSubmitResponseStoresOnlyAnsweredQuestions(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	b := testutil.CreateTestBrief(t, app.db, owner.ID)

	rec := app.do(testutil.MakeRequest(http.MethodPost, "/v1/public/briefs/"+b.ID+"/responses",
		map[string]any{"answers": map[string]any{"q1": "Acme Corp", "q_unknown": "dropped"}},
		map[string]string{"User-Agent": "TestAgent/1.0", "Accept-Language": "de-DE,de;q=0.9"}))
	expectStatus(t, rec, http.StatusCreated)

	var raw string
	if err := app.db.QueryRow(`SELECT answers FROM responses WHERE brief_id = ?`, b.ID).Scan(&raw); err != nil {
		t.Fatalf("load stored answers: %v", err)
	}
	var stored map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored answers %q: %v", raw, err)
	}
	if string(stored["q1"]) != `"Acme Corp"` {
		t.Fatalf("q1 = %s", stored["q1"])
	}
	if _, ok := stored[models.ClientInfoKey]; !ok {
		t.Fatalf("client info missing: %s", raw)
	}
	for _, key := range []string{"q2", "q_unknown"} {
		if _, ok := stored[key]; ok {
			t.Fatalf("%s stored: %s", key, raw)
		}
	}
	var info models.ClientInfo
	json.Unmarshal(stored[models.ClientInfoKey], &info)
	if info.UserAgent != "TestAgent/1.0" || info.Timestamp == "" {
		t.Fatalf("client info = %+v", info)
	}

	// Bad email and unreadable answers are rejected
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/public/briefs/"+b.ID+"/responses",
		map[string]any{"respondentEmail": "not-an-email", "answers": map[string]any{"q1": "x"}}, nil))
	expectStatus(t, rec, http.StatusBadRequest)
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/public/briefs/"+b.ID+"/responses",
		map[string]any{"answers": 42}, nil))
	expectStatus(t, rec, http.StatusBadRequest)
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/public/briefs/missing/responses",
		map[string]any{"answers": map[string]any{}}, nil))
	expectStatus(t, rec, http.StatusNotFound)
}

func TestResponseViewerAndExport(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	hdr := app.bearer(t, owner.ID)
	b := testutil.CreateTestBrief(t, app.db, owner.ID)

	for _, company := range []string{"Acme Corp", "Globex"} {
		rec := app.do(testutil.MakeRequest(http.MethodPost, "/v1/public/briefs/"+b.ID+"/responses", map[string]any{
			"respondentEmail": "client@example.com",
			"answers":         []map[string]any{{"questionId": "q1", "answer": company}, {"questionId": "q2", "answer": "Grow"}},
		}, nil))
		expectStatus(t, rec, http.StatusCreated)
	}

	rec := app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID+"/responses", nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Responses []handlers.ResponseView `json:"responses"`
	}
	testutil.DecodeJSON(t, rec, &list)
	if len(list.Responses) != 2 {
		t.Fatalf("responses = %+v", list.Responses)
	}
	first := list.Responses[0]
	if len(first.Entries) != 2 || first.Entries[0].QuestionID != "q1" || first.Entries[1].Question != "What are your goals?" {
		t.Fatalf("entries = %+v", first.Entries)
	}

	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID+"/responses/"+first.ID, nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID+"/responses/nope", nil, hdr))
	expectStatus(t, rec, http.StatusNotFound)

	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID+"/export", nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") ||
		!strings.Contains(rec.Header().Get("Content-Disposition"), "website-redesign-responses.csv") {
		t.Fatalf("headers = %v", rec.Header())
	}
	if !strings.HasPrefix(rec.Body.String(), "submitted_at,respondent_email,Company name?,What are your goals?") ||
		!strings.Contains(rec.Body.String(), "Globex") {
		t.Fatalf("csv = %s", rec.Body.String())
	}

	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID+"/export?format=xlsx", nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("xlsx is not a zip archive")
	}
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/briefs/"+b.ID+"/export?format=pdf", nil, hdr))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestSharePage(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	b := testutil.CreateTestBrief(t, app.db, owner.ID)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/share/"+b.ID, nil))
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Company name?") || !strings.Contains(rec.Body.String(), `name="q1"`) {
		t.Fatalf("page = %s", rec.Body.String())
	}

	form := url.Values{"q1": {"Acme Corp"}, "q2": {""}, "_timezone": {"Europe/Berlin"}}
	req := httptest.NewRequest(http.MethodPost, "/share/"+b.ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = app.do(req)
	expectStatus(t, rec, http.StatusCreated)
	if !strings.Contains(rec.Body.String(), "Thank you") {
		t.Fatalf("page = %s", rec.Body.String())
	}

	responses, err := database.NewResponseStore(app.db).ListByBrief(context.Background(), b.ID)
	if err != nil || len(responses) != 1 {
		t.Fatalf("responses = %v, %v", responses, err)
	}
	r := responses[0]
	if r.Answers["q1"].Text != "Acme Corp" || r.ClientInfo == nil || r.ClientInfo.Timezone != "Europe/Berlin" {
		t.Fatalf("response = %+v", r)
	}
	if _, ok := r.Answers["q2"]; ok {
		t.Fatalf("blank q2 stored")
	}

	rec = app.do(httptest.NewRequest(http.MethodGet, "/share/missing", nil))
	expectStatus(t, rec, http.StatusNotFound)
}

func TestUploads(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	hdr := app.bearer(t, owner.ID)
	b := testutil.CreateTestBrief(t, app.db, owner.ID)

	// Respondent attachment, then fetch it back
	body, ct := multipartFile(t, "file", "Brand Guide.pdf", []byte("%PDF-1.4 test"))
	rec := app.do(testutil.MakeRequest(http.MethodPost, "/v1/public/briefs/"+b.ID+"/uploads", nil, nil))
	expectStatus(t, rec, http.StatusBadRequest)
	req := httptest.NewRequest(http.MethodPost, "/v1/public/briefs/"+b.ID+"/uploads", body)
	req.Header.Set("Content-Type", ct)
	rec = app.do(req)
	expectStatus(t, rec, http.StatusCreated)
	var up struct {
		URL string `json:"url"`
	}
	testutil.DecodeJSON(t, rec, &up)
	if !strings.HasPrefix(up.URL, baseURL+"/storage/brief-assets/") || !strings.HasSuffix(up.URL, "-brand-guide.pdf") {
		t.Fatalf("url = %q", up.URL)
	}
	rec = app.do(httptest.NewRequest(http.MethodGet, strings.TrimPrefix(up.URL, baseURL), nil))
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "%PDF-1.4 test" {
		t.Fatalf("served %q", rec.Body.String())
	}
	rec = app.do(httptest.NewRequest(http.MethodGet, "/storage/secrets/x.txt", nil))
	expectStatus(t, rec, http.StatusNotFound)

	// Logos must be images
	body, ct = multipartFile(t, "file", "logo.png", []byte("plain text"))
	req = httptest.NewRequest(http.MethodPost, "/v1/briefs/"+b.ID+"/logo", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", hdr["Authorization"])
	rec = app.do(req)
	expectStatus(t, rec, http.StatusUnsupportedMediaType)

	body, ct = multipartFile(t, "file", "logo.png", pngBytes)
	req = httptest.NewRequest(http.MethodPost, "/v1/briefs/"+b.ID+"/logo", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", hdr["Authorization"])
	rec = app.do(req)
	expectStatus(t, rec, http.StatusOK)

	stored, err := database.NewBriefStore(app.db).Get(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.HasPrefix(stored.Style.Logo, baseURL+"/storage/branding/") {
		t.Fatalf("logo = %q", stored.Style.Logo)
	}
	rec = app.do(httptest.NewRequest(http.MethodGet, strings.TrimPrefix(stored.Style.Logo, baseURL), nil))
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" || rec.Header().Get("Content-Disposition") != "" {
		t.Fatalf("logo served as %q, disposition %q", ct, rec.Header().Get("Content-Disposition"))
	}
}

func TestUploadedMarkupIsDownloaded(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	b := testutil.CreateTestBrief(t, app.db, owner.ID)

	for _, name := range []string{"x.html", "drawing.svg", "notes.pdf"} {
		body, ct := multipartFile(t, "file", name, []byte("<script>alert(document.cookie)</script>"))
		req := httptest.NewRequest(http.MethodPost, "/v1/public/briefs/"+b.ID+"/uploads", body)
		req.Header.Set("Content-Type", ct)
		rec := app.do(req)
		expectStatus(t, rec, http.StatusCreated)
		var up struct {
			URL string `json:"url"`
		}
		testutil.DecodeJSON(t, rec, &up)

		rec = app.do(httptest.NewRequest(http.MethodGet, strings.TrimPrefix(up.URL, baseURL), nil))
		expectStatus(t, rec, http.StatusOK)
		if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
			t.Fatalf("%s: content type = %q", name, ct)
		}
		if d := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(d, "attachment") {
			t.Fatalf("%s: disposition = %q", name, d)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s: nosniff missing", name)
		}
	}
}

func TestOversizedBodiesRejected(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	hdr := app.bearer(t, owner.ID)
	b := testutil.CreateTestBrief(t, app.db, owner.ID)

	// No upload questions, so the form may carry little more than text
	form := url.Values{"q1": {strings.Repeat("a", 2<<20)}}
	req := httptest.NewRequest(http.MethodPost, "/share/"+b.ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := app.do(req)
	expectStatus(t, rec, http.StatusRequestEntityTooLarge)

	// Logos are capped at the branding limit
	body, ct := multipartFile(t, "file", "logo.png", append(append([]byte{}, pngBytes...), make([]byte, 4<<20)...))
	req = httptest.NewRequest(http.MethodPost, "/v1/briefs/"+b.ID+"/logo", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", hdr["Authorization"])
	rec = app.do(req)
	expectStatus(t, rec, http.StatusRequestEntityTooLarge)

	responses, err := database.NewResponseStore(app.db).ListByBrief(context.Background(), b.ID)
	if err != nil || len(responses) != 0 {
		t.Fatalf("responses = %v, %v", responses, err)
	}
}

func TestSuggestQuestions(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.CreateTestUser(t, app.db, "owner@example.com")
	hdr := app.bearer(t, owner.ID)
	body := map[string]any{"description": "A bakery website"}

	rec := app.do(testutil.MakeRequest(http.MethodPost, "/v1/briefs/suggest", body, hdr))
	expectStatus(t, rec, http.StatusServiceUnavailable)

	app.h.AI = stubSuggester{}
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/briefs/suggest", body, hdr))
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "What should the site achieve?") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func webhookEvent(eventType, userID string, at time.Time) map[string]any {
	return map[string]any{
		"id":            fmt.Sprintf("WH-%d", at.Unix()),
		"event_type":    eventType,
		"create_time":   at.Format(time.RFC3339),
		"resource_type": "subscription",
		"resource": map[string]any{
			"id": "I-SUB9", "plan_id": "P-1", "custom_id": userID, "status": "ACTIVE",
		},
	}
}

func TestSubscriptionFlow(t *testing.T) {
	app := newTestApp(t)
	user := testutil.CreateTestUser(t, app.db, "payer@example.com")
	hdr := app.bearer(t, user.ID)

	rec := app.do(testutil.MakeRequest(http.MethodGet, "/v1/subscriptions/plans", nil, nil))
	expectStatus(t, rec, http.StatusOK)
	var plans struct {
		Plans []billing.CatalogPlan `json:"plans"`
	}
	testutil.DecodeJSON(t, rec, &plans)
	if len(plans.Plans) != 2 {
		t.Fatalf("plans = %+v", plans.Plans)
	}

	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/subscriptions/me", nil, hdr))
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"status":"NONE"`) {
		t.Fatalf("me = %s", rec.Body.String())
	}

	// Checkout
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/subscriptions", map[string]string{"plan": "Enterprise"}, hdr))
	expectStatus(t, rec, http.StatusBadRequest)
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/subscriptions", map[string]string{"plan": "Pro Monthly"}, hdr))
	expectStatus(t, rec, http.StatusCreated)
	var checkout billing.Checkout
	testutil.DecodeJSON(t, rec, &checkout)
	if checkout.SubscriptionID != "I-SUB9" || !strings.Contains(checkout.ApprovalURL, "ba_token=BA-1") {
		t.Fatalf("checkout = %+v", checkout)
	}
	if !strings.HasPrefix(app.paypal.requestID, user.ID+"-") {
		t.Fatalf("PayPal-Request-Id = %q", app.paypal.requestID)
	}

	// Nothing to cancel before activation
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/subscriptions/cancel", nil, hdr))
	expectStatus(t, rec, http.StatusNotFound)

	// Activation arrives by webhook, twice
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/webhooks/paypal",
			webhookEvent(paypal.EventSubscriptionActivated, user.ID, at), nil))
		expectStatus(t, rec, http.StatusOK)
	}
	var rows int
	if err := app.db.QueryRow(`SELECT COUNT(*) FROM user_subscriptions`).Scan(&rows); err != nil || rows != 1 {
		t.Fatalf("rows = %d, %v", rows, err)
	}
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/subscriptions/me", nil, hdr))
	if !strings.Contains(rec.Body.String(), `"status":"ACTIVE"`) || !strings.Contains(rec.Body.String(), `"planName":"Pro Monthly"`) {
		t.Fatalf("me = %s", rec.Body.String())
	}

	// Cancel goes to PayPal; the status waits for the event
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/subscriptions/cancel", map[string]string{"reason": "Too pricey"}, hdr))
	expectStatus(t, rec, http.StatusAccepted)
	if len(app.paypal.cancelled) != 1 || app.paypal.cancelled[0] != "I-SUB9" {
		t.Fatalf("cancelled = %v", app.paypal.cancelled)
	}
	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/webhooks/paypal",
		webhookEvent(paypal.EventSubscriptionCancelled, user.ID, at.Add(time.Hour)), nil))
	expectStatus(t, rec, http.StatusOK)
	rec = app.do(testutil.MakeRequest(http.MethodGet, "/v1/subscriptions/me", nil, hdr))
	if !strings.Contains(rec.Body.String(), `"status":"CANCELED"`) {
		t.Fatalf("me = %s", rec.Body.String())
	}
}

func TestPayPalWebhookRejections(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/paypal", strings.NewReader("{not json"))
	expectStatus(t, app.do(req), http.StatusBadRequest)

	rec := app.do(testutil.MakeRequest(http.MethodPost, "/v1/webhooks/paypal",
		webhookEvent(paypal.EventSubscriptionActivated, "ghost", time.Now()), nil))
	expectStatus(t, rec, http.StatusBadRequest)

	rec = app.do(testutil.MakeRequest(http.MethodPost, "/v1/webhooks/paypal",
		webhookEvent("PAYMENT.SALE.COMPLETED", "ghost", time.Now()), nil))
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "ignored") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
