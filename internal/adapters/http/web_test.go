package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accountStore "shepherd/internal/adapters/storage/account"
	attendanceStore "shepherd/internal/adapters/storage/attendance"
	blogStore "shepherd/internal/adapters/storage/blog"
	eventStore "shepherd/internal/adapters/storage/event"
	financeStore "shepherd/internal/adapters/storage/finance"
	galleryStore "shepherd/internal/adapters/storage/gallery"
	memberStore "shepherd/internal/adapters/storage/member"
	outboxStore "shepherd/internal/adapters/storage/outbox"
	sermonStore "shepherd/internal/adapters/storage/sermon"
	serviceStore "shepherd/internal/adapters/storage/service"
	"shepherd/internal/adapters/storage/storagetest"
	visitorStore "shepherd/internal/adapters/storage/visitor"
	"shepherd/internal/adapters/token"
	"shepherd/internal/application/orchestrators"
	"shepherd/internal/domain/member"
	"shepherd/internal/domain/service"
)

// Sunday 2024-05-12 09:30 UTC, during the morning service.
var testNow = time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)

const testDate = "2024-05-12"

type testServer struct {
	t      *testing.T
	h      http.Handler
	codec  *token.Codec
	stores *Stores
	now    time.Time
}

// newTestServer builds the full handler chain over an in-memory database
// seeded with one service and one active member.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := storagetest.Open(t)
	s := &Stores{
		Accounts:   accountStore.NewSQLiteStore(db),
		Members:    memberStore.NewSQLiteStore(db),
		Visitors:   visitorStore.NewSQLiteStore(db),
		Services:   serviceStore.NewSQLiteStore(db),
		Attendance: attendanceStore.NewSQLiteStore(db),
		Finance:    financeStore.NewSQLiteStore(db),
		Sermons:    sermonStore.NewSQLiteStore(db),
		Posts:      blogStore.NewSQLiteStore(db),
		Events:     eventStore.NewSQLiteStore(db),
		Gallery:    galleryStore.NewSQLiteStore(db),
		Outbox:     outboxStore.NewSQLiteStore(db),
	}
	ts := &testServer{t: t, codec: token.NewCodec("test-secret"), stores: s, now: testNow}
	fixed := func() time.Time { return ts.now }

	RateLimitPerSecond = 10000
	ts.h = NewMux(Options{
		Stores:   s,
		Tokens:   ts.codec,
		Outbox:   orchestrators.NewOutboxProcessor(s.Outbox, nil, fixed, nil),
		CSRFKey:  []byte("0123456789abcdef0123456789abcdef"),
		Location: time.UTC,
		Clock:    fixed,
	})

	ctx := context.Background()
	if err := s.Services.Save(ctx, service.Service{ID: "sunday-am", Name: "Sunday Worship", Day: service.Sunday, StartTime: "09:00", CreatedAt: testNow}); err != nil {
		t.Fatal(err)
	}
	if err := s.Members.Save(ctx, member.Member{
		ID: "m1", Name: "Ama Mensah", Email: "ama@example.org", Phone: "0241000001",
		Status: member.StatusActive, JoinedAt: testNow.AddDate(-1, 0, 0), CreatedAt: testNow.AddDate(-1, 0, 0),
	}); err != nil {
		t.Fatal(err)
	}
	return ts
}

// advance moves the server clock forward.
func (ts *testServer) advance(d time.Duration) {
	ts.now = ts.now.Add(d)
}

// checkinToken signs a token for the seeded service expiring after ttl.
func (ts *testServer) checkinToken(serviceID string, ttl time.Duration) string {
	ts.t.Helper()
	raw, err := ts.codec.Issue(token.Claims{ServiceID: serviceID, Date: testDate, IssuedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(ttl)})
	if err != nil {
		ts.t.Fatal(err)
	}
	return raw
}

// client keeps cookies between requests the way a browser would.
type client struct {
	ts  *testServer
	jar map[string]*http.Cookie
}

func (ts *testServer) anon() *client {
	return &client{ts: ts, jar: map[string]*http.Cookie{}}
}

// as returns a client signed in with the given role.
func (ts *testServer) as(role string) *client {
	ts.t.Helper()
	tok, err := sessions.Create("acc-"+role, role+"@example.org", role)
	if err != nil {
		ts.t.Fatal(err)
	}
	c := ts.anon()
	c.jar["shepherd_session"] = &http.Cookie{Name: "shepherd_session", Value: tok}
	return c
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.jar {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.ts.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.jar[ck.Name] = ck
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) json(method, path string, body any) *httptest.ResponseRecorder {
	c.ts.t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.ts.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

// multipart posts a form. csrf is sent in the X-CSRF-Token header when set.
func (c *client) multipart(method, path string, fields map[string]string, csrf string) *httptest.ResponseRecorder {
	c.ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			c.ts.t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		c.ts.t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	return c.send(req)
}

// csrfToken fetches the session view, which also plants the CSRF cookie.
func (c *client) csrfToken() string {
	c.ts.t.Helper()
	var sess struct {
		CSRFToken string `json:"csrfToken"`
	}
	decode(c.ts.t, c.get("/api/auth/session"), &sess)
	if sess.CSRFToken == "" {
		c.ts.t.Fatal("no csrf token in session view")
	}
	return sess.CSRFToken
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

// decode parses the envelope and, when data is non-nil, its data field.
func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) apiResponse {
	t.Helper()
	var res apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", res.Data, err)
		}
	}
	return res
}
