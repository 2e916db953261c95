package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/dscript/internal/fixture"
	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/platform"
)

var vifStream = []byte{
	0x04, 0x01, 0x00, 0x01, // STCYCL cl=4 wl=1
	0x00, 0x40, 0x01, 0x6E, // V4_8 num=1 unsigned
	1, 2, 3, 4,
}

func testContainer() []byte {
	pkg := fixture.Package{
		Magic:   platform.MagicPS2,
		Version: 9,
		UID:     0x77,
		PS2:     true,
		Indices: []uint16{0},
		Models: []fixture.Model{{
			UID:          0x10,
			VertexBuffer: 0xFF,
			Lods: []fixture.Lod{{Instances: []fixture.Instance{{
				SubModels: []fixture.SubModel{{Data: vifStream}},
			}}}},
		}},
		Textures:    []fixture.Texture{{UID: 0xCAFE, Modes: 1, CLUTs: []uint32{0x10}}},
		Substances:  []fixture.Substance{{Textures: []uint32{0}}},
		Materials:   []fixture.Material{{Flags: 1, Speed: 2.5, Substances: []uint32{0}}},
		TextureData: make([]byte, 16),
	}
	return fixture.Chunk(
		fixture.Entry{Context: 0x2, Children: []fixture.Entry{
			{Context: platform.MagicPS2, Data: pkg.Bytes()},
			{Context: platform.MagicPS2, Data: []byte("not a package")},
		}},
	)
}

func newTestEcho(opts Options) *echo.Echo {
	if opts.Platform == 0 {
		opts.Platform = platform.PS2
	}
	server := NewServer(NewContainerStore(), opts)
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, e *echo.Echo, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
	}
	return out
}

func mustUpload(t *testing.T, e *echo.Echo) Container {
	t.Helper()
	rec := upload(t, e, "/v1/containers?name=level.chnk", testContainer())
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status: got %d body=%s", rec.Code, rec.Body.String())
	}
	return decode[Container](t, rec)
}

func TestContainerLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Options{})
	created := mustUpload(t, e)
	if !strings.HasPrefix(created.ID, "ctr_") {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if created.Name != "level.chnk" || created.Buffers != 3 || created.Compressed {
		t.Fatalf("unexpected container: %+v", created)
	}
	if len(created.Tree) != 1 || len(created.Tree[0].Children) != 2 {
		t.Fatalf("unexpected tree: %+v", created.Tree)
	}

	listRec := doJSON(t, e, http.MethodGet, "/v1/containers", "")
	list := decode[ContainerList](t, listRec)
	if len(list.Data) != 1 || list.Data[0].ID != created.ID || list.Data[0].Tree != nil {
		t.Fatalf("unexpected list: %+v", list)
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/containers/"+created.ID, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}

	delRec := doJSON(t, e, http.MethodDelete, "/v1/containers/"+created.ID, "")
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d body=%s", delRec.Code, delRec.Body.String())
	}
	if !strings.Contains(delRec.Body.String(), `"deleted":true`) {
		t.Fatalf("delete response missing deleted=true: %s", delRec.Body.String())
	}

	getDeletedRec := doJSON(t, e, http.MethodGet, "/v1/containers/"+created.ID, "")
	if getDeletedRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d body=%s", getDeletedRec.Code, getDeletedRec.Body.String())
	}
}

func TestUploadErrors(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Options{MaxUploadBytes: 64})
	cases := []struct {
		name string
		body []byte
		code int
		want string
	}{
		{"empty", nil, http.StatusBadRequest, "request body is empty"},
		{"garbage", []byte("definitely not a chunk"), http.StatusUnprocessableEntity, "decode_error"},
		{"too large", testContainer(), http.StatusRequestEntityTooLarge, "container exceeds 64 bytes"},
	}
	for _, tc := range cases {
		rec := upload(t, e, "/v1/containers", tc.body)
		if rec.Code != tc.code {
			t.Fatalf("%s: got %d want %d body=%s", tc.name, rec.Code, tc.code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s: body %s missing %q", tc.name, rec.Body.String(), tc.want)
		}
	}
}

func TestUploadCompressedOverLimit(t *testing.T) {
	t.Parallel()

	bomb, err := chunk.Compress(make([]byte, 2<<20), 19)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	e := newTestEcho(Options{MaxUploadBytes: 1 << 20, MaxContainerBytes: 1 << 20})
	rec := upload(t, e, "/v1/containers", bomb)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d want 422 body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "decompressed container exceeds") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestUploadCompressed(t *testing.T) {
	t.Parallel()

	packed, err := chunk.Compress(testContainer(), 3)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	e := newTestEcho(Options{})
	rec := upload(t, e, "/v1/containers", packed)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status: got %d body=%s", rec.Code, rec.Body.String())
	}
	c := decode[Container](t, rec)
	if !c.Compressed || c.Buffers != 3 || c.Size != len(packed) {
		t.Fatalf("unexpected container: %+v", c)
	}
}

func TestListPackagesIsolatesFailures(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Options{})
	c := mustUpload(t, e)
	rec := doJSON(t, e, http.MethodGet, "/v1/containers/"+c.ID+"/packages?platform=ps2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	list := decode[PackageList](t, rec)
	if list.Platform != "PS2" || len(list.Data) != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if !list.Data[0].Decoded || list.Data[0].UID != 0x77 || list.Data[0].Models != 1 {
		t.Fatalf("first package: %+v", list.Data[0])
	}
	if list.Data[1].Decoded || list.Data[1].Error == "" {
		t.Fatalf("second package should fail: %+v", list.Data[1])
	}
}

func TestGetPackage(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Options{})
	c := mustUpload(t, e)
	base := "/v1/containers/" + c.ID + "/packages/"

	rec := doJSON(t, e, http.MethodGet, base+"0?vif=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[map[string]any](t, rec)
	if got["object"] != "model_package" || got["magic"] != "GMC2" {
		t.Fatalf("unexpected package: %v", got)
	}
	if !strings.Contains(rec.Body.String(), `"name":"STCYCL"`) {
		t.Fatalf("vif listing missing: %s", rec.Body.String())
	}

	rec = doJSON(t, e, http.MethodGet, base+"1", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("broken package: got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodGet, base+"9", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing package: got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodGet, base+"0?platform=dreamcast", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown platform: got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodGet, base+"0?version=x", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad version: got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodGet, base+"zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad index: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubModelVIF(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Options{})
	c := mustUpload(t, e)
	base := "/v1/containers/" + c.ID + "/packages/0/submodels/"

	rec := doJSON(t, e, http.MethodGet, base+"0/vif", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	out := decode[VIFResponse](t, rec)
	if out.Size != len(vifStream) || len(out.Instructions) != 2 || out.Error != "" {
		t.Fatalf("unexpected program: %+v", out)
	}
	if out.Instructions[1].Unpack == nil || out.Instructions[1].Unpack.Count() != 1 {
		t.Fatalf("unpack not decoded: %+v", out.Instructions[1])
	}

	rec = doJSON(t, e, http.MethodGet, base+"3/vif", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing sub model: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestFindMaterial(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Options{})
	c := mustUpload(t, e)
	base := "/v1/containers/" + c.ID + "/packages/0/materials/"

	cases := []struct {
		handle string
		result string
		found  bool
	}{
		{"00770000", "found", true},
		{"0xFFFD0000", "found", true},
		{"FFFD0004", "missing", false},
		{"12340000", "not_owned", false},
	}
	for _, tc := range cases {
		rec := doJSON(t, e, http.MethodGet, base+tc.handle, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: got %d body=%s", tc.handle, rec.Code, rec.Body.String())
		}
		out := decode[MaterialResponse](t, rec)
		if out.Result != tc.result || (out.Data != nil) != tc.found {
			t.Fatalf("%s: unexpected lookup %+v", tc.handle, out)
		}
		if tc.found && (!out.Data.Animated || out.Data.AnimationSpeed != 2.5) {
			t.Fatalf("%s: unexpected material %+v", tc.handle, out.Data)
		}
	}

	rec := doJSON(t, e, http.MethodGet, base+"zz", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad handle: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUnknownContainer(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Options{})
	for _, path := range []string{
		"/v1/containers/ctr_missing",
		"/v1/containers/ctr_missing/packages",
		"/v1/containers/ctr_missing/packages/0",
	} {
		rec := doJSON(t, e, http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: got %d body=%s", path, rec.Code, rec.Body.String())
		}
	}
	rec := doJSON(t, e, http.MethodDelete, "/v1/containers/ctr_missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete: got %d", rec.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Options{})
	rec := doJSON(t, e, http.MethodGet, "/v1/version", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"version"`) {
		t.Fatalf("version: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	l := NewRateLimiter(1, 2)
	now := time.Unix(1000, 0)
	l.clock = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst should be allowed")
	}
	if l.Allow("a") {
		t.Fatalf("third request within the same instant should be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("clients are limited independently")
	}
	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("token should refill after a second")
	}

	if !NewRateLimiter(0, 0).Allow("x") {
		t.Fatalf("zero rate disables limiting")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	l := NewRateLimiter(0.001, 1)
	e := echo.New()
	e.Use(l.Middleware())
	NewServer(nil, Options{Platform: platform.PS2}).Register(e)

	first := doJSON(t, e, http.MethodGet, "/v1/version", "")
	if first.Code != http.StatusOK {
		t.Fatalf("first: got %d", first.Code)
	}
	second := doJSON(t, e, http.MethodGet, "/v1/version", "")
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second: got %d body=%s", second.Code, second.Body.String())
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}
