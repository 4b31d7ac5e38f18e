package api

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelbin/pixelbin/config"
	"github.com/pixelbin/pixelbin/database"
	"github.com/pixelbin/pixelbin/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *database.DB, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewInMemory()
	require.NoError(t, err)

	dataDir := t.TempDir()
	cfg := &config.Config{
		Listen:    "127.0.0.1:0",
		ServerURL: "http://pixelbin.test",
		DataDir:   dataDir,
		Database:  &config.DatabaseConfig{Path: t.TempDir()},
		Session:   &config.SessionConfig{Key: "test-session-key", MaxAge: 3600},
		Thumbnail: &config.ThumbnailConfig{Width: 128, Height: 128},
	}

	srv, err := New(cfg, db, true)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db, dataDir
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// noRedirect stops the client at the first response so redirects can be asserted.
func noRedirect(c *http.Client) *http.Client {
	clone := *c
	clone.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &clone
}

func postForm(t *testing.T, c *http.Client, url string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(url, form)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func register(t *testing.T, c *http.Client, baseURL, username, password string) {
	t.Helper()
	resp := postForm(t, c, baseURL+"/register", url.Values{
		"username": {username},
		"password": {password},
	})
	readBody(t, resp)
}

func login(t *testing.T, c *http.Client, baseURL, username, password string) {
	t.Helper()
	resp := postForm(t, c, baseURL+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	readBody(t, resp)
}

func registerAndLogin(t *testing.T, c *http.Client, baseURL string) {
	t.Helper()
	register(t, c, baseURL, "alice", "secret")
	login(t, c, baseURL, "alice", "secret")
}

// pngBytes returns a valid encoded PNG of the given dimensions.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 64, B: 192, A: 255}) //nolint:gosec
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(t *testing.T, c *http.Client, baseURL, filename, slug string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("custom_slug", slug))
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts, db, _ := newTestServer(t)
	client := newClient(t)

	register(t, client, ts.URL, "alice", "secret")

	other := newClient(t)
	resp := postForm(t, other, ts.URL+"/register", url.Values{
		"username": {"alice"},
		"password": {"different"},
	})
	body := readBody(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "Username already exists!")

	// The original account is untouched and can still log in.
	user, err := db.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	loginResp := postForm(t, noRedirect(client), ts.URL+"/login", url.Values{
		"username": {"alice"},
		"password": {"secret"},
	})
	readBody(t, loginResp)
	assert.Equal(t, http.StatusFound, loginResp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts, _, _ := newTestServer(t)
	client := newClient(t)

	register(t, client, ts.URL, "alice", "secret")

	resp := postForm(t, client, ts.URL+"/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	body := readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid username or password")

	// No session was established: protected routes still redirect.
	uploadResp, err := noRedirect(client).Get(ts.URL + "/upload")
	require.NoError(t, err)
	readBody(t, uploadResp)
	assert.Equal(t, http.StatusFound, uploadResp.StatusCode)
	assert.Equal(t, "/login", uploadResp.Header.Get("Location"))
}

func TestLogin_UnknownUser(t *testing.T) {
	ts, _, _ := newTestServer(t)
	client := newClient(t)

	resp := postForm(t, client, ts.URL+"/login", url.Values{
		"username": {"ghost"},
		"password": {"whatever"},
	})
	body := readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid username or password")
}

func TestUpload_RequiresAuth(t *testing.T) {
	ts, db, _ := newTestServer(t)
	client := noRedirect(newClient(t))

	resp, err := client.Get(ts.URL + "/upload")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// A POST without a session is redirected too, the body is never processed.
	postResp := upload(t, client, ts.URL, "sneaky.png", "", pngBytes(t, 16, 16))
	readBody(t, postResp)
	assert.Equal(t, http.StatusFound, postResp.StatusCode)
	assert.Equal(t, "/login", postResp.Header.Get("Location"))

	images, err := db.ListImages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestUpload_DisallowedExtension(t *testing.T) {
	ts, db, dataDir := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	tests := []struct {
		name     string
		filename string
	}{
		{name: "executable", filename: "malware.exe"},
		{name: "no extension", filename: "noext"},
		{name: "trailing dot", filename: "weird."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, client, ts.URL, tt.filename, "", []byte("payload"))
			body := readBody(t, resp)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, "File type not allowed")
		})
	}

	images, err := db.ListImages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, images)

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must not leave files behind")
}

func TestUpload_CaseInsensitiveExtension(t *testing.T) {
	ts, db, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	resp := upload(t, client, ts.URL, "SHOUTY.PNG", "", pngBytes(t, 16, 16))
	readBody(t, resp)

	images, err := db.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "SHOUTY.PNG", images[0].Filename)
}

func TestUpload_SlugRoundTrip(t *testing.T) {
	ts, db, dataDir := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	original := pngBytes(t, 256, 192)

	resp := upload(t, client, ts.URL, "sunset.png", "golden-hour", original)
	body := readBody(t, resp)
	// Redirect chain ends on the detail page.
	assert.Contains(t, body, "sunset.png")
	assert.Contains(t, body, "Image uploaded successfully!")

	images, err := db.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.NotNil(t, images[0].CustomSlug)
	assert.Equal(t, "golden-hour", *images[0].CustomSlug)
	require.NotNil(t, images[0].Thumbnail)
	assert.Equal(t, storage.ThumbPrefix+"sunset.png", *images[0].Thumbnail)

	// The thumbnail derivative exists on disk.
	_, err = os.Stat(filepath.Join(dataDir, storage.ThumbPrefix+"sunset.png"))
	assert.NoError(t, err)

	// The short link streams the original bytes unchanged.
	slugResp, err := client.Get(ts.URL + "/i/golden-hour")
	require.NoError(t, err)
	got := readBody(t, slugResp)
	assert.Equal(t, http.StatusOK, slugResp.StatusCode)
	assert.Equal(t, string(original), got)

	// So does the direct file route.
	fileResp, err := client.Get(ts.URL + "/uploads/sunset.png")
	require.NoError(t, err)
	got = readBody(t, fileResp)
	assert.Equal(t, http.StatusOK, fileResp.StatusCode)
	assert.Equal(t, string(original), got)
}

func TestUpload_DuplicateSlug(t *testing.T) {
	ts, db, dataDir := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	readBody(t, upload(t, client, ts.URL, "first.png", "taken", pngBytes(t, 32, 32)))

	resp := upload(t, client, ts.URL, "second.png", "taken", pngBytes(t, 32, 32))
	body := readBody(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "Custom link already in use")

	// No duplicate record, and the rejected file was never written.
	images, err := db.ListImages(context.Background())
	require.NoError(t, err)
	assert.Len(t, images, 1)
	_, err = os.Stat(filepath.Join(dataDir, "second.png"))
	assert.True(t, os.IsNotExist(err), "the slug check must run before the file write")

	// Retrying with a free slug succeeds.
	retry := upload(t, client, ts.URL, "second.png", "free", pngBytes(t, 32, 32))
	readBody(t, retry)

	images, err = db.ListImages(context.Background())
	require.NoError(t, err)
	assert.Len(t, images, 2)

	slugResp, err := client.Get(ts.URL + "/i/free")
	require.NoError(t, err)
	readBody(t, slugResp)
	assert.Equal(t, http.StatusOK, slugResp.StatusCode)
}

func TestUpload_EmptySlugClaimsNothing(t *testing.T) {
	ts, db, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	// Two uploads without a slug must not conflict with each other.
	readBody(t, upload(t, client, ts.URL, "one.png", "", pngBytes(t, 16, 16)))
	readBody(t, upload(t, client, ts.URL, "two.png", "  ", pngBytes(t, 16, 16)))

	images, err := db.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 2)
	for _, img := range images {
		assert.Nil(t, img.CustomSlug)
	}
}

func TestUpload_CorruptImageStillSucceeds(t *testing.T) {
	ts, db, dataDir := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	resp := upload(t, client, ts.URL, "broken.png", "", []byte("definitely not a png"))
	body := readBody(t, resp)
	assert.Contains(t, body, "Image uploaded successfully!")

	images, err := db.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "broken.png", images[0].Filename)
	assert.Nil(t, images[0].Thumbnail, "thumbnail failure must not block the upload")

	// The original is still served.
	fileResp, err := client.Get(ts.URL + "/uploads/broken.png")
	require.NoError(t, err)
	readBody(t, fileResp)
	assert.Equal(t, http.StatusOK, fileResp.StatusCode)

	_, err = os.Stat(filepath.Join(dataDir, storage.ThumbPrefix+"broken.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestIndex_NewestFirst(t *testing.T) {
	ts, _, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	for _, name := range []string{"oldest.png", "middle.png", "newest.png"} {
		readBody(t, upload(t, client, ts.URL, name, "", pngBytes(t, 16, 16)))
	}

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	newest := strings.Index(body, "newest.png")
	middle := strings.Index(body, "middle.png")
	oldest := strings.Index(body, "oldest.png")
	require.True(t, newest >= 0 && middle >= 0 && oldest >= 0)
	assert.Less(t, newest, middle)
	assert.Less(t, middle, oldest)
}

func TestDetail_NotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)
	client := newClient(t)

	for _, path := range []string{"/image/999", "/image/not-a-number", "/i/no-such-slug", "/uploads/missing.png"} {
		resp, err := client.Get(ts.URL + path)
		require.NoError(t, err)
		readBody(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "expected 404 for %s", path)
	}
}

func TestDetail_ShowsUploader(t *testing.T) {
	ts, _, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	readBody(t, upload(t, client, ts.URL, "mine.png", "", pngBytes(t, 16, 16)))

	resp, err := client.Get(ts.URL + "/image/1")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "mine.png")
	assert.Contains(t, body, "alice")
}

func TestLogout(t *testing.T) {
	ts, _, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	resp, err := noRedirect(client).Get(ts.URL + "/logout")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	// The session is gone.
	uploadResp, err := noRedirect(client).Get(ts.URL + "/upload")
	require.NoError(t, err)
	readBody(t, uploadResp)
	assert.Equal(t, http.StatusFound, uploadResp.StatusCode)
	assert.Equal(t, "/login", uploadResp.Header.Get("Location"))
}

func TestUpload_SanitizesFilename(t *testing.T) {
	ts, db, dataDir := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, ts.URL)

	readBody(t, upload(t, client, ts.URL, "../../evil path.png", "", pngBytes(t, 16, 16)))

	images, err := db.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "evil_path.png", images[0].Filename)

	// Nothing escaped the upload directory.
	_, err = os.Stat(filepath.Join(dataDir, "evil_path.png"))
	assert.NoError(t, err)
}
