package echoapi_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/infobank/intranet/apps/api/echo"
	"github.com/infobank/intranet/core/user"
)

func newUploadRequest(t *testing.T, token, folder, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if folder != "" {
		if err := mw.WriteField("folder", folder); err != nil {
			t.Fatalf("newUploadRequest(): %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("newUploadRequest(): %v", err)
	}
	if _, err = fw.Write(content); err != nil {
		t.Fatalf("newUploadRequest(): %v", err)
	}
	if err = mw.Close(); err != nil {
		t.Fatalf("newUploadRequest(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func Test_uploadApi(t *testing.T) {
	usr := createUser(t, "Ulises", "ulises@upload.cd", testPwd, user.RolUsuario)
	adm := createUser(t, "Uma", "uma@upload.cd", testPwd, user.RolAdmin)
	usrToken := getToken(t, usr)
	admToken := getToken(t, adm)

	photo := []byte("not really a png but close enough")

	t.Run("requires token", func(t *testing.T) {
		req, rec := newUploadRequest(t, "", "perfiles", "foto.png", photo)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		}, rec)
	})

	t.Run("user uploads profile photo", func(t *testing.T) {
		req, rec := newUploadRequest(t, usrToken, "perfiles", "foto.png", photo)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var resp UploadResponse
		decodeBody(t, rec, &resp)
		if !strings.HasPrefix(resp.URL, "/media/perfiles/") {
			t.Errorf("url = %v; want /media/perfiles/ prefix", resp.URL)
		}
		if !strings.HasSuffix(resp.URL, ".png") {
			t.Errorf("url = %v; want .png suffix", resp.URL)
		}
	})

	t.Run("user denied elsewhere", func(t *testing.T) {
		req, rec := newUploadRequest(t, usrToken, "cursos", "portada.jpg", photo)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermDenied),
		}, rec)
	})

	t.Run("user denied default folder", func(t *testing.T) {
		req, rec := newUploadRequest(t, usrToken, "", "foto.png", photo)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermDenied),
		}, rec)
	})

	t.Run("admin uploads course media", func(t *testing.T) {
		req, rec := newUploadRequest(t, admToken, "cursos", "portada.jpg", photo)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var resp UploadResponse
		decodeBody(t, rec, &resp)
		if !strings.HasPrefix(resp.URL, "/media/cursos/") {
			t.Errorf("url = %v; want /media/cursos/ prefix", resp.URL)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		req, rec := newUploadRequest(t, usrToken, "perfiles", "virus.exe", photo)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "unsupported file type"}),
		}, rec)
	})

	t.Run("too large", func(t *testing.T) {
		big := make([]byte, 5<<20+1)
		req, rec := newUploadRequest(t, usrToken, "perfiles", "grande.png", big)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusRequestEntityTooLarge,
			wantData: marchallObj(t, httpErr{Error: "file too large"}),
		}, rec)
	})
}
