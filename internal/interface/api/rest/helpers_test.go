package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func SignJWT(secret, userID, role string, exp time.Duration) (string, error) {
	type Claims struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
		jwtv5.RegisteredClaims
	}
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(exp)),
		},
	}
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func bearer(t *testing.T, secret, userID string) map[string]string {
	t.Helper()
	tok, err := SignJWT(secret, userID, "student", time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

func doReq(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func doMultipartReq(
	t *testing.T,
	r *gin.Engine,
	method, path string,
	fields map[string][]string,
	fileName string,
	fileContent []byte,
	headers map[string]string,
) *httptest.ResponseRecorder {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}

	if fileName != "" && fileContent != nil {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, _ = fw.Write(fileContent)
	}

	require.NoError(t, w.Close())

	req, err := http.NewRequest(method, path, &b)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) (string, map[string]any) {
	t.Helper()

	var resp struct {
		Error   string         `json:"error"`
		Details map[string]any `json:"details"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	return resp.Error, resp.Details
}
