package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteVerifyServer(t *testing.T, handler http.HandlerFunc) *RecaptchaVerifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRecaptchaVerifier("server-secret", srv.URL, 2*time.Second)
}

func TestRecaptchaVerifier_Verify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{name: "accepted", status: http.StatusOK, body: `{"success": true, "hostname": "admin.example.com"}`, want: true},
		{name: "rejected", status: http.StatusOK, body: `{"success": false, "error-codes": ["invalid-input-response"]}`, want: false},
		{name: "upstream error", status: http.StatusBadGateway, body: `oops`, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `{"success":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newSiteVerifyServer(t, func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "server-secret", r.PostForm.Get("secret"))
				assert.Equal(t, "client-token", r.PostForm.Get("response"))
				assert.Equal(t, "10.0.0.7", r.PostForm.Get("remoteip"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			ok, err := v.Verify(context.Background(), "client-token", "10.0.0.7")
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestRecaptchaVerifier_EmptyTokenSkipsNetwork(t *testing.T) {
	called := false
	v := newSiteVerifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	ok, err := v.Verify(context.Background(), "  ", "")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, called)
}

func TestRecaptchaVerifier_Unreachable(t *testing.T) {
	v := NewRecaptchaVerifier("s", "http://127.0.0.1:1", 200*time.Millisecond)

	ok, err := v.Verify(context.Background(), "token", "")

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDisabled(t *testing.T) {
	ok, err := Disabled{}.Verify(context.Background(), "", "")
	assert.NoError(t, err)
	assert.True(t, ok)
}
