package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteResponses(t *testing.T) {
	sessionJson := `{"id":1709663400000,"templateId":"A"}`

	cases := []struct {
		name                string
		write               func(w http.ResponseWriter)
		expectedStatus      int
		expectedContentType string
		expectedBody        string
	}{
		{
			name: "bytes with status",
			write: func(w http.ResponseWriter) {
				WriteResponseBytes(w, ContentType.JSON, []byte(sessionJson), http.StatusCreated)
			},
			expectedStatus:      http.StatusCreated,
			expectedContentType: ContentType.JSON,
			expectedBody:        sessionJson,
		},
		{
			name: "bytes ok",
			write: func(w http.ResponseWriter) {
				WriteResponseBytesOK(w, ContentType.JSON, []byte(sessionJson))
			},
			expectedStatus:      http.StatusOK,
			expectedContentType: ContentType.JSON,
			expectedBody:        sessionJson,
		},
		{
			name: "string",
			write: func(w http.ResponseWriter) {
				WriteResponse(w, ContentType.Text, "conflict", http.StatusConflict)
			},
			expectedStatus:      http.StatusConflict,
			expectedContentType: ContentType.Text,
			expectedBody:        "conflict",
		},
		{
			name: "text ok",
			write: func(w http.ResponseWriter) {
				WriteTextResponseOK(w, "I'm OK, thanks ;)")
			},
			expectedStatus:      http.StatusOK,
			expectedContentType: ContentType.Text,
			expectedBody:        "I'm OK, thanks ;)",
		},
		{
			name: "json ok",
			write: func(w http.ResponseWriter) {
				WriteJSONResponseOK(w, sessionJson)
			},
			expectedStatus:      http.StatusOK,
			expectedContentType: ContentType.JSON,
			expectedBody:        sessionJson,
		},
		{
			name: "no content type",
			write: func(w http.ResponseWriter) {
				WriteResponseBytes(w, "", nil, http.StatusNoContent)
			},
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tc.write(rr)
			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedContentType, rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONError(rr, "empty_submission", "Add at least one exercise entry before saving.", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ContentType.JSON, rr.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"reason":"empty_submission","message":"Add at least one exercise entry before saving."}`,
		rr.Body.String(),
	)

	rr = httptest.NewRecorder()
	WriteJSONError(rr, "", "not found", http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"not found"}`, rr.Body.String())
}
