package moodle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallSendsTokenAndFunction(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"wstoken":            r.PostFormValue("wstoken"),
			"wsfunction":         r.PostFormValue("wsfunction"),
			"moodlewsrestformat": r.PostFormValue("moodlewsrestformat"),
		}
		w.Write([]byte(`{"userid": 42, "sitename": "Test Site", "fullname": "Student One"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "abc123")
	info, err := c.GetSiteInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), info.UserID)
	assert.Equal(t, "abc123", gotForm["wstoken"])
	assert.Equal(t, "core_webservice_get_site_info", gotForm["wsfunction"])
	assert.Equal(t, "json", gotForm["moodlewsrestformat"])
}

func TestCallSurfacesExceptionEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Moodle returns errors with HTTP 200.
		w.Write([]byte(`{"exception": "moodle_exception", "errorcode": "invalidtoken", "message": "Invalid token"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad")
	_, err := c.GetSiteInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalidtoken")
}

func TestGetCoursesResolvesUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.PostFormValue("wsfunction") {
		case "core_webservice_get_site_info":
			w.Write([]byte(`{"userid": 7}`))
		case "core_enrol_get_users_courses":
			assert.Equal(t, "7", r.PostFormValue("userid"))
			w.Write([]byte(`[{"id": 101, "fullname": "Algorithms", "shortname": "ALGO"}]`))
		default:
			t.Errorf("unexpected function %q", r.PostFormValue("wsfunction"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	courses, err := c.GetCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, int64(101), courses[0].ID)
	assert.Equal(t, "Algorithms", courses[0].FullName)
}

func TestGetCourseContents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "101", r.PostFormValue("courseid"))
		w.Write([]byte(`[{"name": "Week 1", "modules": [{"id": 5, "name": "Syllabus", "modname": "resource", "contents": [{"filename": "syllabus.pdf", "fileurl": "http://moodle.test/file.pdf"}]}]}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	sections, err := c.GetCourseContents(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Modules, 1)
	assert.Equal(t, "resource", sections[0].Modules[0].ModName)
	assert.Equal(t, "syllabus.pdf", sections[0].Modules[0].Contents[0].Filename)
}

func TestNewClientNormalizesURL(t *testing.T) {
	c := NewClient("https://moodle.example.edu/", "t")
	assert.Equal(t, "https://moodle.example.edu/webservice/rest/server.php", c.apiURL)

	c = NewClient("https://moodle.example.edu/webservice/rest/server.php", "t")
	assert.Equal(t, "https://moodle.example.edu/webservice/rest/server.php", c.apiURL)
}

func TestAuthorizedFileURL(t *testing.T) {
	c := NewClient("https://moodle.example.edu", "tok")
	assert.Equal(t, "http://m/file.pdf?token=tok", c.AuthorizedFileURL("http://m/file.pdf"))
	assert.Equal(t, "http://m/file.pdf?forcedownload=1&token=tok", c.AuthorizedFileURL("http://m/file.pdf?forcedownload=1"))
	assert.Equal(t, "", c.AuthorizedFileURL(""))
}
