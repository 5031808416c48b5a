package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "fiwb-backend/internal/auth/domain"
	"fiwb-backend/internal/sync/domain"
	"fiwb-backend/pkg/governor"
	"fiwb-backend/pkg/moodle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moodleTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.PostFormValue("wsfunction") {
		case "core_webservice_get_site_info":
			w.Write([]byte(`{"userid": 9}`))
		case "core_enrol_get_users_courses":
			w.Write([]byte(`[{"id": 12, "fullname": "Operating Systems", "shortname": "OS"}]`))
		case "core_course_get_contents":
			w.Write([]byte(`[{"name": "Week 1", "modules": [
				{"id": 301, "name": "Intro slides", "modname": "resource", "description": "<p>Read before class</p>",
				 "url": "https://moodle.test/mod/resource/view.php?id=301",
				 "contents": [{"filename": "intro.pdf", "fileurl": "https://moodle.test/webservice/pluginfile.php/intro.pdf"}]},
				{"id": 302, "name": "Forum", "modname": "forum", "url": "https://moodle.test/mod/forum/view.php?id=302"}
			]}]`))
		default:
			t.Errorf("unexpected function %q", r.PostFormValue("wsfunction"))
		}
	}))
}

func moodleUser(url string) *authdomain.User {
	return &authdomain.User{ID: "u1", Email: "u1@example.edu", MoodleURL: url, MoodleToken: "tok"}
}

func moodleAdapter() *MoodleAdapter {
	return &MoodleAdapter{newClient: moodle.NewClient, governor: governor.New(5, 10)}
}

func TestMoodleListActivePrefixesIDs(t *testing.T) {
	srv := moodleTestServer(t)
	defer srv.Close()

	a := moodleAdapter()
	infos, err := a.ListActive(context.Background(), moodleUser(srv.URL))
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "moodle_12", infos[0].ID)
	assert.Equal(t, "Operating Systems", infos[0].Name)
	assert.Equal(t, domain.PlatformMoodle, infos[0].Platform)
}

func TestMoodleListActiveWithoutCredentials(t *testing.T) {
	a := moodleAdapter()
	infos, err := a.ListActive(context.Background(), &authdomain.User{ID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestMoodleFetchCourseContent(t *testing.T) {
	srv := moodleTestServer(t)
	defer srv.Close()

	a := moodleAdapter()
	course := domain.CourseInfo{ID: "moodle_12", Name: "Operating Systems", Platform: domain.PlatformMoodle}

	items, err := a.FetchCourseContent(context.Background(), moodleUser(srv.URL), course, domain.IDSet{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0].Material
	assert.Equal(t, "moodle_mod_301", first.ID)
	assert.Equal(t, "Intro slides", first.Title)
	// HTML stripped, section prefixed.
	assert.Contains(t, first.Content, "Week 1")
	assert.Contains(t, first.Content, "Read before class")
	assert.NotContains(t, first.Content, "<p>")
	// File links carry the token so they stay downloadable.
	assert.Contains(t, first.Attachments, "token=tok")

	assert.Equal(t, "moodle_mod_302", items[1].Material.ID)
}

func TestMoodleFetchSkipsSeenModules(t *testing.T) {
	srv := moodleTestServer(t)
	defer srv.Close()

	a := moodleAdapter()
	course := domain.CourseInfo{ID: "moodle_12", Name: "Operating Systems"}
	seen := domain.IDSet{"moodle_mod_301": struct{}{}}

	items, err := a.FetchCourseContent(context.Background(), moodleUser(srv.URL), course, seen)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "moodle_mod_302", items[0].Material.ID)
}

func TestMoodleMalformedCourseID(t *testing.T) {
	a := moodleAdapter()
	_, err := a.FetchCourseContent(context.Background(), moodleUser("http://unused"), domain.CourseInfo{ID: "moodle_abc"}, domain.IDSet{})
	assert.Error(t, err)
}
