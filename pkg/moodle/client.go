package moodle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a Moodle site's web-service REST endpoint with a
// user-scoped token.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

// SiteInfo is the subset of core_webservice_get_site_info the sync needs.
type SiteInfo struct {
	UserID   int64  `json:"userid"`
	SiteName string `json:"sitename"`
	Fullname string `json:"fullname"`
}

// Course is one enrolled course from core_enrol_get_users_courses.
type Course struct {
	ID        int64  `json:"id"`
	FullName  string `json:"fullname"`
	ShortName string `json:"shortname"`
}

// Section and Module mirror core_course_get_contents.
type Section struct {
	Name    string   `json:"name"`
	Modules []Module `json:"modules"`
}

type Module struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	ModName     string          `json:"modname"` // resource, url, forum, assign, ...
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Contents    []ModuleContent `json:"contents"`
}

type ModuleContent struct {
	Filename string `json:"filename"`
	FileURL  string `json:"fileurl"`
}

// apiError is Moodle's exception envelope; errors come back as HTTP 200.
type apiError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

// NewClient normalizes the site URL so both bare hosts and full endpoint
// URLs are accepted.
func NewClient(moodleURL, token string) *Client {
	base := strings.TrimRight(moodleURL, "/")
	apiURL := base
	if !strings.HasSuffix(base, "webservice/rest/server.php") {
		apiURL = base + "/webservice/rest/server.php"
	}
	return &Client{
		apiURL:     apiURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithHTTP is NewClient with an injected HTTP client, used by tests.
func NewClientWithHTTP(moodleURL, token string, httpClient *http.Client) *Client {
	c := NewClient(moodleURL, token)
	c.httpClient = httpClient
	return c
}

// Token exposes the web-service token for building authorized file links.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) call(ctx context.Context, function string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("wstoken", c.token)
	params.Set("wsfunction", function)
	params.Set("moodlewsrestformat", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("moodle request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("moodle response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("moodle API returned status %d", resp.StatusCode)
	}

	// Moodle reports failures as a JSON object with an "exception" key,
	// even when the expected payload is an array.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Exception != "" {
		return fmt.Errorf("moodle API exception %s: %s", apiErr.ErrorCode, apiErr.Message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("moodle response decode failed: %w", err)
	}
	return nil
}

// GetSiteInfo returns site info and the token owner's user id.
func (c *Client) GetSiteInfo(ctx context.Context) (*SiteInfo, error) {
	var info SiteInfo
	if err := c.call(ctx, "core_webservice_get_site_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetCourses returns the courses the token owner is enrolled in.
func (c *Client) GetCourses(ctx context.Context) ([]Course, error) {
	info, err := c.GetSiteInfo(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("userid", strconv.FormatInt(info.UserID, 10))

	var courses []Course
	if err := c.call(ctx, "core_enrol_get_users_courses", params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourseContents returns the sections and modules of one course.
func (c *Client) GetCourseContents(ctx context.Context, courseID int64) ([]Section, error) {
	params := url.Values{}
	params.Set("courseid", strconv.FormatInt(courseID, 10))

	var sections []Section
	if err := c.call(ctx, "core_course_get_contents", params, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// AuthorizedFileURL appends the web-service token to a module file link so
// the stored attachment is directly downloadable.
func (c *Client) AuthorizedFileURL(fileURL string) string {
	if fileURL == "" {
		return ""
	}
	if strings.Contains(fileURL, "?") {
		return fileURL + "&token=" + c.token
	}
	return fileURL + "?token=" + c.token
}
