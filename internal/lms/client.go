// Package lms is a Moodle webservice client. Moodle's REST protocol is a
// single form-encoded endpoint keyed by wsfunction, with array parameters
// flattened into bracketed keys (users[0][username] etc.) and errors
// reported as a JSON exception envelope with HTTP 200.
package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spinozarabel/headstart-admission/internal/config"
)

// User is a Moodle user record as returned by core_user_get_users.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IDNumber string `json:"idnumber"`
}

// CustomField is one Moodle profile custom field.
type CustomField struct {
	Type  string
	Value string
}

// NewUser is the profile for core_user_create_users. Auth method,
// createpassword and maildisplay are fixed by the client.
type NewUser struct {
	Username     string
	FirstName    string
	MiddleName   string
	LastName     string
	Email        string
	IDNumber     string
	Institution  string
	Department   string
	Phone        string
	AltPhone     string
	Address      string
	City         string
	Country      string
	CustomFields []CustomField
}

// ProfileUpdate carries the mutable fields for core_user_update_users.
// Identity fields (username, idnumber, email, institution, department) are
// never rewritten on an existing account; only name parts, contact, address
// and the custom demographic fields are.
type ProfileUpdate struct {
	ID           int64
	FirstName    string
	MiddleName   string
	LastName     string
	Phone        string
	AltPhone     string
	Address      string
	City         string
	CustomFields []CustomField
}

// moodleFault is the exception envelope Moodle returns on webservice errors.
type moodleFault struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

// Client calls the Moodle webservice REST endpoint.
type Client struct {
	http  *resty.Client
	token string
}

// NewClient builds a client from configuration.
func NewClient(cfg config.LMSConfig) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	return &Client{http: http, token: cfg.Token}
}

// call posts a webservice function and decodes the response into out,
// surfacing Moodle's exception envelope as an error.
func (c *Client) call(ctx context.Context, fn string, params url.Values, out interface{}) error {
	params.Set("wstoken", c.token)
	params.Set("wsfunction", fn)
	params.Set("moodlewsrestformat", "json")

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(params).
		Post("/webservice/rest/server.php")
	if err != nil {
		return fmt.Errorf("lms: %s: %w", fn, err)
	}
	if resp.IsError() {
		return fmt.Errorf("lms: %s: %s: %s", fn, resp.Status(), resp.String())
	}

	body := resp.Body()
	var fault moodleFault
	if err := json.Unmarshal(body, &fault); err == nil && fault.Exception != "" {
		return fmt.Errorf("lms: %s: %s (%s)", fn, fault.Message, fault.ErrorCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("lms: %s: decode response: %w", fn, err)
	}
	return nil
}

// UserByUsername looks up a user by login name. Returns (nil, nil) when no
// user has that username.
func (c *Client) UserByUsername(ctx context.Context, username string) (*User, error) {
	params := url.Values{}
	params.Set("criteria[0][key]", "username")
	params.Set("criteria[0][value]", username)

	var result struct {
		Users []User `json:"users"`
	}
	if err := c.call(ctx, "core_user_get_users", params, &result); err != nil {
		return nil, err
	}
	if len(result.Users) == 0 {
		return nil, nil
	}
	return &result.Users[0], nil
}

// CreateUser provisions a new account and returns its Moodle id. The account
// is created with oauth2 auth and no generated password; sign-in happens
// through the institution's identity provider.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (int64, error) {
	params := url.Values{}
	set := func(field, value string) { params.Set("users[0]["+field+"]", value) }
	set("username", u.Username)
	set("firstname", u.FirstName)
	set("middlename", u.MiddleName)
	set("lastname", u.LastName)
	set("email", u.Email)
	set("idnumber", u.IDNumber)
	set("institution", u.Institution)
	set("department", u.Department)
	set("phone1", u.Phone)
	set("phone2", u.AltPhone)
	set("address", u.Address)
	set("city", u.City)
	set("country", u.Country)
	set("auth", "oauth2")
	set("createpassword", "0")
	set("maildisplay", "0")
	for i, f := range u.CustomFields {
		params.Set(fmt.Sprintf("users[0][customfields][%d][type]", i), f.Type)
		params.Set(fmt.Sprintf("users[0][customfields][%d][value]", i), f.Value)
	}

	var created []struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := c.call(ctx, "core_user_create_users", params, &created); err != nil {
		return 0, err
	}
	if len(created) == 0 {
		return 0, fmt.Errorf("lms: core_user_create_users: empty response for %q", u.Username)
	}
	return created[0].ID, nil
}

// UpdateUser rewrites the mutable profile fields of an existing account.
func (c *Client) UpdateUser(ctx context.Context, u ProfileUpdate) error {
	params := url.Values{}
	set := func(field, value string) { params.Set("users[0]["+field+"]", value) }
	set("id", strconv.FormatInt(u.ID, 10))
	set("firstname", u.FirstName)
	set("middlename", u.MiddleName)
	set("lastname", u.LastName)
	set("phone1", u.Phone)
	set("phone2", u.AltPhone)
	set("address", u.Address)
	set("city", u.City)
	for i, f := range u.CustomFields {
		params.Set(fmt.Sprintf("users[0][customfields][%d][type]", i), f.Type)
		params.Set(fmt.Sprintf("users[0][customfields][%d][value]", i), f.Value)
	}
	return c.call(ctx, "core_user_update_users", params, nil)
}

// AddCohortMember enrols a user into a cohort by the cohort's id number.
func (c *Client) AddCohortMember(ctx context.Context, cohortID string, userID int64) error {
	params := url.Values{}
	params.Set("members[0][cohorttype][type]", "idnumber")
	params.Set("members[0][cohorttype][value]", cohortID)
	params.Set("members[0][usertype][type]", "id")
	params.Set("members[0][usertype][value]", strconv.FormatInt(userID, 10))
	return c.call(ctx, "core_cohort_add_cohort_members", params, nil)
}
