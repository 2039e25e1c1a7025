package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/jrsteele09/go-guard-companion/internal/errors"
	"github.com/jrsteele09/go-guard-companion/users"
	pkgerrors "github.com/pkg/errors"
)

// PushSettings changes a user's push registration. Nil fields are not sent.
type PushSettings struct {
	PushToken *string `json:"pushToken,omitempty"`
	Enabled   *bool   `json:"enabled,omitempty"`
}

func (c *Client) UpdatePushSettings(ctx context.Context, userID string, settings PushSettings) error {
	if userID == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[UpdatePushSettings] user id is required")
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/users/" + pathEscape(userID) + "/push-settings",
		body:   settings,
	}, nil)
}

// UpdateProfile patches the user record on the backend
func (c *Client) UpdateProfile(ctx context.Context, userID string, patch users.Patch) error {
	if userID == "" || len(patch) == 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "[UpdateProfile] user id and fields are required")
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/users/" + pathEscape(userID),
		body:   patch,
	}, nil)
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadProfileImage sends an image as the multipart field "file" and returns
// the stored URL.
func (c *Client) UploadProfileImage(ctx context.Context, filename, contentType string, image io.Reader) (string, error) {
	if filename == "" {
		filename = "profile.jpg"
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(filename)+`"`)
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[UploadProfileImage] create part")
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", pkgerrors.Wrap(err, "[UploadProfileImage] copy image")
	}
	if err := form.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "[UploadProfileImage] close form")
	}

	var resp uploadResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/uploads/profile-image",
		raw:         &buf,
		contentType: form.FormDataContentType(),
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", errors.Wrapf(errors.ErrInternal, "[UploadProfileImage] response carried no url")
	}
	return resp.URL, nil
}

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
