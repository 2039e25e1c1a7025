package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-guard-companion/internal/errors"
)

// MyReports lists the incidents filed by the signed-in guard
func (c *Client) MyReports(ctx context.Context, page PageRequest) (Paginated[Report], error) {
	body, err := c.send(ctx, request{method: http.MethodGet, path: "/reports/my", query: page.values()})
	if err != nil {
		return Paginated[Report]{}, err
	}
	return decodeList[Report](body)
}

// CreateReport files an incident
func (c *Client) CreateReport(ctx context.Context, reportType, description string) (Report, error) {
	reportType = strings.TrimSpace(reportType)
	description = strings.TrimSpace(description)
	if reportType == "" || description == "" {
		return Report{}, errors.Wrapf(errors.ErrInvalidRequest, "[CreateReport] type and description are required")
	}
	var report Report
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/reports",
		body:   map[string]string{"type": reportType, "description": description},
	}, &report)
	return report, err
}

// AddReportComment appends a comment to an incident
func (c *Client) AddReportComment(ctx context.Context, reportID, text string) error {
	text = strings.TrimSpace(text)
	if reportID == "" || text == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[AddReportComment] report id and text are required")
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/reports/" + pathEscape(reportID) + "/comments",
		body:   map[string]string{"text": text},
	}, nil)
}
