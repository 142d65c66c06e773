package models

import "net/http"

// Response is the invocation result: status 200 with the report, or status
// 500 with an AuditError. Body is never a raw error string.
type Response struct {
	StatusCode int `json:"status_code"`
	Body       any `json:"body"`
}

// SuccessResponse wraps a completed report.
func SuccessResponse(report *ComplianceReport) Response {
	return Response{StatusCode: http.StatusOK, Body: report}
}

// FailureResponse wraps an audit error.
func FailureResponse(err *AuditError) Response {
	return Response{StatusCode: http.StatusInternalServerError, Body: err}
}

// Report returns the report carried by a successful response, or nil.
func (r Response) Report() *ComplianceReport {
	rep, _ := r.Body.(*ComplianceReport)
	return rep
}

// AuditError returns the error carried by a failed response, or nil.
func (r Response) AuditError() *AuditError {
	e, _ := r.Body.(*AuditError)
	return e
}
