package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

var reporter = &domain.User{UserID: "u1", AkvoraID: "AKVORA:2025:007", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}

func newTestService(m *mockMailer) *service {
	svc := NewService(m, "support@akvora.com").(*service)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestReportIssue_SendsToSupportInbox(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, "support@akvora.com", "New Issue Reported by Ada Lovelace", mock.Anything).Return(nil)

	err := newTestService(m).ReportIssue(context.Background(), reporter, domain.ReportIssueRequest{Issue: "  Cannot download certificate  "})

	require.NoError(t, err)
	body := m.Calls[0].Arguments.String(3)
	assert.Contains(t, body, "- Email: ada@example.com")
	assert.Contains(t, body, "- Submitted Date: 10/03/2025, 17:30:00")
	assert.Contains(t, body, "\nCannot download certificate\n")
}

func TestReportIssue_Blank_BadRequest(t *testing.T) {
	m := &mockMailer{}

	err := newTestService(m).ReportIssue(context.Background(), reporter, domain.ReportIssueRequest{Issue: "   "})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	m.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportIssue_NamelessUser(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, mock.Anything, "New Issue Reported by User", mock.Anything).Return(nil)

	require.NoError(t, newTestService(m).ReportIssue(context.Background(), &domain.User{UserID: "u2"}, domain.ReportIssueRequest{Issue: "x"}))
}

func TestReportIssue_MailFailure(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp dial: refused"))

	err := newTestService(m).ReportIssue(context.Background(), reporter, domain.ReportIssueRequest{Issue: "x"})

	assert.ErrorContains(t, err, "send issue report")
}
